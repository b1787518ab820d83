package shared

import (
	"time"

	"github.com/google/uuid"
)

// Now is the clock used for entity timestamps. Timestamps are kept in UTC
// at microsecond precision so a value survives a round trip through postgres.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Entity is anything with a stable identity
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries identity and audit timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// NewBaseEntity creates an entity with a fresh ID stamped with the current time
func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}
