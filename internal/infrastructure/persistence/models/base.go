package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// AggregateModel holds the columns every aggregate table shares. version
// backs the optimistic lock: updates match on the previous value.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func (m *AggregateModel) setRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

func (m *AggregateModel) root() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}

// BusinessAggregateModel adds the owning business, the tenant key every
// query is scoped by
type BusinessAggregateModel struct {
	AggregateModel
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *BusinessAggregateModel) setBusinessRoot(b shared.BusinessAggregateRoot) {
	m.setRoot(b.BaseAggregateRoot)
	m.BusinessID = b.BusinessID
}

func (m *BusinessAggregateModel) businessRoot() shared.BusinessAggregateRoot {
	return shared.BusinessAggregateRoot{BaseAggregateRoot: m.root(), BusinessID: m.BusinessID}
}
