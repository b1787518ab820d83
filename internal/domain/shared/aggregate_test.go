package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessAggregateRoot_TouchAndEvents(t *testing.T) {
	businessID := uuid.New()
	root := NewBusinessAggregateRoot(businessID)

	assert.Equal(t, 1, root.Version)
	assert.Equal(t, root.CreatedAt, root.UpdatedAt)
	assert.Equal(t, time.UTC, root.CreatedAt.Location())
	assert.True(t, root.BelongsTo(businessID))
	assert.False(t, root.BelongsTo(uuid.New()))

	root.Touch()
	assert.Equal(t, 2, root.Version)
	assert.False(t, root.UpdatedAt.Before(root.CreatedAt))

	ev := NewBaseDomainEvent("thing.happened", "Thing", root.ID, businessID)
	root.AddDomainEvent(&ev)
	require.Len(t, root.PendingDomainEvents(), 1)

	pulled := root.PullDomainEvents()
	require.Len(t, pulled, 1)
	assert.Equal(t, "thing.happened", pulled[0].EventType())
	assert.Empty(t, root.PendingDomainEvents())
	assert.Empty(t, root.PullDomainEvents())
}

func TestNow_TruncatesToMicroseconds(t *testing.T) {
	now := Now()
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}
