package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is an entity that is loaded and saved as a unit and buffers
// the domain events raised by its mutations until they are pulled.
type AggregateRoot interface {
	Entity
	PullDomainEvents() []DomainEvent
}

// BaseAggregateRoot adds the optimistic lock version and the pending events
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// NewBaseAggregateRoot creates an aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// Touch stamps UpdatedAt and bumps the version. Repositories save with
// WHERE version = Version-1, so Touch must run once per persisted change.
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = Now()
	a.Version++
}

// AddDomainEvent buffers an event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// PendingDomainEvents returns the buffered events without clearing them
func (a *BaseAggregateRoot) PendingDomainEvents() []DomainEvent {
	return a.domainEvents
}

// PullDomainEvents returns the buffered events and clears the buffer
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.domainEvents
	a.domainEvents = nil
	return events
}

// BusinessAggregateRoot is an aggregate owned by a single business (the tenant)
type BusinessAggregateRoot struct {
	BaseAggregateRoot
	BusinessID uuid.UUID
}

// NewBusinessAggregateRoot creates a new business-scoped aggregate root
func NewBusinessAggregateRoot(businessID uuid.UUID) BusinessAggregateRoot {
	return BusinessAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		BusinessID:        businessID,
	}
}

// BelongsTo reports whether the aggregate is owned by businessID
func (b *BusinessAggregateRoot) BelongsTo(businessID uuid.UUID) bool {
	return b.BusinessID == businessID
}
