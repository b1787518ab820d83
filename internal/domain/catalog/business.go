package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Business is the tenant: it owns shops, products and customers
type Business struct {
	shared.BaseAggregateRoot
	Name    string
	OwnerID uuid.UUID
}

// NewBusiness creates a new business owned by ownerID
func NewBusiness(name string, ownerID uuid.UUID) (*Business, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Business name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Business name cannot exceed 200 characters")
	}
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Business owner is required")
	}
	return &Business{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		OwnerID:           ownerID,
	}, nil
}

// Shop is a selling location of a business
type Shop struct {
	shared.BusinessAggregateRoot
	Name    string
	Address string
}

// NewShop creates a new shop
func NewShop(businessID uuid.UUID, name, address string) (*Shop, error) {
	name = strings.TrimSpace(name)
	if businessID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUSINESS", "Shop must belong to a business")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Shop name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Shop name cannot exceed 200 characters")
	}
	return &Shop{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(businessID),
		Name:                  name,
		Address:               strings.TrimSpace(address),
	}, nil
}
