package catalog

import (
	"context"

	"github.com/google/uuid"
)

// BusinessRepository defines persistence for businesses
type BusinessRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Business, error)
	Save(ctx context.Context, business *Business) error
}

// ShopRepository defines persistence for shops
type ShopRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shop, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Shop, error)
	FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]Shop, error)
	Save(ctx context.Context, shop *Shop) error
}

// ProductRepository defines persistence for products and their unassigned pool.
// Pool changes never go through Save: they are conditional in-place updates.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	Save(ctx context.Context, product *Product) error

	// DecrementPoolIfAvailable subtracts quantity only when the pool holds at
	// least that much. applied is false, and nothing changes, otherwise.
	DecrementPoolIfAvailable(ctx context.Context, productID uuid.UUID, quantity int64) (applied bool, err error)

	// IncrementPool adds quantity to the pool
	IncrementPool(ctx context.Context, productID uuid.UUID, quantity int64) error
}
