package sales

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	BusinessID uuid.UUID
	ShopID     *uuid.UUID
	ProductID  *uuid.UUID
	BillID     *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// SaleRepository is append-only: there is no update or delete
type SaleRepository interface {
	Create(ctx context.Context, sales ...*Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	ExistsForBill(ctx context.Context, billID uuid.UUID) (bool, error)
	List(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)
}
