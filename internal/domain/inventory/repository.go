package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// ShopInventoryFilter narrows shop inventory listings
type ShopInventoryFilter struct {
	shared.Filter
	ShopID     *uuid.UUID
	ProductID  *uuid.UUID
	Status     StockStatus
	OnlyStock  bool
	BusinessID uuid.UUID
}

// ShopInventoryRepository defines persistence for shop inventory rows.
// Quantity is never written through a read-modify-write: the *IfAvailable
// and Increment primitives are single conditional UPDATE statements.
type ShopInventoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ShopInventory, error)
	FindByShopAndProduct(ctx context.Context, shopID, productID uuid.UUID) (*ShopInventory, error)
	List(ctx context.Context, filter ShopInventoryFilter) ([]ShopInventory, int64, error)

	// Create inserts inv unless a row for (shop, product) exists, then returns
	// the stored row. created is true when this call inserted it.
	Create(ctx context.Context, inv *ShopInventory) (stored *ShopInventory, created bool, err error)

	// DecrementIfAvailable subtracts quantity only when the row holds at least
	// that much; applied is false, and nothing changes, otherwise.
	DecrementIfAvailable(ctx context.Context, id uuid.UUID, quantity int64) (applied bool, err error)

	// Increment adds quantity to the row
	Increment(ctx context.Context, id uuid.UUID, quantity int64) error

	// MarkRestocked records the restock time and notes
	MarkRestocked(ctx context.Context, id uuid.UUID, at time.Time, notes string) error

	// UpdateThresholds persists new min / max / reorder levels
	UpdateThresholds(ctx context.Context, inv *ShopInventory) error

	// SumByProduct returns the total quantity held by all shops for a product
	SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// StockMovementFilter narrows movement listings
type StockMovementFilter struct {
	shared.Filter
	BusinessID uuid.UUID
	ProductID  *uuid.UUID
	ShopID     *uuid.UUID
	Kind       MovementKind
}

// StockMovementRepository is the append-only audit trail
type StockMovementRepository interface {
	Append(ctx context.Context, movements ...*StockMovement) error
	List(ctx context.Context, filter StockMovementFilter) ([]StockMovement, int64, error)
	ExistsForReference(ctx context.Context, kind MovementKind, ref Reference) (bool, error)
}

// StockTransferFilter narrows transfer listings
type StockTransferFilter struct {
	shared.Filter
	BusinessID uuid.UUID
	ShopID     *uuid.UUID
	ProductID  *uuid.UUID
	Status     TransferStatus
	Since      *time.Time
}

// StockTransferRepository defines persistence for transfers
type StockTransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)
	// FindByIDForUpdate loads the transfer holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockTransfer, error)
	List(ctx context.Context, filter StockTransferFilter) ([]StockTransfer, int64, error)
	Save(ctx context.Context, t *StockTransfer) error
	// SaveWithLock saves t only if its stored version is t.Version-1
	SaveWithLock(ctx context.Context, t *StockTransfer) error
}
