package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// BillFilter narrows bill listings
type BillFilter struct {
	shared.Filter
	BusinessID uuid.UUID
	ShopID     *uuid.UUID
	CustomerID *uuid.UUID
	Status     BillStatus
	From       *time.Time
	To         *time.Time
}

// BillRepository defines persistence for bills and their items
type BillRepository interface {
	// Create inserts the bill with all its items
	Create(ctx context.Context, bill *Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	// FindByIDForUpdate loads the bill holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Bill, error)
	// UpdateStatus persists status, paid / cancelled timestamps and version
	UpdateStatus(ctx context.Context, bill *Bill) error
	NumberExists(ctx context.Context, shopID, userID uuid.UUID, number string) (bool, error)
	List(ctx context.Context, filter BillFilter) ([]Bill, int64, error)
	// ActiveCreditTotals returns total amounts of the customer's bills that are not cancelled
	ActiveCreditTotals(ctx context.Context, customerID uuid.UUID) ([]decimal.Decimal, error)
}

// PaymentRepository defines persistence for payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	ListByBill(ctx context.Context, billID uuid.UUID) ([]Payment, error)
	// AmountsForBill returns every payment amount recorded against the bill
	AmountsForBill(ctx context.Context, billID uuid.UUID) ([]decimal.Decimal, error)
	// AmountsOnActiveBills returns the customer's payment amounts on bills that are not cancelled
	AmountsOnActiveBills(ctx context.Context, customerID uuid.UUID) ([]decimal.Decimal, error)
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
	UpdateTotals(ctx context.Context, customer *Customer) error
}
