// Package sales holds the append-only sale fact table.
package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant for Sale
const AggregateTypeSale = "Sale"

// EventTypeSaleRecorded is raised for every appended sale
const EventTypeSaleRecorded = "SaleRecorded"

// Sale records units of a product sold. It is never updated once written;
// TotalAmount is always Quantity * UnitPrice.
type Sale struct {
	ID          uuid.UUID
	BusinessID  uuid.UUID
	ShopID      uuid.UUID
	ProductID   uuid.UUID
	UserID      uuid.UUID
	BillID      *uuid.UUID
	BillItemID  *uuid.UUID
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalAmount decimal.Decimal
	SaleDate    time.Time
	CreatedAt   time.Time
}

// NewSaleInput carries the fields a sale is built from
type NewSaleInput struct {
	BusinessID uuid.UUID
	ShopID     uuid.UUID
	ProductID  uuid.UUID
	UserID     uuid.UUID
	BillID     *uuid.UUID
	BillItemID *uuid.UUID
	Quantity   int64
	UnitPrice  decimal.Decimal
	SaleDate   time.Time
}

// NewSale validates in and derives the total
func NewSale(in NewSaleInput) (*Sale, error) {
	if in.BusinessID == uuid.Nil || in.ShopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Sale must belong to a shop")
	}
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if in.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Sale must have a recording user")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero").
			WithDetail("quantity", in.Quantity)
	}
	if !in.UnitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be greater than zero").
			WithDetail("unit_price", in.UnitPrice.String())
	}
	if (in.BillID == nil) != (in.BillItemID == nil) {
		return nil, shared.NewDomainError("INVALID_BILL_REFERENCE", "Bill and bill item must be given together")
	}
	now := shared.Now()
	saleDate := in.SaleDate
	if saleDate.IsZero() {
		saleDate = now
	}
	return &Sale{
		ID:          uuid.New(),
		BusinessID:  in.BusinessID,
		ShopID:      in.ShopID,
		ProductID:   in.ProductID,
		UserID:      in.UserID,
		BillID:      in.BillID,
		BillItemID:  in.BillItemID,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TotalAmount: valueobject.LineTotal(in.Quantity, in.UnitPrice),
		SaleDate:    saleDate,
		CreatedAt:   now,
	}, nil
}

// IsDirect reports whether the sale was recorded without a bill
func (s *Sale) IsDirect() bool {
	return s.BillID == nil
}

// SaleRecordedEvent is raised when a sale is appended
type SaleRecordedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	BillID      *uuid.UUID      `json:"bill_id,omitempty"`
	Quantity    int64           `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleRecordedEvent creates the event for s
func NewSaleRecordedEvent(s *Sale) *SaleRecordedEvent {
	return &SaleRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRecorded, AggregateTypeSale, s.ID, s.BusinessID),
		SaleID:          s.ID,
		ShopID:          s.ShopID,
		ProductID:       s.ProductID,
		BillID:          s.BillID,
		Quantity:        s.Quantity,
		TotalAmount:     s.TotalAmount,
	}
}
