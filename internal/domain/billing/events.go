package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Aggregate type constant for Bill
const AggregateTypeBill = "Bill"

// Event type constants
const (
	EventTypeBillCreated     = "BillCreated"
	EventTypeBillPaid        = "BillPaid"
	EventTypeBillCancelled   = "BillCancelled"
	EventTypePaymentRecorded = "PaymentRecorded"
)

// BillEvent is raised when a bill is created, paid or cancelled
type BillEvent struct {
	shared.BaseDomainEvent
	BillID      uuid.UUID       `json:"bill_id"`
	BillNumber  string          `json:"bill_number"`
	ShopID      uuid.UUID       `json:"shop_id"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	BillType    BillType        `json:"bill_type"`
	Status      BillStatus      `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func newBillEvent(eventType string, b *Bill) *BillEvent {
	return &BillEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeBill, b.ID, b.BusinessID),
		BillID:          b.ID,
		BillNumber:      b.BillNumber,
		ShopID:          b.ShopID,
		CustomerID:      b.CustomerID,
		BillType:        b.BillType,
		Status:          b.Status,
		TotalAmount:     b.TotalAmount,
	}
}

// NewBillCreatedEvent creates the event for a new bill
func NewBillCreatedEvent(b *Bill) *BillEvent {
	return newBillEvent(EventTypeBillCreated, b)
}

// NewBillPaidEvent creates the event for a bill reaching paid
func NewBillPaidEvent(b *Bill) *BillEvent {
	return newBillEvent(EventTypeBillPaid, b)
}

// NewBillCancelledEvent creates the event for a cancelled bill
func NewBillCancelledEvent(b *Bill) *BillEvent {
	return newBillEvent(EventTypeBillCancelled, b)
}

// PaymentRecordedEvent is raised for every payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	BillID        uuid.UUID       `json:"bill_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Outstanding   decimal.Decimal `json:"outstanding"`
}

// NewPaymentRecordedEvent creates the event for p, leaving outstanding on the bill
func NewPaymentRecordedEvent(p *Payment, outstanding decimal.Decimal) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeBill, p.BillID, p.BusinessID),
		PaymentID:       p.ID,
		BillID:          p.BillID,
		CustomerID:      p.CustomerID,
		Amount:          p.Amount,
		PaymentMethod:   p.PaymentMethod,
		Outstanding:     outstanding,
	}
}
