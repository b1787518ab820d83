// Package billing contains the bill, payment and customer aggregates.
//
// A bill's status is never set ad hoc: apart from creation and cancellation
// it is always derived from the sum of its persisted payments.
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// BillStatus represents the settlement state of a bill
type BillStatus string

const (
	BillStatusPending   BillStatus = "pending"
	BillStatusPartial   BillStatus = "partial"
	BillStatusPaid      BillStatus = "paid"
	BillStatusCancelled BillStatus = "cancelled"
	BillStatusCash      BillStatus = "cash"
)

// IsValid checks if the status is a valid value
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusPending, BillStatusPartial, BillStatusPaid, BillStatusCancelled, BillStatusCash:
		return true
	}
	return false
}

// IsTerminal reports whether the status can no longer change
func (s BillStatus) IsTerminal() bool {
	return s == BillStatusPaid || s == BillStatusCancelled || s == BillStatusCash
}

// AcceptsPayments reports whether payments may be recorded in this status
func (s BillStatus) AcceptsPayments() bool {
	return s == BillStatusPending || s == BillStatusPartial
}

// BillType distinguishes cash from credit bills
type BillType string

const (
	BillTypeCash   BillType = "cash"
	BillTypeCredit BillType = "credit"
)

// IsValid checks if the type is a valid value
func (t BillType) IsValid() bool {
	return t == BillTypeCash || t == BillTypeCredit
}

// DeriveBillStatus maps the amount paid against the total to a status
func DeriveBillStatus(total, paid decimal.Decimal) BillStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return BillStatusPaid
	case paid.IsPositive():
		return BillStatusPartial
	default:
		return BillStatusPending
	}
}

// BillLine is the input for one line of a new bill
type BillLine struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
}

// BillItem is a line of a bill. TotalPrice is always quantity * unit price.
type BillItem struct {
	ID          uuid.UUID
	BillID      uuid.UUID
	LineNumber  int
	ProductID   uuid.UUID
	ProductName string
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

func newBillItem(billID uuid.UUID, lineNumber int, line BillLine) (BillItem, error) {
	if line.ProductID == uuid.Nil {
		return BillItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product is required").
			WithDetail("line", lineNumber)
	}
	if line.Quantity <= 0 {
		return BillItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero").
			WithDetail("line", lineNumber).
			WithDetail("quantity", line.Quantity)
	}
	if !line.UnitPrice.IsPositive() {
		return BillItem{}, shared.NewDomainError("INVALID_PRICE", "Unit price must be greater than zero").
			WithDetail("line", lineNumber).
			WithDetail("unit_price", line.UnitPrice.String())
	}
	return BillItem{
		ID:          uuid.New(),
		BillID:      billID,
		LineNumber:  lineNumber,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		TotalPrice:  valueobject.LineTotal(line.Quantity, line.UnitPrice),
	}, nil
}

// Bill is a sale document. Cash bills are settled on creation; credit bills
// are settled by payments.
type Bill struct {
	shared.BusinessAggregateRoot
	BillNumber         string
	ShopID             uuid.UUID
	UserID             uuid.UUID
	CustomerID         *uuid.UUID
	BillType           BillType
	Status             BillStatus
	TotalAmount        decimal.Decimal
	BillDate           time.Time
	DueDate            *time.Time
	Notes              string
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CancellationReason string
	Items              []BillItem
}

// BillHeader carries the fields shared by cash and credit bills
type BillHeader struct {
	BusinessID uuid.UUID
	ShopID     uuid.UUID
	UserID     uuid.UUID
	BillNumber string
	BillDate   time.Time
	DueDate    *time.Time
	Notes      string
}

// MaxBillNotesLength bounds bill notes
const MaxBillNotesLength = 1000

func newBill(h BillHeader, lines []BillLine) (*Bill, error) {
	if h.BusinessID == uuid.Nil || h.ShopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Bill must belong to a shop")
	}
	if h.UserID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Bill must have an issuing user")
	}
	if strings.TrimSpace(h.BillNumber) == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_BILL", "Bill must have at least one item")
	}
	if len(h.Notes) > MaxBillNotesLength {
		return nil, shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}
	billDate := h.BillDate
	if billDate.IsZero() {
		billDate = shared.Now()
	}
	if h.DueDate != nil && h.DueDate.Before(truncateDay(billDate)) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot be before the bill date")
	}

	b := &Bill{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(h.BusinessID),
		BillNumber:            h.BillNumber,
		ShopID:                h.ShopID,
		UserID:                h.UserID,
		BillDate:              billDate,
		DueDate:               h.DueDate,
		Notes:                 strings.TrimSpace(h.Notes),
		Items:                 make([]BillItem, 0, len(lines)),
	}
	for i, line := range lines {
		item, err := newBillItem(b.ID, i+1, line)
		if err != nil {
			return nil, err
		}
		b.Items = append(b.Items, item)
	}
	b.TotalAmount = b.itemsTotal()
	return b, nil
}

// NewCreditBill creates a pending bill owed by customerID
func NewCreditBill(h BillHeader, customerID uuid.UUID, lines []BillLine) (*Bill, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Credit bills require a customer")
	}
	b, err := newBill(h, lines)
	if err != nil {
		return nil, err
	}
	b.CustomerID = &customerID
	b.BillType = BillTypeCredit
	b.Status = BillStatusPending
	b.AddDomainEvent(NewBillCreatedEvent(b))
	return b, nil
}

// NewCashBill creates a bill that is settled at creation
func NewCashBill(h BillHeader, lines []BillLine) (*Bill, error) {
	b, err := newBill(h, lines)
	if err != nil {
		return nil, err
	}
	b.BillType = BillTypeCash
	b.Status = BillStatusCash
	paidAt := b.BillDate
	b.PaidAt = &paidAt
	b.AddDomainEvent(NewBillCreatedEvent(b))
	return b, nil
}

// itemsTotal sums the line totals, floored at the minimum bill amount
func (b *Bill) itemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.TotalPrice)
	}
	return valueobject.Max(total, valueobject.MinimumBillAmount)
}

// IsCredit reports whether the bill is settled by payments
func (b *Bill) IsCredit() bool {
	return b.BillType == BillTypeCredit
}

// OutstandingAmount returns what is still owed given the amount paid so far.
// Cash and cancelled bills owe nothing.
func (b *Bill) OutstandingAmount(paid decimal.Decimal) decimal.Decimal {
	if b.Status == BillStatusCash || b.Status == BillStatusCancelled {
		return decimal.Zero
	}
	return valueobject.NonNegative(b.TotalAmount.Sub(paid))
}

// ValidatePayment checks amount against the outstanding balance.
// Overpayment is rejected; it is never clamped to the balance.
func (b *Bill) ValidatePayment(amount, paid decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero").
			WithDetail("amount", amount.String())
	}
	if !amount.Equal(amount.Round(valueobject.MoneyScale)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot have more than two decimal places").
			WithDetail("amount", amount.String())
	}
	outstanding := b.OutstandingAmount(paid)
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainError("PAYMENT_EXCEEDS_OUTSTANDING",
			fmt.Sprintf("Payment of %s exceeds outstanding amount %s", amount.StringFixed(2), outstanding.StringFixed(2))).
			WithDetail("bill_id", b.ID.String()).
			WithDetail("amount", amount.StringFixed(2)).
			WithDetail("outstanding", outstanding.StringFixed(2))
	}
	return nil
}

// ApplyPaidTotal re-derives the status from the amount paid.
// It reports whether this call moved the bill into paid. Cash and cancelled
// bills are never re-evaluated.
func (b *Bill) ApplyPaidTotal(paid decimal.Decimal) (becamePaid bool) {
	if b.Status == BillStatusCash || b.Status == BillStatusCancelled {
		return false
	}
	next := DeriveBillStatus(b.TotalAmount, paid)
	if next == b.Status {
		return false
	}
	now := shared.Now()
	becamePaid = next == BillStatusPaid
	b.Status = next
	if becamePaid {
		b.PaidAt = &now
		b.AddDomainEvent(NewBillPaidEvent(b))
	} else {
		b.PaidAt = nil
	}
	b.UpdatedAt = now
	b.Version++
	return becamePaid
}

// Cancel voids a bill that has not been settled
func (b *Bill) Cancel(reason string) error {
	if b.Status == BillStatusPaid || b.Status == BillStatusCash || b.Status == BillStatusCancelled {
		return shared.NewInvalidTransitionError("bill", string(b.Status), "cancel").
			WithDetail("bill_id", b.ID.String())
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxBillNotesLength {
		return shared.NewDomainError("INVALID_REASON", "Cancellation reason cannot exceed 1000 characters")
	}
	now := shared.Now()
	b.Status = BillStatusCancelled
	b.CancelledAt = &now
	b.CancellationReason = reason
	b.UpdatedAt = now
	b.Version++
	b.AddDomainEvent(NewBillCancelledEvent(b))
	return nil
}

// ProductIDs returns the distinct products on the bill in line order
func (b *Bill) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(b.Items))
	ids := make([]uuid.UUID, 0, len(b.Items))
	for _, item := range b.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
