package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// PaymentMethod is how a payment was tendered
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
	PaymentMethodCheque       PaymentMethod = "cheque"
)

// IsValid checks if the method is a valid value
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodMobileWallet, PaymentMethodCheque:
		return true
	}
	return false
}

// ParsePaymentMethod parses a method name, defaulting to cash when empty
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PaymentMethodCash, nil
	}
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+s)
	}
	return m, nil
}

// Payment is an amount received against a credit bill. Payments are never
// edited; the bill status is derived from their sum.
type Payment struct {
	ID            uuid.UUID
	BusinessID    uuid.UUID
	BillID        uuid.UUID
	CustomerID    uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod PaymentMethod
	Reference     string
	Notes         string
	CreatedAt     time.Time
}

// NewPayment creates a payment against bill. Amount checks against the
// outstanding balance are the bill's responsibility (Bill.ValidatePayment).
func NewPayment(bill *Bill, userID uuid.UUID, amount decimal.Decimal, method PaymentMethod, paymentDate time.Time, reference, notes string) (*Payment, error) {
	if bill.CustomerID == nil {
		return nil, shared.NewDomainError("INVALID_BILL", "Payments can only be recorded against credit bills")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Payment must have a recording user")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be greater than zero")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(method))
	}
	if len(reference) > 100 {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Payment reference cannot exceed 100 characters")
	}
	if paymentDate.IsZero() {
		paymentDate = shared.Now()
	}
	return &Payment{
		ID:            uuid.New(),
		BusinessID:    bill.BusinessID,
		BillID:        bill.ID,
		CustomerID:    *bill.CustomerID,
		UserID:        userID,
		Amount:        amount,
		PaymentDate:   paymentDate,
		PaymentMethod: method,
		Reference:     strings.TrimSpace(reference),
		Notes:         strings.TrimSpace(notes),
		CreatedAt:     shared.Now(),
	}, nil
}
