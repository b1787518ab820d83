package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// CustomerPaymentStatus summarises a customer's balance
type CustomerPaymentStatus string

const (
	CustomerPaymentClear   CustomerPaymentStatus = "clear"
	CustomerPaymentPartial CustomerPaymentStatus = "partial"
	CustomerPaymentUnpaid  CustomerPaymentStatus = "unpaid"
)

// Customer buys on credit from a shop. TotalCredit and TotalPaid are
// recomputed from bill and payment history, never incremented.
type Customer struct {
	shared.BusinessAggregateRoot
	ShopID      uuid.UUID
	Name        string
	Phone       string
	Email       string
	TotalCredit decimal.Decimal
	TotalPaid   decimal.Decimal
}

// NewCustomer creates a customer with zero balances
func NewCustomer(businessID, shopID uuid.UUID, name, phone, email string) (*Customer, error) {
	if businessID == uuid.Nil || shopID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SHOP", "Customer must belong to a shop")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return &Customer{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(businessID),
		ShopID:                shopID,
		Name:                  name,
		Phone:                 strings.TrimSpace(phone),
		Email:                 strings.ToLower(strings.TrimSpace(email)),
		TotalCredit:           decimal.Zero,
		TotalPaid:             decimal.Zero,
	}, nil
}

// OutstandingAmount returns TotalCredit - TotalPaid
func (c *Customer) OutstandingAmount() decimal.Decimal {
	return c.TotalCredit.Sub(c.TotalPaid)
}

// HasOutstanding reports whether the customer owes anything
func (c *Customer) HasOutstanding() bool {
	return c.OutstandingAmount().IsPositive()
}

// PaymentStatus summarises the balance
func (c *Customer) PaymentStatus() CustomerPaymentStatus {
	switch {
	case !c.HasOutstanding():
		return CustomerPaymentClear
	case c.TotalPaid.IsPositive():
		return CustomerPaymentPartial
	default:
		return CustomerPaymentUnpaid
	}
}

// RefreshTotals replaces the aggregates with freshly summed history
func (c *Customer) RefreshTotals(totalCredit, totalPaid decimal.Decimal) error {
	if totalCredit.IsNegative() || totalPaid.IsNegative() {
		return shared.NewDomainError("INVALID_TOTALS", "Customer totals cannot be negative")
	}
	c.TotalCredit = totalCredit
	c.TotalPaid = totalPaid
	c.UpdatedAt = shared.Now()
	return nil
}
