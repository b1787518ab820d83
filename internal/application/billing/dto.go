package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/billing"
)

// BillItemInput is one requested bill line. A missing unit price means the
// product's selling price.
type BillItemInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreateCreditBillRequest is the body of a credit bill
type CreateCreditBillRequest struct {
	ShopID     uuid.UUID       `json:"shop_id" binding:"required"`
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	Items      []BillItemInput `json:"items" binding:"required,min=1,dive"`
	BillDate   *time.Time      `json:"bill_date"`
	DueDate    *time.Time      `json:"due_date"`
	Notes      string          `json:"notes" binding:"max=1000"`
}

// CreateCashBillRequest is the body of a cash bill
type CreateCashBillRequest struct {
	ShopID   uuid.UUID       `json:"shop_id" binding:"required"`
	Items    []BillItemInput `json:"items" binding:"required,min=1,dive"`
	BillDate *time.Time      `json:"bill_date"`
	Notes    string          `json:"notes" binding:"max=1000"`
}

// RecordPaymentRequest is the body of a payment
type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=cash card bank_transfer mobile_wallet cheque"`
	PaymentDate   *time.Time      `json:"payment_date"`
	Reference     string          `json:"reference" binding:"max=100"`
	Notes         string          `json:"notes" binding:"max=1000"`
}

// CancelBillRequest is the body of a cancellation
type CancelBillRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// BillListFilter represents filter options for bill lists
type BillListFilter struct {
	ShopID     *uuid.UUID `form:"-"`
	CustomerID *uuid.UUID `form:"-"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending partial paid cancelled cash"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// BillItemResponse represents a bill line
type BillItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	LineNumber  int             `json:"line_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID                 uuid.UUID          `json:"id"`
	BusinessID         uuid.UUID          `json:"business_id"`
	BillNumber         string             `json:"bill_number"`
	ShopID             uuid.UUID          `json:"shop_id"`
	UserID             uuid.UUID          `json:"user_id"`
	CustomerID         *uuid.UUID         `json:"customer_id,omitempty"`
	BillType           billing.BillType   `json:"bill_type"`
	Status             billing.BillStatus `json:"status"`
	TotalAmount        decimal.Decimal    `json:"total_amount"`
	PaidAmount         decimal.Decimal    `json:"paid_amount"`
	OutstandingAmount  decimal.Decimal    `json:"outstanding_amount"`
	BillDate           time.Time          `json:"bill_date"`
	DueDate            *time.Time         `json:"due_date,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	PaidAt             *time.Time         `json:"paid_at,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	Items              []BillItemResponse `json:"items,omitempty"`
	Version            int                `json:"version"`
}

// ToBillResponse converts a bill and the amount paid on it into a response
func ToBillResponse(b *billing.Bill, paid decimal.Decimal) BillResponse {
	items := make([]BillItemResponse, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, BillItemResponse{
			ID:          it.ID,
			LineNumber:  it.LineNumber,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	if b.Status == billing.BillStatusCash {
		paid = b.TotalAmount
	}
	return BillResponse{
		ID:                 b.ID,
		BusinessID:         b.BusinessID,
		BillNumber:         b.BillNumber,
		ShopID:             b.ShopID,
		UserID:             b.UserID,
		CustomerID:         b.CustomerID,
		BillType:           b.BillType,
		Status:             b.Status,
		TotalAmount:        b.TotalAmount,
		PaidAmount:         paid,
		OutstandingAmount:  b.OutstandingAmount(paid),
		BillDate:           b.BillDate,
		DueDate:            b.DueDate,
		Notes:              b.Notes,
		PaidAt:             b.PaidAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		Items:              items,
		Version:            b.Version,
	}
}

// PaymentResponse represents a recorded payment and the bill after it
type PaymentResponse struct {
	ID            uuid.UUID             `json:"id"`
	BillID        uuid.UUID             `json:"bill_id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentMethod billing.PaymentMethod `json:"payment_method"`
	PaymentDate   time.Time             `json:"payment_date"`
	Reference     string                `json:"reference,omitempty"`
	Bill          BillResponse          `json:"bill"`
}

// CustomerResponse represents a customer's balance
type CustomerResponse struct {
	ID                uuid.UUID                     `json:"id"`
	ShopID            uuid.UUID                     `json:"shop_id"`
	Name              string                        `json:"name"`
	Phone             string                        `json:"phone,omitempty"`
	Email             string                        `json:"email,omitempty"`
	TotalCredit       decimal.Decimal               `json:"total_credit"`
	TotalPaid         decimal.Decimal               `json:"total_paid"`
	OutstandingAmount decimal.Decimal               `json:"outstanding_amount"`
	PaymentStatus     billing.CustomerPaymentStatus `json:"payment_status"`
	HasOutstanding    bool                          `json:"has_outstanding"`
}

// ToCustomerResponse converts a customer into a response
func ToCustomerResponse(c *billing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                c.ID,
		ShopID:            c.ShopID,
		Name:              c.Name,
		Phone:             c.Phone,
		Email:             c.Email,
		TotalCredit:       c.TotalCredit,
		TotalPaid:         c.TotalPaid,
		OutstandingAmount: c.OutstandingAmount(),
		PaymentStatus:     c.PaymentStatus(),
		HasOutstanding:    c.HasOutstanding(),
	}
}
