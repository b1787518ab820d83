package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/sales"
)

// CreateSaleRequest appends a sale without touching stock
type CreateSaleRequest struct {
	ShopID     uuid.UUID       `json:"shop_id" binding:"required"`
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price" binding:"required"`
	SaleDate   *time.Time      `json:"sale_date"`
	BillID     *uuid.UUID      `json:"bill_id"`
	BillItemID *uuid.UUID      `json:"bill_item_id"`
}

// DirectSaleRequest sells from a shop's stock without a bill.
// A missing unit price means the product's selling price.
type DirectSaleRequest struct {
	ShopID    uuid.UUID        `json:"shop_id" binding:"required"`
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// SaleListFilter represents filter options for sale lists
type SaleListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	BillID    *uuid.UUID `form:"-"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID          uuid.UUID       `json:"id"`
	BusinessID  uuid.UUID       `json:"business_id"`
	ShopID      uuid.UUID       `json:"shop_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	UserID      uuid.UUID       `json:"user_id"`
	BillID      *uuid.UUID      `json:"bill_id,omitempty"`
	BillItemID  *uuid.UUID      `json:"bill_item_id,omitempty"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SaleDate    time.Time       `json:"sale_date"`
}

// ToSaleResponse converts a sale into a response
func ToSaleResponse(s *sales.Sale) SaleResponse {
	return SaleResponse{
		ID:          s.ID,
		BusinessID:  s.BusinessID,
		ShopID:      s.ShopID,
		ProductID:   s.ProductID,
		UserID:      s.UserID,
		BillID:      s.BillID,
		BillItemID:  s.BillItemID,
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		TotalAmount: s.TotalAmount,
		SaleDate:    s.SaleDate,
	}
}
