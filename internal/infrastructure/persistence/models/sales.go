package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the append-only Sale.
// The unique index on bill_item_id backs exactly-once emission per bill line.
type SaleModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	BusinessID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShopID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_sale_shop_date,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null"`
	BillID      *uuid.UUID      `gorm:"type:uuid;index"`
	BillItemID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
	Quantity    int64           `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	SaleDate    time.Time       `gorm:"not null;index:idx_sale_shop_date,priority:2"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	return &sales.Sale{
		ID:          m.ID,
		BusinessID:  m.BusinessID,
		ShopID:      m.ShopID,
		ProductID:   m.ProductID,
		UserID:      m.UserID,
		BillID:      m.BillID,
		BillItemID:  m.BillItemID,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalAmount: m.TotalAmount,
		SaleDate:    m.SaleDate,
		CreatedAt:   m.CreatedAt,
	}
}

// SaleModelFromDomain creates a persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	return &SaleModel{
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
		CreatedAt:   s.CreatedAt,
	}
}

// All returns every model in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&BusinessModel{},
		&ShopModel{},
		&ProductModel{},
		&ShopInventoryModel{},
		&StockMovementModel{},
		&StockTransferModel{},
		&CustomerModel{},
		&BillModel{},
		&BillItemModel{},
		&PaymentModel{},
		&SaleModel{},
	}
}
