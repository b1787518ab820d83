package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/catalog"
)

// BusinessModel is the persistence model for the Business aggregate root.
type BusinessModel struct {
	AggregateModel
	Name    string    `gorm:"type:varchar(200);not null"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (BusinessModel) TableName() string {
	return "businesses"
}

// ToDomain converts the persistence model to a domain Business.
func (m *BusinessModel) ToDomain() *catalog.Business {
	return &catalog.Business{
		BaseAggregateRoot: m.root(),
		Name:              m.Name,
		OwnerID:           m.OwnerID,
	}
}

// BusinessModelFromDomain creates a persistence model from a domain Business.
func BusinessModelFromDomain(b *catalog.Business) *BusinessModel {
	m := &BusinessModel{Name: b.Name, OwnerID: b.OwnerID}
	m.setRoot(b.BaseAggregateRoot)
	return m
}

// ShopModel is the persistence model for the Shop aggregate root.
type ShopModel struct {
	BusinessAggregateModel
	Name    string `gorm:"type:varchar(200);not null"`
	Address string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop.
func (m *ShopModel) ToDomain() *catalog.Shop {
	return &catalog.Shop{
		BusinessAggregateRoot: m.businessRoot(),
		Name:                  m.Name,
		Address:               m.Address,
	}
}

// ShopModelFromDomain creates a persistence model from a domain Shop.
func ShopModelFromDomain(s *catalog.Shop) *ShopModel {
	m := &ShopModel{Name: s.Name, Address: s.Address}
	m.setBusinessRoot(s.BusinessAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product aggregate root.
// BusinessInventoryQuantity is the unassigned pool and is only changed by
// conditional UPDATE statements in the repository.
type ProductModel struct {
	BusinessAggregateModel
	Name                      string          `gorm:"type:varchar(200);not null"`
	SKU                       string          `gorm:"column:sku;type:varchar(64);index"`
	Unit                      string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	BuyingPrice               decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	SellingPrice              decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	BusinessInventoryQuantity int64           `gorm:"not null;default:0;check:business_inventory_quantity >= 0"`
	MinStockLevel             int64           `gorm:"not null;default:10"`
	MaxStockLevel             int64           `gorm:"not null;default:100"`
	ReorderPoint              int64           `gorm:"not null;default:20"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BusinessAggregateRoot:     m.businessRoot(),
		Name:                      m.Name,
		SKU:                       m.SKU,
		Unit:                      m.Unit,
		BuyingPrice:               m.BuyingPrice,
		SellingPrice:              m.SellingPrice,
		BusinessInventoryQuantity: m.BusinessInventoryQuantity,
		Thresholds: catalog.StockThresholds{
			MinStockLevel: m.MinStockLevel,
			MaxStockLevel: m.MaxStockLevel,
			ReorderPoint:  m.ReorderPoint,
		},
	}
}

// FromDomain populates the persistence model from a domain Product.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.setBusinessRoot(p.BusinessAggregateRoot)
	m.Name = p.Name
	m.SKU = p.SKU
	m.Unit = p.Unit
	m.BuyingPrice = p.BuyingPrice
	m.SellingPrice = p.SellingPrice
	m.BusinessInventoryQuantity = p.BusinessInventoryQuantity
	m.MinStockLevel = p.Thresholds.MinStockLevel
	m.MaxStockLevel = p.Thresholds.MaxStockLevel
	m.ReorderPoint = p.Thresholds.ReorderPoint
}

// ProductModelFromDomain creates a persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
