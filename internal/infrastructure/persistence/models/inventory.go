package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
)

// ShopInventoryModel is the persistence model for the ShopInventory aggregate root.
type ShopInventoryModel struct {
	BusinessAggregateModel
	ShopID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_shop_inventory_shop_product,priority:1"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_shop_inventory_shop_product,priority:2;index"`
	Quantity        int64      `gorm:"not null;default:0;check:quantity >= 0"`
	MinStockLevel   int64      `gorm:"not null;default:10"`
	MaxStockLevel   int64      `gorm:"not null;default:100"`
	ReorderPoint    int64      `gorm:"not null;default:20"`
	LastRestockedAt *time.Time
	RestockNotes    string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShopInventoryModel) TableName() string {
	return "shop_inventories"
}

// ToDomain converts the persistence model to a domain ShopInventory.
func (m *ShopInventoryModel) ToDomain() *inventory.ShopInventory {
	return &inventory.ShopInventory{
		BusinessAggregateRoot: m.businessRoot(),
		ShopID:                m.ShopID,
		ProductID:             m.ProductID,
		Quantity:              m.Quantity,
		Thresholds: catalog.StockThresholds{
			MinStockLevel: m.MinStockLevel,
			MaxStockLevel: m.MaxStockLevel,
			ReorderPoint:  m.ReorderPoint,
		},
		LastRestockedAt: m.LastRestockedAt,
		RestockNotes:    m.RestockNotes,
	}
}

// FromDomain populates the persistence model from a domain ShopInventory.
func (m *ShopInventoryModel) FromDomain(s *inventory.ShopInventory) {
	m.setBusinessRoot(s.BusinessAggregateRoot)
	m.ShopID = s.ShopID
	m.ProductID = s.ProductID
	m.Quantity = s.Quantity
	m.MinStockLevel = s.Thresholds.MinStockLevel
	m.MaxStockLevel = s.Thresholds.MaxStockLevel
	m.ReorderPoint = s.Thresholds.ReorderPoint
	m.LastRestockedAt = s.LastRestockedAt
	m.RestockNotes = s.RestockNotes
}

// ShopInventoryModelFromDomain creates a persistence model from a domain ShopInventory.
func ShopInventoryModelFromDomain(s *inventory.ShopInventory) *ShopInventoryModel {
	m := &ShopInventoryModel{}
	m.FromDomain(s)
	return m
}

// StockMovementModel is the persistence model for the append-only StockMovement.
// ShopID is NULL for business pool movements.
type StockMovementModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	BusinessID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	ShopID         *uuid.UUID `gorm:"type:uuid;index"`
	Kind           string     `gorm:"type:varchar(20);not null;index"`
	Quantity       int64      `gorm:"not null"`
	QuantityBefore int64      `gorm:"not null"`
	QuantityAfter  int64      `gorm:"not null"`
	ReferenceType  string     `gorm:"type:varchar(20);not null;index:idx_stock_movement_reference,priority:1"`
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index:idx_stock_movement_reference,priority:2"`
	ActorID        *uuid.UUID `gorm:"type:uuid"`
	Notes          string     `gorm:"type:text"`
	CreatedAt      time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:             m.ID,
		BusinessID:     m.BusinessID,
		ProductID:      m.ProductID,
		ShopID:         m.ShopID,
		Kind:           inventory.MovementKind(m.Kind),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reference:      inventory.Reference{Type: m.ReferenceType, ID: m.ReferenceID},
		ActorID:        m.ActorID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:             s.ID,
		BusinessID:     s.BusinessID,
		ProductID:      s.ProductID,
		ShopID:         s.ShopID,
		Kind:           string(s.Kind),
		Quantity:       s.Quantity,
		QuantityBefore: s.QuantityBefore,
		QuantityAfter:  s.QuantityAfter,
		ReferenceType:  s.Reference.Type,
		ReferenceID:    s.Reference.ID,
		ActorID:        s.ActorID,
		Notes:          s.Notes,
		CreatedAt:      s.CreatedAt,
	}
}

// StockTransferModel is the persistence model for the StockTransfer aggregate root.
type StockTransferModel struct {
	BusinessAggregateModel
	ProductID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	FromShopID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	ToShopID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	Quantity           int64      `gorm:"not null;check:transfer_quantity_positive,quantity > 0"`
	Reason             string     `gorm:"type:varchar(500);not null"`
	Status             string     `gorm:"type:varchar(20);not null;default:'pending';index"`
	InitiatedBy        uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy         *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt         *time.Time
	DispatchedAt       *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (StockTransferModel) TableName() string {
	return "stock_transfers"
}

// ToDomain converts the persistence model to a domain StockTransfer.
func (m *StockTransferModel) ToDomain() *inventory.StockTransfer {
	return &inventory.StockTransfer{
		BusinessAggregateRoot: m.businessRoot(),
		ProductID:             m.ProductID,
		FromShopID:            m.FromShopID,
		ToShopID:              m.ToShopID,
		Quantity:              m.Quantity,
		Reason:                m.Reason,
		Status:                inventory.TransferStatus(m.Status),
		InitiatedBy:           m.InitiatedBy,
		ApprovedBy:            m.ApprovedBy,
		ApprovedAt:            m.ApprovedAt,
		DispatchedAt:          m.DispatchedAt,
		CompletedAt:           m.CompletedAt,
		CancelledAt:           m.CancelledAt,
		CancellationReason:    m.CancellationReason,
	}
}

// FromDomain populates the persistence model from a domain StockTransfer.
func (m *StockTransferModel) FromDomain(t *inventory.StockTransfer) {
	m.setBusinessRoot(t.BusinessAggregateRoot)
	m.ProductID = t.ProductID
	m.FromShopID = t.FromShopID
	m.ToShopID = t.ToShopID
	m.Quantity = t.Quantity
	m.Reason = t.Reason
	m.Status = string(t.Status)
	m.InitiatedBy = t.InitiatedBy
	m.ApprovedBy = t.ApprovedBy
	m.ApprovedAt = t.ApprovedAt
	m.DispatchedAt = t.DispatchedAt
	m.CompletedAt = t.CompletedAt
	m.CancelledAt = t.CancelledAt
	m.CancellationReason = t.CancellationReason
}

// StockTransferModelFromDomain creates a persistence model from a domain StockTransfer.
func StockTransferModelFromDomain(t *inventory.StockTransfer) *StockTransferModel {
	m := &StockTransferModel{}
	m.FromDomain(t)
	return m
}
