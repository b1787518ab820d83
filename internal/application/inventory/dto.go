package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// ShopInventoryResponse represents a shop inventory row in API responses
type ShopInventoryResponse struct {
	ID              uuid.UUID             `json:"id"`
	BusinessID      uuid.UUID             `json:"business_id"`
	ShopID          uuid.UUID             `json:"shop_id"`
	ProductID       uuid.UUID             `json:"product_id"`
	Quantity        int64                 `json:"quantity"`
	MinStockLevel   int64                 `json:"min_stock_level"`
	MaxStockLevel   int64                 `json:"max_stock_level"`
	ReorderPoint    int64                 `json:"reorder_point"`
	Status          inventory.StockStatus `json:"status"`
	StockPercentage float64               `json:"stock_percentage"`
	LastRestockedAt *time.Time            `json:"last_restocked_at,omitempty"`
	RestockNotes    string                `json:"restock_notes,omitempty"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Version         int                   `json:"version"`
}

// ToShopInventoryResponse converts a domain row into a response
func ToShopInventoryResponse(inv *inventory.ShopInventory) ShopInventoryResponse {
	return ShopInventoryResponse{
		ID:              inv.ID,
		BusinessID:      inv.BusinessID,
		ShopID:          inv.ShopID,
		ProductID:       inv.ProductID,
		Quantity:        inv.Quantity,
		MinStockLevel:   inv.Thresholds.MinStockLevel,
		MaxStockLevel:   inv.Thresholds.MaxStockLevel,
		ReorderPoint:    inv.Thresholds.ReorderPoint,
		Status:          inv.Status(),
		StockPercentage: inv.StockPercentage(),
		LastRestockedAt: inv.LastRestockedAt,
		RestockNotes:    inv.RestockNotes,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

// ProductPoolResponse reports a product's unassigned pool
type ProductPoolResponse struct {
	ProductID                 uuid.UUID `json:"product_id"`
	Name                      string    `json:"name"`
	BusinessInventoryQuantity int64     `json:"business_inventory_quantity"`
}

// ToProductPoolResponse converts a product into a pool response
func ToProductPoolResponse(p *catalog.Product) ProductPoolResponse {
	return ProductPoolResponse{
		ProductID:                 p.ID,
		Name:                      p.Name,
		BusinessInventoryQuantity: p.BusinessInventoryQuantity,
	}
}

// StockMovementResponse represents an audit row
type StockMovementResponse struct {
	ID             uuid.UUID              `json:"id"`
	ProductID      uuid.UUID              `json:"product_id"`
	ShopID         *uuid.UUID             `json:"shop_id,omitempty"`
	Kind           inventory.MovementKind `json:"kind"`
	Quantity       int64                  `json:"quantity"`
	QuantityBefore int64                  `json:"quantity_before"`
	QuantityAfter  int64                  `json:"quantity_after"`
	ReferenceType  string                 `json:"reference_type"`
	ReferenceID    *uuid.UUID             `json:"reference_id,omitempty"`
	ActorID        *uuid.UUID             `json:"actor_id,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ToStockMovementResponse converts a movement into a response
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ShopID:         m.ShopID,
		Kind:           m.Kind,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceType:  m.Reference.Type,
		ReferenceID:    m.Reference.ID,
		ActorID:        m.ActorID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// ShopInventoryListFilter represents filter options for the shop inventory list
type ShopInventoryListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	Status    string     `form:"status" binding:"omitempty,oneof=out_of_stock low_stock overstocked adequate"`
	InStock   bool       `form:"in_stock"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy   string     `form:"order_by" binding:"omitempty,oneof=quantity updated_at created_at"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ShopInventoryListFilter) toDomain(businessID uuid.UUID) inventory.ShopInventoryFilter {
	return inventory.ShopInventoryFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		}.Normalize(),
		BusinessID: businessID,
		ShopID:     f.ShopID,
		ProductID:  f.ProductID,
		Status:     inventory.StockStatus(f.Status),
		OnlyStock:  f.InStock,
	}
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	Kind      string     `form:"kind"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// RestockRequest is the body of a restock call
type RestockRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Notes    string `json:"notes" binding:"max=1000"`
}

// PoolMoveRequest is the body of allocate / reclaim calls
type PoolMoveRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	ShopID    uuid.UUID `json:"shop_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

// ReceiveRequest is the body of a business pool receipt
type ReceiveRequest struct {
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
	Notes    string `json:"notes" binding:"max=1000"`
}

// UpdateThresholdsRequest is the body of a threshold update
type UpdateThresholdsRequest struct {
	MinStockLevel int64 `json:"min_stock_level" binding:"min=0"`
	MaxStockLevel int64 `json:"max_stock_level" binding:"min=0"`
	ReorderPoint  int64 `json:"reorder_point" binding:"min=0"`
}

// Thresholds converts the request to domain thresholds
func (r UpdateThresholdsRequest) Thresholds() catalog.StockThresholds {
	return catalog.StockThresholds{
		MinStockLevel: r.MinStockLevel,
		MaxStockLevel: r.MaxStockLevel,
		ReorderPoint:  r.ReorderPoint,
	}
}
