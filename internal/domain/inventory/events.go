package inventory

import (
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStockTransfer = "StockTransfer"
	AggregateTypeShopInventory = "ShopInventory"
)

// Event type constants
const (
	EventTypeStockTransferRequested  = "StockTransferRequested"
	EventTypeStockTransferApproved   = "StockTransferApproved"
	EventTypeStockTransferDispatched = "StockTransferDispatched"
	EventTypeStockTransferCompleted  = "StockTransferCompleted"
	EventTypeStockTransferRejected   = "StockTransferRejected"
	EventTypeStockTransferCancelled  = "StockTransferCancelled"
	EventTypeStockBelowReorderPoint  = "StockBelowReorderPoint"
)

// StockTransferEvent is raised on every transfer state change
type StockTransferEvent struct {
	shared.BaseDomainEvent
	TransferID uuid.UUID      `json:"transfer_id"`
	ProductID  uuid.UUID      `json:"product_id"`
	FromShopID uuid.UUID      `json:"from_shop_id"`
	ToShopID   uuid.UUID      `json:"to_shop_id"`
	Quantity   int64          `json:"quantity"`
	Status     TransferStatus `json:"status"`
	Reason     string         `json:"reason,omitempty"`
}

func newStockTransferEvent(eventType string, t *StockTransfer, reason string) *StockTransferEvent {
	return &StockTransferEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeStockTransfer, t.ID, t.BusinessID),
		TransferID:      t.ID,
		ProductID:       t.ProductID,
		FromShopID:      t.FromShopID,
		ToShopID:        t.ToShopID,
		Quantity:        t.Quantity,
		Status:          t.Status,
		Reason:          reason,
	}
}

// NewStockTransferRequestedEvent creates the event for a new pending transfer
func NewStockTransferRequestedEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferRequested, t, t.Reason)
}

// NewStockTransferApprovedEvent creates the event for an approval
func NewStockTransferApprovedEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferApproved, t, "")
}

// NewStockTransferDispatchedEvent creates the event for a dispatch
func NewStockTransferDispatchedEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferDispatched, t, "")
}

// NewStockTransferCompletedEvent creates the event for a completion
func NewStockTransferCompletedEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferCompleted, t, "")
}

// NewStockTransferRejectedEvent creates the event for a rejection
func NewStockTransferRejectedEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferRejected, t, t.CancellationReason)
}

// NewStockTransferCancelledEvent creates the event for a cancellation
func NewStockTransferCancelledEvent(t *StockTransfer) *StockTransferEvent {
	return newStockTransferEvent(EventTypeStockTransferCancelled, t, t.CancellationReason)
}

// StockBelowReorderPointEvent is raised when a decrement leaves a shop at or below its reorder point
type StockBelowReorderPointEvent struct {
	shared.BaseDomainEvent
	ShopInventoryID uuid.UUID   `json:"shop_inventory_id"`
	ShopID          uuid.UUID   `json:"shop_id"`
	ProductID       uuid.UUID   `json:"product_id"`
	Quantity        int64       `json:"quantity"`
	ReorderPoint    int64       `json:"reorder_point"`
	Status          StockStatus `json:"status"`
}

// NewStockBelowReorderPointEvent creates the low stock event for inv
func NewStockBelowReorderPointEvent(inv *ShopInventory) *StockBelowReorderPointEvent {
	return &StockBelowReorderPointEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowReorderPoint, AggregateTypeShopInventory, inv.ID, inv.BusinessID),
		ShopInventoryID: inv.ID,
		ShopID:          inv.ShopID,
		ProductID:       inv.ProductID,
		Quantity:        inv.Quantity,
		ReorderPoint:    inv.Thresholds.ReorderPoint,
		Status:          inv.Status(),
	}
}
