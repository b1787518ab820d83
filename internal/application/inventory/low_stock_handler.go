package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// StockAlertNotifier delivers low stock alerts. Implementations can support
// different channels (in-app, email, SMS).
type StockAlertNotifier interface {
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert is a low stock notification
type StockAlert struct {
	BusinessID      string `json:"business_id"`
	ShopInventoryID string `json:"shop_inventory_id"`
	ShopID          string `json:"shop_id"`
	ProductID       string `json:"product_id"`
	Quantity        int64  `json:"quantity"`
	ReorderPoint    int64  `json:"reorder_point"`
	AlertType       string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// LowStockHandler reacts to StockBelowReorderPoint events
type LowStockHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithNotifier sets the notifier for sending alerts
func (h *LowStockHandler) WithNotifier(notifier StockAlertNotifier) *LowStockHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowReorderPoint}
}

// Handle processes a StockBelowReorderPointEvent
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockBelowReorderPointEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowReorderPoint, event.EventType())
	}

	alertType := "low_stock"
	if e.Quantity == 0 {
		alertType = "out_of_stock"
	}
	alert := StockAlert{
		BusinessID:      event.BusinessID().String(),
		ShopInventoryID: e.ShopInventoryID.String(),
		ShopID:          e.ShopID.String(),
		ProductID:       e.ProductID.String(),
		Quantity:        e.Quantity,
		ReorderPoint:    e.ReorderPoint,
		AlertType:       alertType,
	}

	h.logger.Warn("stock at or below reorder point",
		zap.String("shop_id", alert.ShopID),
		zap.String("product_id", alert.ProductID),
		zap.Int64("quantity", alert.Quantity),
		zap.Int64("reorder_point", alert.ReorderPoint),
		zap.String("alert_type", alertType),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			// notification failure never fails event handling
			h.logger.Error("failed to send stock alert", zap.String("shop_inventory_id", alert.ShopInventoryID), zap.Error(err))
		}
	}
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{logger: logger}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("product_id", alert.ProductID),
		zap.String("shop_id", alert.ShopID),
		zap.Int64("quantity", alert.Quantity),
	)
	return nil
}
