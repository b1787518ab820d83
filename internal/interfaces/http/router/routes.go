package router

import (
	"github.com/retailcore/backend/internal/interfaces/http/handler"
)

// Handlers bundles the API handlers mounted under /api/v1
type Handlers struct {
	Inventory *handler.InventoryHandler
	Transfer  *handler.TransferHandler
	Billing   *handler.BillingHandler
	Sales     *handler.SalesHandler
}

// Groups returns one route group per domain
func (h Handlers) Groups() []*DomainGroup {
	inventory := NewDomainGroup("inventory", "")
	inventory.GET("/inventory", h.Inventory.List).
		GET("/inventory/:id", h.Inventory.Get).
		POST("/inventory/:id/restock", h.Inventory.Restock).
		PUT("/inventory/:id/thresholds", h.Inventory.UpdateThresholds).
		POST("/business-pool/allocate", h.Inventory.Allocate).
		POST("/business-pool/reclaim", h.Inventory.Reclaim).
		POST("/products/:id/receive", h.Inventory.Receive).
		GET("/stock-movements", h.Inventory.Movements)

	transfers := NewDomainGroup("transfers", "/transfers")
	transfers.POST("", h.Transfer.Create).
		GET("", h.Transfer.List).
		GET("/pending", h.Transfer.ListPending).
		POST("/bulk-approve", h.Transfer.BulkApprove).
		GET("/:id", h.Transfer.Get).
		POST("/:id/approve", h.Transfer.Approve).
		POST("/:id/dispatch", h.Transfer.Dispatch).
		POST("/:id/complete", h.Transfer.Complete).
		POST("/:id/reject", h.Transfer.Reject).
		POST("/:id/cancel", h.Transfer.Cancel)

	bills := NewDomainGroup("billing", "")
	bills.POST("/bills/credit", h.Billing.CreateCredit).
		POST("/bills/cash", h.Billing.CreateCash).
		GET("/bills", h.Billing.List).
		GET("/bills/:id", h.Billing.Get).
		POST("/bills/:id/payments", h.Billing.RecordPayment).
		POST("/bills/:id/recompute", h.Billing.Recompute).
		POST("/bills/:id/cancel", h.Billing.Cancel).
		GET("/customers/:id", h.Billing.GetCustomer)

	sales := NewDomainGroup("sales", "/sales")
	sales.POST("", h.Sales.Create).
		POST("/direct", h.Sales.Direct).
		GET("", h.Sales.List).
		GET("/:id", h.Sales.Get).
		POST("/:id/return", h.Sales.Return)

	return []*DomainGroup{inventory, transfers, bills, sales}
}
