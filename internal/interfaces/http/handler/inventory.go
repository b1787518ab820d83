package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinv "github.com/retailcore/backend/internal/application/inventory"
)

// InventoryHandler exposes the stock ledger
type InventoryHandler struct {
	BaseHandler
	ledger *appinv.StockLedger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(ledger *appinv.StockLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// List returns the caller's visible shop inventory rows
// GET /inventory?shop_id=&product_id=&status=&in_stock=&page=&page_size=
func (h *InventoryHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appinv.ShopInventoryListFilter
	if !h.bindQuery(c, &filter) ||
		!h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &filter.ShopID, "product_id": &filter.ProductID}) {
		return
	}
	page, err := h.ledger.ListShopInventory(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get returns one shop inventory row
// GET /inventory/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.ledger.GetShopInventory(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inv)
}

// Restock adds units to a shop inventory row
// POST /inventory/:id/restock
func (h *InventoryHandler) Restock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.RestockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.Restock(c.Request.Context(), actor, id, req.Quantity, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinv.ToShopInventoryResponse(inv))
}

// UpdateThresholds replaces the min / max / reorder levels of a row
// PUT /inventory/:id/thresholds
func (h *InventoryHandler) UpdateThresholds(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.UpdateThresholdsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.UpdateThresholds(c.Request.Context(), actor, id, req.Thresholds())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinv.ToShopInventoryResponse(inv))
}

// Allocate moves units from the business pool to a shop
// POST /business-pool/allocate
func (h *InventoryHandler) Allocate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.PoolMoveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.AllocateFromBusinessPool(c.Request.Context(), actor, req.ProductID, req.ShopID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinv.ToShopInventoryResponse(inv))
}

// Reclaim moves units from a shop back to the business pool
// POST /business-pool/reclaim
func (h *InventoryHandler) Reclaim(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appinv.PoolMoveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.ledger.ReclaimToBusinessPool(c.Request.Context(), actor, req.ProductID, req.ShopID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinv.ToShopInventoryResponse(inv))
}

// Receive books delivered units into a product's business pool
// POST /products/:id/receive
func (h *InventoryHandler) Receive(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.ReceiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.ledger.ReceiveIntoBusinessPool(c.Request.Context(), actor, productID, req.Quantity, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appinv.ToProductPoolResponse(product))
}

// Movements lists the stock audit trail
// GET /stock-movements?shop_id=&product_id=&kind=
func (h *InventoryHandler) Movements(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appinv.MovementListFilter
	if !h.bindQuery(c, &filter) ||
		!h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &filter.ShopID, "product_id": &filter.ProductID}) {
		return
	}
	page, err := h.ledger.ListMovements(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
