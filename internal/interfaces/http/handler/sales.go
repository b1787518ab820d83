package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsales "github.com/retailcore/backend/internal/application/sales"
)

// SalesHandler exposes the sales ledger
type SalesHandler struct {
	BaseHandler
	sales *appsales.Service
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(sales *appsales.Service) *SalesHandler {
	return &SalesHandler{sales: sales}
}

// Create appends a sale record without moving stock
// POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appsales.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Direct sells from shop stock without a bill
// POST /sales/direct
func (h *SalesHandler) Direct(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appsales.DirectSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.RecordDirectSale(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Return restores the stock of a direct sale
// POST /sales/:id/return
func (h *SalesHandler) Return(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.ReturnDirectSale(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Get returns one sale
// GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	saleID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), actor, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List returns the sales visible to the caller
// GET /sales?shop_id=&product_id=&bill_id=&from=&to=
func (h *SalesHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appsales.SaleListFilter
	if !h.bindQuery(c, &filter) ||
		!h.queryIDs(c, map[string]**uuid.UUID{
			"shop_id":    &filter.ShopID,
			"product_id": &filter.ProductID,
			"bill_id":    &filter.BillID,
		}) {
		return
	}
	page, err := h.sales.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
