package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/retailcore/backend/internal/application/billing"
)

// BillingHandler exposes bills, payments and customer balances
type BillingHandler struct {
	BaseHandler
	billing *appbilling.Service
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billing *appbilling.Service) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// CreateCredit issues a credit bill and reserves its stock
// POST /bills/credit
func (h *BillingHandler) CreateCredit(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appbilling.CreateCreditBillRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bill, err := h.billing.CreateCreditBill(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// CreateCash issues a paid-on-the-spot bill
// POST /bills/cash
func (h *BillingHandler) CreateCash(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appbilling.CreateCashBillRequest
	if !h.bindJSON(c, &req) {
		return
	}
	bill, err := h.billing.CreateCashBill(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// RecordPayment records a payment against a credit bill
// POST /bills/:id/payments
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	billID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appbilling.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	payment, err := h.billing.RecordPayment(c.Request.Context(), actor, billID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Recompute re-derives a bill's status from its payments
// POST /bills/:id/recompute
func (h *BillingHandler) Recompute(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	billID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bill, err := h.billing.RecomputeStatus(c.Request.Context(), actor, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Cancel cancels a credit bill and releases its reservations
// POST /bills/:id/cancel
func (h *BillingHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	billID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appbilling.CancelBillRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	bill, err := h.billing.CancelBill(c.Request.Context(), actor, billID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Get returns a bill with its items and paid amount
// GET /bills/:id
func (h *BillingHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	billID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	bill, err := h.billing.GetBill(c.Request.Context(), actor, billID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// List returns the bills visible to the caller
// GET /bills?shop_id=&customer_id=&status=&from=&to=
func (h *BillingHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appbilling.BillListFilter
	if !h.bindQuery(c, &filter) ||
		!h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &filter.ShopID, "customer_id": &filter.CustomerID}) {
		return
	}
	page, err := h.billing.ListBills(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// GetCustomer returns a customer with credit and paid totals
// GET /customers/:id
func (h *BillingHandler) GetCustomer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	customerID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.billing.GetCustomer(c.Request.Context(), actor, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
