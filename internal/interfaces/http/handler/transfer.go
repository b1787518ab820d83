package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apptransfer "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/shared"
)

// TransferHandler exposes the shop-to-shop transfer workflow
type TransferHandler struct {
	BaseHandler
	transfers *apptransfer.Service
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transfers *apptransfer.Service) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Create opens a pending transfer request
// POST /transfers
func (h *TransferHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apptransfer.CreateTransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	t, err := h.transfers.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

type transition func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*apptransfer.TransferResponse, error)

func (h *TransferHandler) transition(c *gin.Context, apply transition) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	t, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Approve approves a pending transfer
// POST /transfers/:id/approve
func (h *TransferHandler) Approve(c *gin.Context) {
	h.transition(c, h.transfers.Approve)
}

// Dispatch marks an approved transfer as in transit
// POST /transfers/:id/dispatch
func (h *TransferHandler) Dispatch(c *gin.Context) {
	h.transition(c, h.transfers.Dispatch)
}

// Complete moves the stock and closes the transfer
// POST /transfers/:id/complete
func (h *TransferHandler) Complete(c *gin.Context) {
	h.transition(c, h.transfers.Complete)
}

// Reject rejects a pending transfer
// POST /transfers/:id/reject
func (h *TransferHandler) Reject(c *gin.Context) {
	h.withReason(c, h.transfers.Reject)
}

// Cancel cancels a transfer that has not completed
// POST /transfers/:id/cancel
func (h *TransferHandler) Cancel(c *gin.Context) {
	h.withReason(c, h.transfers.Cancel)
}

func (h *TransferHandler) withReason(c *gin.Context, apply func(context.Context, identity.Actor, uuid.UUID, string) (*apptransfer.TransferResponse, error)) {
	var req apptransfer.ReasonRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*apptransfer.TransferResponse, error) {
		return apply(ctx, actor, id, req.Reason)
	})
}

// BulkApprove approves several pending transfers, each on its own
// POST /transfers/bulk-approve
func (h *TransferHandler) BulkApprove(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apptransfer.BulkApproveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.transfers.BulkApprove(c.Request.Context(), actor, req.TransferIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get returns a transfer with its summary line
// GET /transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	h.transition(c, h.transfers.Get)
}

// List returns the transfers visible to the caller
// GET /transfers?shop_id=&product_id=&status=&since_days=
func (h *TransferHandler) List(c *gin.Context) {
	h.list(c, h.transfers.List)
}

// ListPending returns pending transfers awaiting approval
// GET /transfers/pending
func (h *TransferHandler) ListPending(c *gin.Context) {
	h.list(c, h.transfers.ListPending)
}

func (h *TransferHandler) list(c *gin.Context, query func(context.Context, identity.Actor, apptransfer.TransferListFilter) (shared.Paginated[apptransfer.TransferResponse], error)) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter apptransfer.TransferListFilter
	if !h.bindQuery(c, &filter) ||
		!h.queryIDs(c, map[string]**uuid.UUID{"shop_id": &filter.ShopID, "product_id": &filter.ProductID}) {
		return
	}
	page, err := query(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
