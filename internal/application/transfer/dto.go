package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/inventory"
)

// CreateTransferRequest is the body of a transfer request
type CreateTransferRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	FromShopID uuid.UUID `json:"from_shop_id" binding:"required"`
	ToShopID   uuid.UUID `json:"to_shop_id" binding:"required"`
	Quantity   int64     `json:"quantity" binding:"required,gt=0"`
	Reason     string    `json:"reason" binding:"required,max=500"`
}

// ReasonRequest carries an optional reason for reject / cancel
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// BulkApproveRequest lists transfers to approve
type BulkApproveRequest struct {
	TransferIDs []uuid.UUID `json:"transfer_ids" binding:"required,min=1,max=100"`
}

// BulkApproveResult counts the outcome of a bulk approval
type BulkApproveResult struct {
	Approved int                  `json:"approved"`
	Failed   int                  `json:"failed"`
	Errors   map[uuid.UUID]string `json:"errors,omitempty"`
}

// TransferListFilter represents filter options for transfer lists
type TransferListFilter struct {
	ShopID    *uuid.UUID `form:"-"`
	ProductID *uuid.UUID `form:"-"`
	Status    string     `form:"status" binding:"omitempty,oneof=pending approved in_transit completed cancelled rejected"`
	SinceDays int        `form:"since_days" binding:"omitempty,min=1,max=365"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID                 uuid.UUID                `json:"id"`
	BusinessID         uuid.UUID                `json:"business_id"`
	ProductID          uuid.UUID                `json:"product_id"`
	FromShopID         uuid.UUID                `json:"from_shop_id"`
	ToShopID           uuid.UUID                `json:"to_shop_id"`
	Quantity           int64                    `json:"quantity"`
	Reason             string                   `json:"reason"`
	Status             inventory.TransferStatus `json:"status"`
	Summary            string                   `json:"summary,omitempty"`
	InitiatedBy        uuid.UUID                `json:"initiated_by"`
	ApprovedBy         *uuid.UUID               `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time               `json:"approved_at,omitempty"`
	DispatchedAt       *time.Time               `json:"dispatched_at,omitempty"`
	CompletedAt        *time.Time               `json:"completed_at,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	CancellationReason string                   `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
	Version            int                      `json:"version"`
}

// ToTransferResponse converts a transfer into a response without a summary
func ToTransferResponse(t *inventory.StockTransfer) TransferResponse {
	return TransferResponse{
		ID:                 t.ID,
		BusinessID:         t.BusinessID,
		ProductID:          t.ProductID,
		FromShopID:         t.FromShopID,
		ToShopID:           t.ToShopID,
		Quantity:           t.Quantity,
		Reason:             t.Reason,
		Status:             t.Status,
		InitiatedBy:        t.InitiatedBy,
		ApprovedBy:         t.ApprovedBy,
		ApprovedAt:         t.ApprovedAt,
		DispatchedAt:       t.DispatchedAt,
		CompletedAt:        t.CompletedAt,
		CancelledAt:        t.CancelledAt,
		CancellationReason: t.CancellationReason,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
		Version:            t.Version,
	}
}
