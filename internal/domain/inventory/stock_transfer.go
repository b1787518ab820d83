package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
)

// TransferStatus is the state of a stock transfer
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
	TransferStatusRejected  TransferStatus = "rejected"
)

// Transfer reason bounds and default reasons
const (
	MinTransferReasonLength = 10
	MaxTransferReasonLength = 500

	DefaultRejectionReason    = "No reason provided"
	DefaultCancellationReason = "Cancelled by user"
)

// IsValid checks if the status is a valid value
func (s TransferStatus) IsValid() bool {
	switch s {
	case TransferStatusPending, TransferStatusApproved, TransferStatusInTransit,
		TransferStatusCompleted, TransferStatusCancelled, TransferStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusCompleted || s == TransferStatusCancelled || s == TransferStatusRejected
}

// String returns the string representation of TransferStatus
func (s TransferStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s TransferStatus) CanTransitionTo(target TransferStatus) bool {
	switch s {
	case TransferStatusPending:
		return target == TransferStatusApproved || target == TransferStatusRejected || target == TransferStatusCancelled
	case TransferStatusApproved:
		return target == TransferStatusInTransit || target == TransferStatusCompleted || target == TransferStatusCancelled
	case TransferStatusInTransit:
		return target == TransferStatusCompleted
	}
	return false
}

// StockTransfer moves a quantity of one product between two shops of a business.
// Only completion touches inventory; approval re-checks stock without holding it.
type StockTransfer struct {
	shared.BusinessAggregateRoot
	ProductID          uuid.UUID
	FromShopID         uuid.UUID
	ToShopID           uuid.UUID
	Quantity           int64
	Reason             string
	Status             TransferStatus
	InitiatedBy        uuid.UUID
	ApprovedBy         *uuid.UUID
	ApprovedAt         *time.Time
	DispatchedAt       *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// NewStockTransfer validates and creates a pending transfer.
// available is the source shop's current quantity; the check is advisory and
// repeated at approval and completion.
func NewStockTransfer(
	product *catalog.Product,
	fromShop, toShop *catalog.Shop,
	quantity int64,
	reason string,
	initiatedBy uuid.UUID,
	available int64,
) (*StockTransfer, error) {
	if product == nil || fromShop == nil || toShop == nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Product, source shop and destination shop are required")
	}
	if fromShop.ID == toShop.ID {
		return nil, shared.NewDomainError("SAME_SHOP_TRANSFER", "Cannot transfer to the same shop")
	}
	if fromShop.BusinessID != toShop.BusinessID {
		return nil, shared.NewDomainError("BUSINESS_MISMATCH", "Both shops must belong to the same business")
	}
	if product.BusinessID != fromShop.BusinessID {
		return nil, shared.NewDomainError("BUSINESS_MISMATCH", "Product must belong to the same business as the shops")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if initiatedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INITIATOR", "Initiator is required")
	}
	reason, err := validateTransferReason(reason)
	if err != nil {
		return nil, err
	}
	if available < quantity {
		return nil, shared.NewInsufficientStockError(product.Name, quantity, available).
			WithDetail("shop_id", fromShop.ID.String())
	}

	t := &StockTransfer{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(fromShop.BusinessID),
		ProductID:             product.ID,
		FromShopID:            fromShop.ID,
		ToShopID:              toShop.ID,
		Quantity:              quantity,
		Reason:                reason,
		Status:                TransferStatusPending,
		InitiatedBy:           initiatedBy,
	}
	t.AddDomainEvent(NewStockTransferRequestedEvent(t))
	return t, nil
}

func validateTransferReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	n := utf8.RuneCountInString(reason)
	if n == 0 {
		return "", shared.NewDomainError("EMPTY_REASON", "Transfer reason is required")
	}
	if n < MinTransferReasonLength || n > MaxTransferReasonLength {
		return "", shared.NewDomainError("INVALID_REASON",
			fmt.Sprintf("Transfer reason must be between %d and %d characters", MinTransferReasonLength, MaxTransferReasonLength))
	}
	return reason, nil
}

// Approve moves a pending transfer to approved after re-checking source stock
func (t *StockTransfer) Approve(approverID uuid.UUID, available int64) error {
	if !t.Status.CanTransitionTo(TransferStatusApproved) {
		return t.transitionError("approve")
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver is required")
	}
	if available < t.Quantity {
		return shared.NewKindError(shared.KindApprovalFailed, "APPROVAL_FAILED",
			fmt.Sprintf("Insufficient stock in source shop. Available: %d, requested: %d", available, t.Quantity)).
			WithDetail("transfer_id", t.ID.String()).
			WithDetail("requested", t.Quantity).
			WithDetail("available", available).
			WithDetail("shortfall", t.Quantity-available)
	}

	now := shared.Now()
	t.Status = TransferStatusApproved
	t.ApprovedBy = &approverID
	t.ApprovedAt = &now
	t.touch(now)

	t.AddDomainEvent(NewStockTransferApprovedEvent(t))
	return nil
}

// Dispatch marks an approved transfer as physically on its way
func (t *StockTransfer) Dispatch() error {
	if !t.Status.CanTransitionTo(TransferStatusInTransit) {
		return t.transitionError("dispatch")
	}
	now := shared.Now()
	t.Status = TransferStatusInTransit
	t.DispatchedAt = &now
	t.touch(now)

	t.AddDomainEvent(NewStockTransferDispatchedEvent(t))
	return nil
}

// CanComplete reports whether completion is allowed from the current state
func (t *StockTransfer) CanComplete() bool {
	return t.Status.CanTransitionTo(TransferStatusCompleted)
}

// Complete marks the transfer completed. The caller must have moved the
// stock in the same unit of work before calling this.
func (t *StockTransfer) Complete() error {
	if !t.CanComplete() {
		return t.transitionError("complete")
	}
	now := shared.Now()
	t.Status = TransferStatusCompleted
	t.CompletedAt = &now
	t.touch(now)

	t.AddDomainEvent(NewStockTransferCompletedEvent(t))
	return nil
}

// Reject closes a pending transfer without moving stock
func (t *StockTransfer) Reject(reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusRejected) {
		return t.transitionError("reject")
	}
	reason = defaultReason(reason, DefaultRejectionReason)
	if len(reason) > MaxTransferReasonLength {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason cannot exceed 500 characters")
	}
	now := shared.Now()
	t.Status = TransferStatusRejected
	t.CancellationReason = reason
	t.CancelledAt = &now
	t.touch(now)

	t.AddDomainEvent(NewStockTransferRejectedEvent(t))
	return nil
}

// Cancel closes a pending or approved transfer without moving stock
func (t *StockTransfer) Cancel(reason string) error {
	if !t.Status.CanTransitionTo(TransferStatusCancelled) {
		return t.transitionError("cancel")
	}
	reason = defaultReason(reason, DefaultCancellationReason)
	if len(reason) > MaxTransferReasonLength {
		return shared.NewDomainError("INVALID_REASON", "Cancellation reason cannot exceed 500 characters")
	}
	now := shared.Now()
	t.Status = TransferStatusCancelled
	t.CancellationReason = reason
	t.CancelledAt = &now
	t.touch(now)

	t.AddDomainEvent(NewStockTransferCancelledEvent(t))
	return nil
}

// CanBeCancelledBy reports whether userID may cancel: the initiator always
// may, anyone else needs the approving capability (checked by the caller).
func (t *StockTransfer) CanBeCancelledBy(userID uuid.UUID, canApprove bool) bool {
	return userID == t.InitiatedBy || canApprove
}

// Involves reports whether shopID is the source or destination
func (t *StockTransfer) Involves(shopID uuid.UUID) bool {
	return t.FromShopID == shopID || t.ToShopID == shopID
}

// Summary renders a one-line description such as "10 Rice from Main to North"
func (t *StockTransfer) Summary(productName, fromShopName, toShopName string) string {
	return fmt.Sprintf("%d %s from %s to %s", t.Quantity, productName, fromShopName, toShopName)
}

// CompletionFailed wraps a stock shortfall hit while completing the transfer
func (t *StockTransfer) CompletionFailed(cause error) error {
	de := shared.NewKindError(shared.KindCompletionFailed, "COMPLETION_FAILED",
		"Transfer could not be completed: "+cause.Error()).
		WithDetail("transfer_id", t.ID.String()).
		WithDetail("status", string(t.Status))
	var src *shared.DomainError
	if errors.As(cause, &src) {
		for _, k := range []string{"requested", "available", "shortfall"} {
			if v, found := src.Details[k]; found {
				de = de.WithDetail(k, v)
			}
		}
	}
	return de
}

func (t *StockTransfer) transitionError(operation string) error {
	return shared.NewInvalidTransitionError("transfer", string(t.Status), operation).
		WithDetail("transfer_id", t.ID.String())
}

func (t *StockTransfer) touch(now time.Time) {
	t.UpdatedAt = now
	t.Version++
}

func defaultReason(reason, fallback string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return fallback
	}
	return reason
}
