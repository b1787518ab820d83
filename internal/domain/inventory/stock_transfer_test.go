package inventory

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
)

const validReason = "Restocking the north branch"

type transferFixture struct {
	product  *catalog.Product
	fromShop *catalog.Shop
	toShop   *catalog.Shop
	userID   uuid.UUID
}

func newTransferFixture(t *testing.T) transferFixture {
	t.Helper()
	businessID := uuid.New()
	product, err := catalog.NewProduct(businessID, "Rice", "kg")
	require.NoError(t, err)
	from, err := catalog.NewShop(businessID, "Main", "")
	require.NoError(t, err)
	to, err := catalog.NewShop(businessID, "North", "")
	require.NoError(t, err)
	return transferFixture{product: product, fromShop: from, toShop: to, userID: uuid.New()}
}

func (f transferFixture) newPending(t *testing.T) *StockTransfer {
	t.Helper()
	tr, err := NewStockTransfer(f.product, f.fromShop, f.toShop, 10, validReason, f.userID, 10)
	require.NoError(t, err)
	return tr
}

func TestNewStockTransfer(t *testing.T) {
	f := newTransferFixture(t)

	t.Run("creates pending transfer with requested event", func(t *testing.T) {
		tr := f.newPending(t)
		assert.Equal(t, TransferStatusPending, tr.Status)
		assert.Equal(t, f.fromShop.BusinessID, tr.BusinessID)
		require.Len(t, tr.PendingDomainEvents(), 1)
		assert.Equal(t, EventTypeStockTransferRequested, tr.PendingDomainEvents()[0].EventType())
	})

	tests := []struct {
		name      string
		mutate    func(f *transferFixture)
		quantity  int64
		reason    string
		available int64
		wantCode  string
		wantKind  *shared.DomainError
	}{
		{name: "same shop", mutate: func(f *transferFixture) { f.toShop = f.fromShop }, quantity: 1, reason: validReason, available: 10, wantCode: "SAME_SHOP_TRANSFER"},
		{name: "other business", mutate: func(f *transferFixture) {
			s, _ := catalog.NewShop(uuid.New(), "Elsewhere", "")
			f.toShop = s
		}, quantity: 1, reason: validReason, available: 10, wantCode: "BUSINESS_MISMATCH"},
		{name: "zero quantity", quantity: 0, reason: validReason, available: 10, wantCode: "INVALID_QUANTITY"},
		{name: "empty reason", quantity: 1, reason: "   ", available: 10, wantCode: "EMPTY_REASON"},
		{name: "short reason", quantity: 1, reason: "too short", available: 10, wantCode: "INVALID_REASON"},
		{name: "long reason", quantity: 1, reason: strings.Repeat("x", 501), available: 10, wantCode: "INVALID_REASON"},
		{name: "source short", quantity: 11, reason: validReason, available: 10, wantKind: shared.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newTransferFixture(t)
			if tt.mutate != nil {
				tt.mutate(&fx)
			}
			_, err := NewStockTransfer(fx.product, fx.fromShop, fx.toShop, tt.quantity, tt.reason, fx.userID, tt.available)
			require.Error(t, err)
			if tt.wantKind != nil {
				assert.True(t, errors.Is(err, tt.wantKind))
				return
			}
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, shared.KindValidation, de.Kind)
		})
	}
}

func TestStockTransfer_Approve(t *testing.T) {
	f := newTransferFixture(t)
	approver := uuid.New()

	t.Run("approves with enough stock", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		assert.Equal(t, TransferStatusApproved, tr.Status)
		assert.Equal(t, &approver, tr.ApprovedBy)
		assert.NotNil(t, tr.ApprovedAt)
	})

	t.Run("fails with ApprovalFailed when stock was consumed", func(t *testing.T) {
		tr := f.newPending(t)
		err := tr.Approve(approver, 3)
		assert.True(t, errors.Is(err, shared.ErrApprovalFailed))
		assert.Equal(t, TransferStatusPending, tr.Status)
		assert.Nil(t, tr.ApprovedBy)
	})

	t.Run("fails with InvalidTransition when not pending", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		err := tr.Approve(approver, 10)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestStockTransfer_StateMachine(t *testing.T) {
	f := newTransferFixture(t)
	approver := uuid.New()

	t.Run("approved to completed", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		require.NoError(t, tr.Complete())
		assert.Equal(t, TransferStatusCompleted, tr.Status)
		assert.NotNil(t, tr.CompletedAt)
	})

	t.Run("in transit to completed", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		require.NoError(t, tr.Dispatch())
		assert.Equal(t, TransferStatusInTransit, tr.Status)
		require.NoError(t, tr.Complete())
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		tr := f.newPending(t)
		assert.True(t, errors.Is(tr.Complete(), shared.ErrInvalidTransition))
	})

	t.Run("reject uses default reason", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Reject(""))
		assert.Equal(t, TransferStatusRejected, tr.Status)
		assert.Equal(t, DefaultRejectionReason, tr.CancellationReason)
		assert.NotNil(t, tr.CancelledAt)
	})

	t.Run("reject only from pending", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		assert.True(t, errors.Is(tr.Reject("no"), shared.ErrInvalidTransition))
	})

	t.Run("cancel from pending and approved", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Cancel(""))
		assert.Equal(t, DefaultCancellationReason, tr.CancellationReason)

		tr = f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		require.NoError(t, tr.Cancel("Supplier delivered directly"))
		assert.Equal(t, TransferStatusCancelled, tr.Status)
	})

	t.Run("in transit cannot be cancelled", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Approve(approver, 10))
		require.NoError(t, tr.Dispatch())
		assert.True(t, errors.Is(tr.Cancel(""), shared.ErrInvalidTransition))
	})

	t.Run("terminal states accept nothing", func(t *testing.T) {
		tr := f.newPending(t)
		require.NoError(t, tr.Reject(""))
		assert.True(t, tr.Status.IsTerminal())
		for _, op := range []func() error{
			func() error { return tr.Approve(approver, 100) },
			tr.Dispatch,
			tr.Complete,
			func() error { return tr.Reject("") },
			func() error { return tr.Cancel("") },
		} {
			assert.True(t, errors.Is(op(), shared.ErrInvalidTransition))
		}
	})
}

func TestStockTransfer_CompletionFailed(t *testing.T) {
	f := newTransferFixture(t)
	tr := f.newPending(t)

	err := tr.CompletionFailed(shared.NewInsufficientStockError("Rice", 10, 0))
	assert.True(t, errors.Is(err, shared.ErrCompletionFailed))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, int64(10), de.Details["shortfall"])
}

func TestStockTransfer_Summary(t *testing.T) {
	f := newTransferFixture(t)
	tr := f.newPending(t)
	assert.Equal(t, "10 Rice from Main to North", tr.Summary("Rice", "Main", "North"))
	assert.True(t, tr.Involves(f.toShop.ID))
	assert.False(t, tr.Involves(uuid.New()))
	assert.True(t, tr.CanBeCancelledBy(f.userID, false))
	assert.False(t, tr.CanBeCancelledBy(uuid.New(), false))
}
