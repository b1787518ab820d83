package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
)

func testHeader() BillHeader {
	return BillHeader{
		BusinessID: uuid.New(),
		ShopID:     uuid.New(),
		UserID:     uuid.New(),
		BillNumber: "MA240101120000123",
		BillDate:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func line(qty int64, price string) BillLine {
	return BillLine{ProductID: uuid.New(), ProductName: "Rice", Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func newCreditBill(t *testing.T, lines ...BillLine) *Bill {
	t.Helper()
	b, err := NewCreditBill(testHeader(), uuid.New(), lines)
	require.NoError(t, err)
	return b
}

func TestDeriveBillStatus(t *testing.T) {
	total := decimal.RequireFromString("100.00")
	tests := []struct {
		paid string
		want BillStatus
	}{
		{"0", BillStatusPending},
		{"0.01", BillStatusPartial},
		{"99.99", BillStatusPartial},
		{"100.00", BillStatusPaid},
		{"100.01", BillStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.paid, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveBillStatus(total, decimal.RequireFromString(tt.paid)))
		})
	}
}

func TestNewCreditBill(t *testing.T) {
	t.Run("totals lines and starts pending", func(t *testing.T) {
		b := newCreditBill(t, line(2, "10.50"), line(3, "1.10"))
		assert.Equal(t, BillStatusPending, b.Status)
		assert.Equal(t, BillTypeCredit, b.BillType)
		assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("24.30")))
		require.Len(t, b.Items, 2)
		assert.Equal(t, 1, b.Items[0].LineNumber)
		assert.True(t, b.Items[0].TotalPrice.Equal(decimal.RequireFromString("21.00")))
		require.Len(t, b.PendingDomainEvents(), 1)
		assert.Equal(t, EventTypeBillCreated, b.PendingDomainEvents()[0].EventType())
	})

	t.Run("requires a customer", func(t *testing.T) {
		_, err := NewCreditBill(testHeader(), uuid.Nil, []BillLine{line(1, "1")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects empty bill", func(t *testing.T) {
		_, err := NewCreditBill(testHeader(), uuid.New(), nil)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "EMPTY_BILL", de.Code)
	})

	t.Run("rejects zero quantity line", func(t *testing.T) {
		_, err := NewCreditBill(testHeader(), uuid.New(), []BillLine{line(0, "1")})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_QUANTITY", de.Code)
		assert.Equal(t, 1, de.Details["line"])
	})

	t.Run("rejects due date before bill date", func(t *testing.T) {
		h := testHeader()
		due := h.BillDate.AddDate(0, 0, -1)
		h.DueDate = &due
		_, err := NewCreditBill(h, uuid.New(), []BillLine{line(1, "1")})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_DUE_DATE", de.Code)
	})
}

func TestNewCashBill(t *testing.T) {
	b, err := NewCashBill(testHeader(), []BillLine{line(1, "5.00")})
	require.NoError(t, err)
	assert.Equal(t, BillStatusCash, b.Status)
	assert.Nil(t, b.CustomerID)
	require.NotNil(t, b.PaidAt)
	assert.True(t, b.OutstandingAmount(decimal.Zero).IsZero())
}

func TestBill_ValidatePayment(t *testing.T) {
	b := newCreditBill(t, line(1, "100.00"))
	paid := decimal.RequireFromString("40.00")

	require.NoError(t, b.ValidatePayment(decimal.RequireFromString("60.00"), paid))

	err := b.ValidatePayment(decimal.RequireFromString("60.01"), paid)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "PAYMENT_EXCEEDS_OUTSTANDING", de.Code)
	assert.Equal(t, "60.00", de.Details["outstanding"])

	err = b.ValidatePayment(decimal.Zero, paid)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT", de.Code)

	err = b.ValidatePayment(decimal.RequireFromString("1.005"), paid)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_AMOUNT", de.Code)

	t.Run("cancelled bill owes nothing", func(t *testing.T) {
		c := newCreditBill(t, line(1, "10.00"))
		require.NoError(t, c.Cancel(""))
		err := c.ValidatePayment(decimal.RequireFromString("1.00"), decimal.Zero)
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "PAYMENT_EXCEEDS_OUTSTANDING", de.Code)
	})
}

func TestBill_ApplyPaidTotal(t *testing.T) {
	b := newCreditBill(t, line(1, "100.00"))
	b.PullDomainEvents()

	assert.False(t, b.ApplyPaidTotal(decimal.RequireFromString("30")))
	assert.Equal(t, BillStatusPartial, b.Status)
	assert.Nil(t, b.PaidAt)

	assert.True(t, b.ApplyPaidTotal(decimal.RequireFromString("100")))
	assert.Equal(t, BillStatusPaid, b.Status)
	assert.NotNil(t, b.PaidAt)

	// re-deriving with the same total does not emit a second paid event
	assert.False(t, b.ApplyPaidTotal(decimal.RequireFromString("100")))

	paidEvents := 0
	for _, e := range b.PendingDomainEvents() {
		if e.EventType() == EventTypeBillPaid {
			paidEvents++
		}
	}
	assert.Equal(t, 1, paidEvents)
}

func TestBill_Cancel(t *testing.T) {
	t.Run("partial bill can be cancelled", func(t *testing.T) {
		b := newCreditBill(t, line(1, "10.00"))
		b.ApplyPaidTotal(decimal.RequireFromString("5"))
		require.NoError(t, b.Cancel("customer returned goods"))
		assert.Equal(t, BillStatusCancelled, b.Status)
		assert.NotNil(t, b.CancelledAt)
		assert.False(t, b.ApplyPaidTotal(decimal.RequireFromString("10")))
		assert.Equal(t, BillStatusCancelled, b.Status)
	})

	for _, status := range []BillStatus{BillStatusPaid, BillStatusCash, BillStatusCancelled} {
		t.Run("rejects "+string(status), func(t *testing.T) {
			b := newCreditBill(t, line(1, "10.00"))
			b.Status = status
			err := b.Cancel("")
			assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		})
	}
}

func TestBill_ProductIDs(t *testing.T) {
	l := line(1, "1")
	b := newCreditBill(t, l, line(1, "2"), l)
	ids := b.ProductIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, l.ProductID, ids[0])
}
