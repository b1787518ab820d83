package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomer_PaymentStatus(t *testing.T) {
	c, err := NewCustomer(uuid.New(), uuid.New(), " Amina ", "", "AMINA@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "Amina", c.Name)
	assert.Equal(t, "amina@example.com", c.Email)
	assert.Equal(t, CustomerPaymentClear, c.PaymentStatus())

	require.NoError(t, c.RefreshTotals(decimal.NewFromInt(100), decimal.Zero))
	assert.Equal(t, CustomerPaymentUnpaid, c.PaymentStatus())

	require.NoError(t, c.RefreshTotals(decimal.NewFromInt(100), decimal.NewFromInt(40)))
	assert.Equal(t, CustomerPaymentPartial, c.PaymentStatus())
	assert.True(t, c.OutstandingAmount().Equal(decimal.NewFromInt(60)))

	require.NoError(t, c.RefreshTotals(decimal.NewFromInt(100), decimal.NewFromInt(100)))
	assert.Equal(t, CustomerPaymentClear, c.PaymentStatus())
	assert.False(t, c.HasOutstanding())

	assert.Error(t, c.RefreshTotals(decimal.NewFromInt(-1), decimal.Zero))
}

func TestNewPayment(t *testing.T) {
	b := newCreditBill(t, line(1, "10.00"))
	p, err := NewPayment(b, uuid.New(), decimal.RequireFromString("4.00"), PaymentMethodCard, time.Time{}, " ref-1 ", "")
	require.NoError(t, err)
	assert.Equal(t, *b.CustomerID, p.CustomerID)
	assert.Equal(t, "ref-1", p.Reference)
	assert.False(t, p.PaymentDate.IsZero())

	cash, err := NewCashBill(testHeader(), []BillLine{line(1, "1")})
	require.NoError(t, err)
	_, err = NewPayment(cash, uuid.New(), decimal.NewFromInt(1), PaymentMethodCash, time.Now(), "", "")
	assert.Error(t, err)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, m)

	m, err = ParsePaymentMethod("Bank_Transfer")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodBankTransfer, m)

	_, err = ParsePaymentMethod("barter")
	assert.Error(t, err)
}
