package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
)

func validInput() NewSaleInput {
	return NewSaleInput{
		BusinessID: uuid.New(),
		ShopID:     uuid.New(),
		ProductID:  uuid.New(),
		UserID:     uuid.New(),
		Quantity:   3,
		UnitPrice:  decimal.RequireFromString("2.35"),
	}
}

func TestNewSale(t *testing.T) {
	t.Run("derives total", func(t *testing.T) {
		s, err := NewSale(validInput())
		require.NoError(t, err)
		assert.True(t, s.TotalAmount.Equal(decimal.RequireFromString("7.05")))
		assert.True(t, s.IsDirect())
		assert.False(t, s.SaleDate.IsZero())
	})

	tests := []struct {
		name   string
		mutate func(in *NewSaleInput)
		code   string
	}{
		{"zero quantity", func(in *NewSaleInput) { in.Quantity = 0 }, "INVALID_QUANTITY"},
		{"zero price", func(in *NewSaleInput) { in.UnitPrice = decimal.Zero }, "INVALID_PRICE"},
		{"missing product", func(in *NewSaleInput) { in.ProductID = uuid.Nil }, "INVALID_PRODUCT"},
		{"bill without item", func(in *NewSaleInput) {
			id := uuid.New()
			in.BillID = &id
		}, "INVALID_BILL_REFERENCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := NewSale(in)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}
