package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
)

func fixedGenerator(attempts int) *BillNumberGenerator {
	g := NewBillNumberGenerator(attempts)
	g.Now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	g.RandSuffix = func() int { return 482 }
	return g
}

func TestShopCode(t *testing.T) {
	tests := map[string]string{
		"Main Street": "MA",
		"épicerie":    "EP",
		"Ñandú":       "NA",
		"7 Eleven":    "EL",
		"X":           "SH",
		"12":          "SH",
		"":            "BL",
		"   ":         "BL",
	}
	for name, want := range tests {
		assert.Equal(t, want, ShopCode(name), name)
	}
}

func TestBillNumberGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("first free candidate", func(t *testing.T) {
		n, err := fixedGenerator(5).Generate(ctx, "Main", func(context.Context, string) (bool, error) { return false, nil })
		require.NoError(t, err)
		assert.Equal(t, "MA240309140507482", n)
	})

	t.Run("falls back after bounded attempts", func(t *testing.T) {
		calls := 0
		n, err := fixedGenerator(5).Generate(ctx, "Main", func(context.Context, string) (bool, error) {
			calls++
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 5, calls)
		assert.True(t, strings.HasPrefix(n, "MA240309140507-"))
		assert.Len(t, n, len("MA240309140507-")+32)
	})

	t.Run("store error is a persistence error", func(t *testing.T) {
		_, err := fixedGenerator(5).Generate(ctx, "Main", func(context.Context, string) (bool, error) {
			return false, errors.New("db down")
		})
		assert.True(t, errors.Is(err, shared.ErrPersistence))
	})

	t.Run("non-positive bound uses default", func(t *testing.T) {
		assert.Equal(t, DefaultBillNumberAttempts, NewBillNumberGenerator(0).MaxAttempts)
	})
}
