package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
)

// StockStatus is the derived health of a shop inventory position
type StockStatus string

const (
	StockStatusOutOfStock  StockStatus = "out_of_stock"
	StockStatusLowStock    StockStatus = "low_stock"
	StockStatusOverstocked StockStatus = "overstocked"
	StockStatusAdequate    StockStatus = "adequate"
)

// IsValid checks if the status is a valid value
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusOutOfStock, StockStatusLowStock, StockStatusOverstocked, StockStatusAdequate:
		return true
	}
	return false
}

// StockStatusFor derives the status of quantity against thresholds.
// Order matters: an empty row is out of stock even when the reorder point is 0.
func StockStatusFor(quantity int64, t catalog.StockThresholds) StockStatus {
	switch {
	case quantity == 0:
		return StockStatusOutOfStock
	case quantity <= t.ReorderPoint:
		return StockStatusLowStock
	case quantity > t.MaxStockLevel:
		return StockStatusOverstocked
	default:
		return StockStatusAdequate
	}
}

// ShopInventory is the stock of one product held by one shop.
// Quantity is only ever changed through the stock ledger's conditional
// repository primitives; the struct is a snapshot of the row.
type ShopInventory struct {
	shared.BusinessAggregateRoot
	ShopID          uuid.UUID
	ProductID       uuid.UUID
	Quantity        int64
	Thresholds      catalog.StockThresholds
	LastRestockedAt *time.Time
	RestockNotes    string
}

// NewShopInventory creates an empty stock position for product at shop.
// The shop and product must both belong to businessID.
func NewShopInventory(shop *catalog.Shop, product *catalog.Product) (*ShopInventory, error) {
	if err := EnsureSameBusiness(shop, product); err != nil {
		return nil, err
	}
	thresholds := product.ThresholdsForNewShop()
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &ShopInventory{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(shop.BusinessID),
		ShopID:                shop.ID,
		ProductID:             product.ID,
		Quantity:              0,
		Thresholds:            thresholds,
	}, nil
}

// EnsureSameBusiness checks the shop and product belong to the same business
func EnsureSameBusiness(shop *catalog.Shop, product *catalog.Product) error {
	if shop == nil || product == nil {
		return shared.NewDomainError("INVALID_REFERENCE", "Shop and product are required")
	}
	if shop.BusinessID != product.BusinessID {
		return shared.NewDomainError("BUSINESS_MISMATCH", "Product does not belong to the shop's business").
			WithDetail("shop_id", shop.ID.String()).
			WithDetail("product_id", product.ID.String())
	}
	return nil
}

// Status returns the derived stock status
func (s *ShopInventory) Status() StockStatus {
	return StockStatusFor(s.Quantity, s.Thresholds)
}

// StockPercentage returns quantity as a percentage of the maximum level
func (s *ShopInventory) StockPercentage() float64 {
	if s.Thresholds.MaxStockLevel <= 0 {
		return 0
	}
	return float64(s.Quantity) / float64(s.Thresholds.MaxStockLevel) * 100
}

// CanCover reports whether the shop holds at least quantity units
func (s *ShopInventory) CanCover(quantity int64) bool {
	return s.Quantity >= quantity
}

// NeedsReorder reports whether the quantity is at or below the reorder point
func (s *ShopInventory) NeedsReorder() bool {
	return s.Quantity <= s.Thresholds.ReorderPoint
}

// UpdateThresholds replaces the min / max / reorder levels
func (s *ShopInventory) UpdateThresholds(t catalog.StockThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.Thresholds = t
	s.Touch()
	return nil
}

// ValidateQuantity checks a ledger quantity argument is positive
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero").
			WithDetail("quantity", quantity)
	}
	return nil
}

// MaxRestockNotesLength bounds free-text restock notes
const MaxRestockNotesLength = 1000

// NormalizeNotes trims notes and enforces the length bound
func NormalizeNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxRestockNotesLength {
		return "", shared.NewDomainError("INVALID_NOTES", "Notes cannot exceed 1000 characters")
	}
	return notes, nil
}
