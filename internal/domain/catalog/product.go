package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Default thresholds applied when a product carries none of its own
const (
	DefaultMinStockLevel int64 = 10
	DefaultMaxStockLevel int64 = 100
	DefaultReorderPoint  int64 = 20
)

// StockThresholds are the min / max / reorder levels of a stock position
type StockThresholds struct {
	MinStockLevel int64
	MaxStockLevel int64
	ReorderPoint  int64
}

// DefaultThresholds returns the system-wide default thresholds
func DefaultThresholds() StockThresholds {
	return StockThresholds{
		MinStockLevel: DefaultMinStockLevel,
		MaxStockLevel: DefaultMaxStockLevel,
		ReorderPoint:  DefaultReorderPoint,
	}
}

// IsZero reports whether no threshold was set
func (t StockThresholds) IsZero() bool {
	return t.MinStockLevel == 0 && t.MaxStockLevel == 0 && t.ReorderPoint == 0
}

// Validate checks min >= 0, max >= min and reorder >= min
func (t StockThresholds) Validate() error {
	if t.MinStockLevel < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Minimum stock level cannot be negative")
	}
	if t.MaxStockLevel < t.MinStockLevel {
		return shared.NewDomainError("INVALID_THRESHOLD", "Maximum stock level must be greater than or equal to minimum stock level").
			WithDetail("min_stock_level", t.MinStockLevel).
			WithDetail("max_stock_level", t.MaxStockLevel)
	}
	if t.ReorderPoint < t.MinStockLevel {
		return shared.NewDomainError("INVALID_THRESHOLD", "Reorder point must be greater than or equal to minimum stock level").
			WithDetail("min_stock_level", t.MinStockLevel).
			WithDetail("reorder_point", t.ReorderPoint)
	}
	return nil
}

// Product is a sellable item of a business. BusinessInventoryQuantity is the
// unassigned pool: stock the business holds that no shop has been given yet.
type Product struct {
	shared.BusinessAggregateRoot
	Name                      string
	SKU                       string
	Unit                      string
	BuyingPrice               decimal.Decimal
	SellingPrice              decimal.Decimal
	BusinessInventoryQuantity int64
	Thresholds                StockThresholds
}

// NewProduct creates a new product with an empty pool and default thresholds
func NewProduct(businessID uuid.UUID, name, unit string) (*Product, error) {
	if businessID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BUSINESS", "Product must belong to a business")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "pcs"
	}

	return &Product{
		BusinessAggregateRoot: shared.NewBusinessAggregateRoot(businessID),
		Name:                  name,
		Unit:                  unit,
		BuyingPrice:           decimal.Zero,
		SellingPrice:          decimal.Zero,
		Thresholds:            DefaultThresholds(),
	}, nil
}

// SetSKU sets the stock keeping unit code
func (p *Product) SetSKU(sku string) error {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if len(sku) > 64 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	p.SKU = sku
	p.touch()
	return nil
}

// SetPrices sets buying and selling prices
func (p *Product) SetPrices(buying, selling decimal.Decimal) error {
	if buying.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Buying price cannot be negative")
	}
	if selling.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	p.BuyingPrice = buying
	p.SellingPrice = selling
	p.touch()
	return nil
}

// SetThresholds sets the defaults new shop inventory rows inherit
func (p *Product) SetThresholds(t StockThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	p.Thresholds = t
	p.touch()
	return nil
}

// ThresholdsForNewShop returns the thresholds a newly created shop row inherits
func (p *Product) ThresholdsForNewShop() StockThresholds {
	if p.Thresholds.IsZero() {
		return DefaultThresholds()
	}
	return p.Thresholds
}

// SetInitialPool sets the unassigned quantity of a product that is not yet persisted
func (p *Product) SetInitialPool(quantity int64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Business inventory quantity cannot be negative")
	}
	p.BusinessInventoryQuantity = quantity
	return nil
}

// HasUnassigned reports whether the pool can cover quantity
func (p *Product) HasUnassigned(quantity int64) bool {
	return p.BusinessInventoryQuantity >= quantity
}

// Label returns a human readable name for messages
func (p *Product) Label() string {
	if p.SKU != "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.SKU)
	}
	return p.Name
}

func (p *Product) touch() {
	p.Touch()
}
