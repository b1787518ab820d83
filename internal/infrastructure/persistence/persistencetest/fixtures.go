package persistencetest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
)

// SeedBusiness inserts a business owned by a random user
func SeedBusiness(t testing.TB, db *gorm.DB, name string) *catalog.Business {
	t.Helper()
	b, err := catalog.NewBusiness(name, uuid.New())
	require.NoError(t, err)
	require.NoError(t, db.Create(models.BusinessModelFromDomain(b)).Error)
	return b
}

// SeedShop inserts a shop of business
func SeedShop(t testing.TB, db *gorm.DB, businessID uuid.UUID, name string) *catalog.Shop {
	t.Helper()
	s, err := catalog.NewShop(businessID, name, "")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.ShopModelFromDomain(s)).Error)
	return s
}

// SeedProduct inserts a product with pool units in the business pool
func SeedProduct(t testing.TB, db *gorm.DB, businessID uuid.UUID, name string, pool int64, sellingPrice string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(businessID, name, "pcs")
	require.NoError(t, err)
	price := decimal.RequireFromString(sellingPrice)
	require.NoError(t, p.SetPrices(price, price))
	require.NoError(t, p.SetInitialPool(pool))
	require.NoError(t, db.Create(models.ProductModelFromDomain(p)).Error)
	return p
}

// SeedShopInventory inserts a shop inventory row holding quantity units
func SeedShopInventory(t testing.TB, db *gorm.DB, shop *catalog.Shop, product *catalog.Product, quantity int64) *inventory.ShopInventory {
	t.Helper()
	inv, err := inventory.NewShopInventory(shop, product)
	require.NoError(t, err)
	inv.Quantity = quantity
	require.NoError(t, db.Create(models.ShopInventoryModelFromDomain(inv)).Error)
	return inv
}

// SeedCustomer inserts a customer of shop
func SeedCustomer(t testing.TB, db *gorm.DB, shop *catalog.Shop, name string) *billing.Customer {
	t.Helper()
	c, err := billing.NewCustomer(shop.BusinessID, shop.ID, name, "", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.CustomerModelFromDomain(c)).Error)
	return c
}

// ShopQuantity returns the stored quantity of product at shop, 0 when no row exists
func ShopQuantity(t testing.TB, db *gorm.DB, shopID, productID uuid.UUID) int64 {
	t.Helper()
	var rows []models.ShopInventoryModel
	require.NoError(t, db.Where("shop_id = ? AND product_id = ?", shopID, productID).Find(&rows).Error)
	if len(rows) == 0 {
		return 0
	}
	return rows[0].Quantity
}

// PoolQuantity returns the stored business pool quantity of product
func PoolQuantity(t testing.TB, db *gorm.DB, productID uuid.UUID) int64 {
	t.Helper()
	var m models.ProductModel
	require.NoError(t, db.First(&m, "id = ?", productID).Error)
	return m.BusinessInventoryQuantity
}

// Count returns the number of rows of model matching the optional condition
func Count(t testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
