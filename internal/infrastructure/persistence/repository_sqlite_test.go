package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinv "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence/models"
	"github.com/retailcore/backend/internal/infrastructure/persistence/persistencetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}


func TestGormShopInventoryRepository_CreateIsIdempotent(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 100, "10.00")
	repo := NewGormShopInventoryRepository(db)

	first, err := inventory.NewShopInventory(shop, product)
	require.NoError(t, err)
	stored, created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ID, stored.ID)

	second, err := inventory.NewShopInventory(shop, product)
	require.NoError(t, err)
	stored, created, err = repo.Create(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID, "existing row is returned")
	assert.Equal(t, int64(1), persistencetest.Count(t, db, &models.ShopInventoryModel{}, ""))
}

func TestGormShopInventoryRepository_ConditionalQuantity(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 0, "10.00")
	inv := persistencetest.SeedShopInventory(t, db, shop, product, 5)
	repo := NewGormShopInventoryRepository(db)

	applied, err := repo.DecrementIfAvailable(ctx, inv.ID, 6)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(5), persistencetest.ShopQuantity(t, db, shop.ID, product.ID))

	applied, err = repo.DecrementIfAvailable(ctx, inv.ID, 5)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(0), persistencetest.ShopQuantity(t, db, shop.ID, product.ID))

	require.NoError(t, repo.Increment(ctx, inv.ID, 3))
	assert.Equal(t, int64(3), persistencetest.ShopQuantity(t, db, shop.ID, product.ID))

	total, err := repo.SumByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestGormShopInventoryRepository_ListByStatus(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	// default thresholds: reorder 20, max 100
	quantities := map[string]int64{"Out": 0, "Low": 15, "Adequate": 50, "Over": 150}
	for name, qty := range quantities {
		p := persistencetest.SeedProduct(t, db, b.ID, name, 0, "1.00")
		persistencetest.SeedShopInventory(t, db, shop, p, qty)
	}
	other := persistencetest.SeedBusiness(t, db, "Other")
	otherShop := persistencetest.SeedShop(t, db, other.ID, "Elsewhere")
	persistencetest.SeedShopInventory(t, db, otherShop,
		persistencetest.SeedProduct(t, db, other.ID, "Foreign", 0, "1.00"), 15)

	repo := NewGormShopInventoryRepository(db)
	tests := []struct {
		status inventory.StockStatus
		want   int64
	}{
		{inventory.StockStatusOutOfStock, 0},
		{inventory.StockStatusLowStock, 15},
		{inventory.StockStatusAdequate, 50},
		{inventory.StockStatusOverstocked, 150},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			items, total, err := repo.List(ctx, inventory.ShopInventoryFilter{
				BusinessID: b.ID,
				Status:     tt.status,
			})
			require.NoError(t, err)
			require.Equal(t, int64(1), total)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Quantity)
			assert.Equal(t, tt.status, items[0].Status())
		})
	}

	t.Run("only stock with paging", func(t *testing.T) {
		items, total, err := repo.List(ctx, inventory.ShopInventoryFilter{
			Filter:     shared.Filter{Page: 1, PageSize: 2, OrderBy: "quantity", OrderDir: "asc"},
			BusinessID: b.ID,
			OnlyStock:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 2)
		assert.Equal(t, int64(15), items[0].Quantity)
		assert.Equal(t, int64(50), items[1].Quantity)
	})
}

func TestGormProductRepository_Pool(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 40, "10.00")
	repo := NewGormProductRepository(db)

	applied, err := repo.DecrementPoolIfAvailable(ctx, product.ID, 41)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = repo.DecrementPoolIfAvailable(ctx, product.ID, 30)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(10), persistencetest.PoolQuantity(t, db, product.ID))

	t.Run("save does not overwrite the pool", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		stale.BusinessInventoryQuantity = 999
		stale.Name = "Basmati Rice"
		require.NoError(t, repo.Save(ctx, stale))

		reloaded, err := repo.FindByID(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "Basmati Rice", reloaded.Name)
		assert.Equal(t, int64(10), reloaded.BusinessInventoryQuantity)
	})

	t.Run("increment of a missing product is not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.IncrementPool(ctx, uuid.New(), 1), shared.ErrNotFound)
	})
}

func newTestCreditBill(t *testing.T, shop *catalog.Shop, customer *billing.Customer, product *catalog.Product, number string, qty int64) *billing.Bill {
	t.Helper()
	bill, err := billing.NewCreditBill(billing.BillHeader{
		BusinessID: shop.BusinessID,
		ShopID:     shop.ID,
		UserID:     uuid.New(),
		BillNumber: number,
	}, customer.ID, []billing.BillLine{
		{ProductID: product.ID, ProductName: product.Name, Quantity: qty, UnitPrice: product.SellingPrice},
		{ProductID: product.ID, ProductName: product.Name, Quantity: 1, UnitPrice: product.SellingPrice},
	})
	require.NoError(t, err)
	return bill
}

func TestGormBillRepository(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 0, "12.50")
	customer := persistencetest.SeedCustomer(t, db, shop, "Jo")
	bills := NewGormBillRepository(db)
	payments := NewGormPaymentRepository(db)

	bill := newTestCreditBill(t, shop, customer, product, "MAI-20260101-0001", 3)
	require.NoError(t, bills.Create(ctx, bill))

	t.Run("find loads items in line order", func(t *testing.T) {
		found, err := bills.FindByID(ctx, bill.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		assert.Equal(t, 1, found.Items[0].LineNumber)
		assert.Equal(t, 2, found.Items[1].LineNumber)
		assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("50.00")))

		locked, err := bills.FindByIDForUpdate(ctx, bill.ID)
		require.NoError(t, err)
		assert.Len(t, locked.Items, 2)
	})

	t.Run("bill number is unique per shop and user", func(t *testing.T) {
		exists, err := bills.NumberExists(ctx, bill.ShopID, bill.UserID, bill.BillNumber)
		require.NoError(t, err)
		assert.True(t, exists)

		dup := newTestCreditBill(t, shop, customer, product, bill.BillNumber, 1)
		dup.UserID = bill.UserID
		assert.ErrorIs(t, bills.Create(ctx, dup), shared.ErrConflict)
	})

	t.Run("payments and totals exclude cancelled bills", func(t *testing.T) {
		payment, err := billing.NewPayment(bill, uuid.New(), decimal.RequireFromString("20.00"),
			billing.PaymentMethodCash, time.Time{}, "", "")
		require.NoError(t, err)
		require.NoError(t, payments.Create(ctx, payment))

		cancelled := newTestCreditBill(t, shop, customer, product, "MAI-20260101-0002", 1)
		require.NoError(t, bills.Create(ctx, cancelled))
		other, err := billing.NewPayment(cancelled, uuid.New(), decimal.RequireFromString("5.00"),
			billing.PaymentMethodCash, time.Time{}, "", "")
		require.NoError(t, err)
		require.NoError(t, payments.Create(ctx, other))
		require.NoError(t, cancelled.Cancel("customer changed their mind"))
		require.NoError(t, bills.UpdateStatus(ctx, cancelled))

		totals, err := bills.ActiveCreditTotals(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, decimal.Sum(decimal.Zero, totals...).Equal(decimal.RequireFromString("50.00")))

		paid, err := payments.AmountsOnActiveBills(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, decimal.Sum(decimal.Zero, paid...).Equal(decimal.RequireFromString("20.00")))

		onCancelled, err := payments.ListByBill(ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Len(t, onCancelled, 1, "payments on a cancelled bill are kept")
	})

	t.Run("stale status update is a conflict", func(t *testing.T) {
		stale, err := bills.FindByID(ctx, bill.ID)
		require.NoError(t, err)
		stale.Version = 99
		assert.ErrorIs(t, bills.UpdateStatus(ctx, stale), shared.ErrConflict)
	})

	t.Run("list is scoped to the business", func(t *testing.T) {
		items, total, err := bills.List(ctx, billing.BillFilter{BusinessID: b.ID, Status: billing.BillStatusCancelled})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Len(t, items[0].Items, 2)

		_, total, err = bills.List(ctx, billing.BillFilter{BusinessID: uuid.New()})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestGormSaleRepository_OneSalePerBillItem(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 0, "12.50")
	customer := persistencetest.SeedCustomer(t, db, shop, "Jo")
	bill := newTestCreditBill(t, shop, customer, product, "MAI-20260101-0001", 3)
	require.NoError(t, NewGormBillRepository(db).Create(ctx, bill))
	repo := NewGormSaleRepository(db)

	newSale := func() *sales.Sale {
		s, err := sales.NewSale(sales.NewSaleInput{
			BusinessID: b.ID,
			ShopID:     shop.ID,
			ProductID:  product.ID,
			UserID:     bill.UserID,
			BillID:     &bill.ID,
			BillItemID: &bill.Items[0].ID,
			Quantity:   bill.Items[0].Quantity,
			UnitPrice:  bill.Items[0].UnitPrice,
		})
		require.NoError(t, err)
		return s
	}

	require.NoError(t, repo.Create(ctx, newSale()))
	assert.ErrorIs(t, repo.Create(ctx, newSale()), shared.ErrConflict)

	exists, err := repo.ExistsForBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	list, total, err := repo.List(ctx, sales.SaleFilter{BusinessID: b.ID, BillID: &bill.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.True(t, list[0].TotalAmount.Equal(decimal.RequireFromString("37.50")))
}

func TestGormTransactionScope(t *testing.T) {
	db := persistencetest.NewSQLiteDB(t)
	ctx := context.Background()
	b := persistencetest.SeedBusiness(t, db, "Acme")
	shop := persistencetest.SeedShop(t, db, b.ID, "Main")
	product := persistencetest.SeedProduct(t, db, b.ID, "Rice", 10, "1.00")
	inv := persistencetest.SeedShopInventory(t, db, shop, product, 10)
	publisher := &recordingPublisher{}
	scope := NewGormTransactionScope(db, publisher, zap.NewNop())

	t.Run("rollback undoes every write and drops events", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
			applied, err := repos.ShopInventories().DecrementIfAvailable(ctx, inv.ID, 4)
			require.NoError(t, err)
			require.True(t, applied)
			repos.AddEvents(inventory.NewStockBelowReorderPointEvent(inv))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(10), persistencetest.ShopQuantity(t, db, shop.ID, product.ID))
		assert.Zero(t, publisher.count())
	})

	t.Run("nested execute joins the outer transaction", func(t *testing.T) {
		boom := errors.New("outer failure")
		err := scope.Execute(ctx, func(ctx context.Context, outer appinv.TransactionalRepositories) error {
			innerErr := scope.Execute(ctx, func(ctx context.Context, inner appinv.TransactionalRepositories) error {
				assert.Same(t, outer, inner)
				_, err := inner.Products().DecrementPoolIfAvailable(ctx, product.ID, 10)
				return err
			})
			require.NoError(t, innerErr)
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int64(10), persistencetest.PoolQuantity(t, db, product.ID))
	})

	t.Run("commit publishes queued events once", func(t *testing.T) {
		err := scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
			repos.AddEvents(inventory.NewStockBelowReorderPointEvent(inv))
			return repos.ShopInventories().Increment(ctx, inv.ID, 1)
		})
		require.NoError(t, err)
		assert.Equal(t, int64(11), persistencetest.ShopQuantity(t, db, shop.ID, product.ID))
		assert.Equal(t, 1, publisher.count())
	})
}
