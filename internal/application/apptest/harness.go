// Package apptest wires the application services over a throwaway SQLite
// database for scenario tests.
package apptest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	appbilling "github.com/retailcore/backend/internal/application/billing"
	appinv "github.com/retailcore/backend/internal/application/inventory"
	appsales "github.com/retailcore/backend/internal/application/sales"
	apptransfer "github.com/retailcore/backend/internal/application/transfer"
	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/identity"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/infrastructure/persistence/persistencetest"
)

// EventLog collects published events
type EventLog struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish implements shared.EventPublisher
func (l *EventLog) Publish(_ context.Context, events ...shared.DomainEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

// Types returns the event types published so far, in order
func (l *EventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	types := make([]string, len(l.events))
	for i, e := range l.events {
		types[i] = e.EventType()
	}
	return types
}

// Harness holds one business with two shops and every service over it
type Harness struct {
	DB       *gorm.DB
	Scope    *persistence.GormTransactionScope
	Ledger   *appinv.StockLedger
	Billing  *appbilling.Service
	Sales    *appsales.Service
	Transfer *apptransfer.Service
	Events   *EventLog

	Business *catalog.Business
	Shop1    *catalog.Shop
	Shop2    *catalog.Shop
	Owner    identity.Actor
}

// New builds a Harness over a fresh SQLite database
func New(t testing.TB) *Harness {
	t.Helper()
	return build(t, persistencetest.NewSQLiteDB(t))
}

// NewWithDB builds a Harness over db, which must already carry the schema
func NewWithDB(t testing.TB, db *gorm.DB) *Harness {
	t.Helper()
	return build(t, db)
}

func build(t testing.TB, db *gorm.DB) *Harness {
	logger := zap.NewNop()
	if tt, ok := t.(*testing.T); ok && testing.Verbose() {
		logger = zaptest.NewLogger(tt)
	}
	events := &EventLog{}
	scope := persistence.NewGormTransactionScope(db, events, logger)
	ledger := appinv.NewStockLedger(scope, logger)

	h := &Harness{
		DB:       db,
		Scope:    scope,
		Ledger:   ledger,
		Billing:  appbilling.NewService(scope, ledger, billing.NewBillNumberGenerator(billing.DefaultBillNumberAttempts), logger),
		Sales:    appsales.NewService(scope, ledger, logger),
		Transfer: apptransfer.NewService(scope, ledger, logger),
		Events:   events,
	}
	h.Business = persistencetest.SeedBusiness(t, db, "Acme Retail")
	h.Shop1 = persistencetest.SeedShop(t, db, h.Business.ID, "Main Street")
	h.Shop2 = persistencetest.SeedShop(t, db, h.Business.ID, "Harbour")

	owner, err := identity.NewActor(h.Business.OwnerID, h.Business.ID, nil, identity.RoleBusinessOwner)
	require.NoError(t, err)
	h.Owner = owner
	return h
}

// Worker returns a shop worker assigned to shop
func (h *Harness) Worker(t testing.TB, shop *catalog.Shop) identity.Actor {
	t.Helper()
	shopID := shop.ID
	actor, err := identity.NewActor(uuid.New(), h.Business.ID, &shopID, identity.RoleShopWorker)
	require.NoError(t, err)
	return actor
}

// Product seeds a product with pool units in the business pool
func (h *Harness) Product(t testing.TB, name string, pool int64, price string) *catalog.Product {
	t.Helper()
	return persistencetest.SeedProduct(t, h.DB, h.Business.ID, name, pool, price)
}

// Stock seeds quantity units of product at shop
func (h *Harness) Stock(t testing.TB, shop *catalog.Shop, product *catalog.Product, quantity int64) {
	t.Helper()
	persistencetest.SeedShopInventory(t, h.DB, shop, product, quantity)
}

// Customer seeds a customer of shop
func (h *Harness) Customer(t testing.TB, shop *catalog.Shop) *billing.Customer {
	t.Helper()
	return persistencetest.SeedCustomer(t, h.DB, shop, "Walk-in Regular")
}

// ShopQuantity returns the stored quantity of product at shop
func (h *Harness) ShopQuantity(t testing.TB, shop *catalog.Shop, product *catalog.Product) int64 {
	t.Helper()
	return persistencetest.ShopQuantity(t, h.DB, shop.ID, product.ID)
}

// Pool returns the stored business pool of product
func (h *Harness) Pool(t testing.TB, product *catalog.Product) int64 {
	t.Helper()
	return persistencetest.PoolQuantity(t, h.DB, product.ID)
}

// Conserved returns pool plus the sum over every shop for product
func (h *Harness) Conserved(t testing.TB, product *catalog.Product) int64 {
	t.Helper()
	total, err := persistence.NewGormShopInventoryRepository(h.DB).SumByProduct(context.Background(), product.ID)
	require.NoError(t, err)
	return total + h.Pool(t, product)
}
