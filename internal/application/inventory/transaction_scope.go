package inventory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/billing"
	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// TransactionScope provides transactional access to every repository the
// core writes to. When a function is executed within a transaction scope, all
// repository operations are part of the same database transaction and are
// committed or rolled back atomically.
//
// Execute called with a context that already carries a scope joins that
// scope instead of opening a nested transaction, so the stock ledger can be
// used both on its own and from inside a billing or transfer unit of work.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// Queued events are published only after the outermost transaction commits.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Shops() catalog.ShopRepository
	ShopInventories() inventory.ShopInventoryRepository
	Movements() inventory.StockMovementRepository
	Transfers() inventory.StockTransferRepository
	Bills() billing.BillRepository
	Payments() billing.PaymentRepository
	Customers() billing.CustomerRepository
	Sales() sales.SaleRepository

	// AddEvents queues domain events for publication after commit
	AddEvents(events ...shared.DomainEvent)
}

type scopeKey struct{}

// WithRepositories marks ctx as running inside the unit of work repos belongs to
func WithRepositories(ctx context.Context, repos TransactionalRepositories) context.Context {
	return context.WithValue(ctx, scopeKey{}, repos)
}

// RepositoriesFromContext returns the enclosing unit of work, if any
func RepositoriesFromContext(ctx context.Context) (TransactionalRepositories, bool) {
	repos, ok := ctx.Value(scopeKey{}).(TransactionalRepositories)
	return repos, ok
}

// RepositorySet is a TransactionalRepositories assembled from concrete repositories
type RepositorySet struct {
	ProductRepo       catalog.ProductRepository
	ShopRepo          catalog.ShopRepository
	ShopInventoryRepo inventory.ShopInventoryRepository
	MovementRepo      inventory.StockMovementRepository
	TransferRepo      inventory.StockTransferRepository
	BillRepo          billing.BillRepository
	PaymentRepo       billing.PaymentRepository
	CustomerRepo      billing.CustomerRepository
	SaleRepo          sales.SaleRepository

	mu     sync.Mutex
	events []shared.DomainEvent
}

func (r *RepositorySet) Products() catalog.ProductRepository               { return r.ProductRepo }
func (r *RepositorySet) Shops() catalog.ShopRepository                     { return r.ShopRepo }
func (r *RepositorySet) ShopInventories() inventory.ShopInventoryRepository { return r.ShopInventoryRepo }
func (r *RepositorySet) Movements() inventory.StockMovementRepository      { return r.MovementRepo }
func (r *RepositorySet) Transfers() inventory.StockTransferRepository      { return r.TransferRepo }
func (r *RepositorySet) Bills() billing.BillRepository                     { return r.BillRepo }
func (r *RepositorySet) Payments() billing.PaymentRepository               { return r.PaymentRepo }
func (r *RepositorySet) Customers() billing.CustomerRepository             { return r.CustomerRepo }
func (r *RepositorySet) Sales() sales.SaleRepository                       { return r.SaleRepo }

// AddEvents queues events for publication after commit
func (r *RepositorySet) AddEvents(events ...shared.DomainEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// DrainEvents returns and forgets the queued events
func (r *RepositorySet) DrainEvents() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

// PublishCommitted publishes what a committed unit of work queued.
// Publication failures are logged and never undo the commit.
func PublishCommitted(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, repos *RepositorySet) {
	events := repos.DrainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
		logger.Error("failed to publish committed events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// NoOpTransactionScope runs fn against a fixed RepositorySet without a
// database transaction. It is meant for tests with mocked repositories.
type NoOpTransactionScope struct {
	repos     *RepositorySet
	publisher shared.EventPublisher
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos *RepositorySet, publisher shared.EventPublisher) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos, publisher: publisher}
}

// Execute runs fn, joining an enclosing scope when there is one
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	if outer, ok := RepositoriesFromContext(ctx); ok {
		return fn(ctx, outer)
	}
	if err := fn(WithRepositories(ctx, s.repos), s.repos); err != nil {
		s.repos.DrainEvents()
		return err
	}
	PublishCommitted(ctx, s.publisher, nil, s.repos)
	return nil
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*RepositorySet)(nil)
)
