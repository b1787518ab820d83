package persistence

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	appinv "github.com/retailcore/backend/internal/application/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations and joins
// an enclosing scope carried by the context instead of nesting.
type GormTransactionScope struct {
	db        *gorm.DB
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewGormTransactionScope creates a new GormTransactionScope.
// publisher may be nil, in which case queued events are dropped after commit.
func NewGormTransactionScope(db *gorm.DB, publisher shared.EventPublisher, logger *zap.Logger) *GormTransactionScope {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormTransactionScope{db: db, publisher: publisher, logger: logger}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed and queued events
// are published.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	if outer, ok := appinv.RepositoriesFromContext(ctx); ok {
		return fn(ctx, outer)
	}

	var repos *appinv.RepositorySet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos = NewRepositorySet(tx)
		return fn(appinv.WithRepositories(ctx, repos), repos)
	})
	if err != nil {
		return err
	}
	appinv.PublishCommitted(ctx, s.publisher, s.logger, repos)
	return nil
}

// NewRepositorySet builds every repository over db, which may be a transaction
func NewRepositorySet(db *gorm.DB) *appinv.RepositorySet {
	return &appinv.RepositorySet{
		ProductRepo:       NewGormProductRepository(db),
		ShopRepo:          NewGormShopRepository(db),
		ShopInventoryRepo: NewGormShopInventoryRepository(db),
		MovementRepo:      NewGormStockMovementRepository(db),
		TransferRepo:      NewGormStockTransferRepository(db),
		BillRepo:          NewGormBillRepository(db),
		PaymentRepo:       NewGormPaymentRepository(db),
		CustomerRepo:      NewGormCustomerRepository(db),
		SaleRepo:          NewGormSaleRepository(db),
	}
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)
