package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// newMockGormDB opens GORM over a mocked postgres connection
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return gormDB, mock, mockDB
}

func TestGormShopInventoryRepository_FindByID(t *testing.T) {
	t.Run("maps the stored row", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		id, businessID, shopID, productID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "business_id", "shop_id", "product_id", "quantity",
			"min_stock_level", "max_stock_level", "reorder_point", "version", "created_at", "updated_at",
		}).AddRow(id.String(), businessID.String(), shopID.String(), productID.String(), 25, 5, 50, 10, 3, now, now)

		mock.ExpectQuery(`SELECT \* FROM "shop_inventories" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		inv, err := repo.FindByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, shopID, inv.ShopID)
		assert.Equal(t, productID, inv.ProductID)
		assert.Equal(t, int64(25), inv.Quantity)
		assert.Equal(t, int64(10), inv.Thresholds.ReorderPoint)
		assert.Equal(t, 3, inv.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "shop_inventories" WHERE id = \$1`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		inv, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, inv)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormShopInventoryRepository_DecrementIfAvailable(t *testing.T) {
	const decrementSQL = `UPDATE "shop_inventories" SET "quantity"=quantity - \$1,"updated_at"=\$2 WHERE .*id = \$3 AND quantity >= \$4`

	t.Run("applies when the row covers the quantity", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		id := uuid.New()
		mock.ExpectExec(decrementSQL).
			WithArgs(int64(4), sqlmock.AnyArg(), id, int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.DecrementIfAvailable(context.Background(), id, 4)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not applied when the guard fails", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		id := uuid.New()
		mock.ExpectExec(decrementSQL).
			WithArgs(int64(9), sqlmock.AnyArg(), id, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.DecrementIfAvailable(context.Background(), id, 9)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		mock.ExpectExec(decrementSQL).WillReturnError(assert.AnError)

		applied, err := repo.DecrementIfAvailable(context.Background(), uuid.New(), 1)

		assert.False(t, applied)
		assert.ErrorIs(t, err, shared.ErrPersistence)
		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormShopInventoryRepository_Increment(t *testing.T) {
	t.Run("missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormShopInventoryRepository(db)

		id := uuid.New()
		mock.ExpectExec(`UPDATE "shop_inventories" SET "quantity"=quantity \+ \$1,"updated_at"=\$2 WHERE id = \$3`).
			WithArgs(int64(5), sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Increment(context.Background(), id, 5)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_DecrementPoolIfAvailable(t *testing.T) {
	const poolSQL = `UPDATE "products" SET "business_inventory_quantity"=business_inventory_quantity - \$1,"updated_at"=\$2 WHERE .*id = \$3 AND business_inventory_quantity >= \$4`

	t.Run("applies when the pool covers the quantity", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		id := uuid.New()
		mock.ExpectExec(poolSQL).
			WithArgs(int64(30), sqlmock.AnyArg(), id, int64(30)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		applied, err := repo.DecrementPoolIfAvailable(context.Background(), id, 30)

		require.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short pool is not applied", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		mock.ExpectExec(poolSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		applied, err := repo.DecrementPoolIfAvailable(context.Background(), uuid.New(), 30)

		require.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_ExistsForReference(t *testing.T) {
	t.Run("matches kind and document", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormStockMovementRepository(db)

		saleID := uuid.New()
		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_movements" WHERE \(kind = \$1 AND reference_type = \$2\) AND reference_id = \$3`).
			WithArgs("release", "sale", saleID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsForReference(context.Background(), inventory.MovementRelease,
			inventory.RefTo(inventory.ReferenceSale, saleID))

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manual reference matches null id", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormStockMovementRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_movements" WHERE .*reference_id IS NULL`).
			WithArgs("restock", "manual").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsForReference(context.Background(), inventory.MovementRestock,
			inventory.ManualReference())

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockTransferRepository_SaveWithLock(t *testing.T) {
	newTransfer := func() *inventory.StockTransfer {
		tr := &inventory.StockTransfer{
			BusinessAggregateRoot: shared.NewBusinessAggregateRoot(uuid.New()),
			ProductID:             uuid.New(),
			FromShopID:            uuid.New(),
			ToShopID:              uuid.New(),
			Quantity:              5,
			Reason:                "restock branch",
			Status:                inventory.TransferStatusApproved,
			InitiatedBy:           uuid.New(),
		}
		tr.Version = 2
		return tr
	}

	t.Run("updates when the stored version matches", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormStockTransferRepository(db)

		tr := newTransfer()
		mock.ExpectExec(`UPDATE "stock_transfers" SET .*"status"=.*"version"=.* WHERE .*id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveWithLock(context.Background(), tr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent modification is a conflict", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormStockTransferRepository(db)

		tr := newTransfer()
		mock.ExpectExec(`UPDATE "stock_transfers" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), tr)

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Contains(t, err.Error(), "modified by another transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *shared.DomainError
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, shared.ErrConflict},
		{"driver error", assert.AnError, shared.ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err, "bill item", "create"), tt.want)
		})
	}

	t.Run("duplicate code names the resource", func(t *testing.T) {
		var de *shared.DomainError
		require.ErrorAs(t, translateError(gorm.ErrDuplicatedKey, "bill item", "create"), &de)
		assert.Equal(t, "DUPLICATE_BILL_ITEM", de.Code)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil, "bill", "find"))
	})
}
