package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	// gorm pings once while opening
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestBusinessScope(t *testing.T) {
	type shopRow struct {
		ID         uint
		BusinessID uuid.UUID
		Name       string
	}

	t.Run("filters by business", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		businessID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "shop_rows" WHERE business_id = \$1`).
			WithArgs(businessID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name"}).
				AddRow(1, businessID, "Main"))

		var rows []shopRow
		require.NoError(t, db.DB.Scopes(BusinessScope(businessID)).Find(&rows).Error)
		assert.Len(t, rows, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("chains with other conditions", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()
		businessID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "shop_rows" WHERE business_id = \$1 AND name = \$2`).
			WithArgs(businessID, "Main").
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name"}))

		var rows []shopRow
		require.NoError(t, db.DB.Scopes(BusinessScope(businessID)).Where("name = ?", "Main").Find(&rows).Error)
		assert.Empty(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err := db.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
