package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// TestModel is a simple model for testing tenant scoping
type TestModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"size:100"`
}

func (TestModel) TableName() string {
	return "test_models"
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestTenantScope(t *testing.T) {
	tenantID := uuid.New()

	t.Run("applies tenant filter to query", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE tenant_id = \$1`).
			WithArgs(tenantID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var results []TestModel
		err := db.Scopes(TenantScope(tenantID)).Find(&results).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTenantDB_ForTenant(t *testing.T) {
	t.Run("scopes to specific tenant", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE tenant_id = \$1`).
			WithArgs(tenantID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

		var results []TestModel
		err := tenantDB.ForTenant(context.Background(), tenantID).Find(&results).Error
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("combines with further conditions", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)
		tenantID := uuid.New()
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE id = \$1 AND tenant_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(id.String(), tenantID.String(), 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
				AddRow(id.String(), tenantID.String(), "widget"))

		var result TestModel
		err := tenantDB.ForTenant(context.Background(), tenantID).
			Where("id = ?", id).
			First(&result).Error
		require.NoError(t, err)
		assert.Equal(t, "widget", result.Name)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("errors on nil UUID", func(t *testing.T) {
		db, _, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)
		scopedDB := tenantDB.ForTenant(context.Background(), uuid.Nil)

		assert.ErrorIs(t, scopedDB.Error, ErrTenantIDRequired)

		var results []TestModel
		err := scopedDB.Find(&results).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})
}

func TestTenantDB_Transaction(t *testing.T) {
	t.Run("rejects nil tenant without opening a transaction", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)
		called := false
		err := tenantDB.Transaction(context.Background(), uuid.Nil, func(tx *gorm.DB) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, ErrTenantIDRequired)
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)
		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE tenant_id = \$1`).
			WithArgs(tenantID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))
		mock.ExpectCommit()

		err := tenantDB.Transaction(context.Background(), tenantID, func(tx *gorm.DB) error {
			var results []TestModel
			return tx.Scopes(TenantScope(tenantID)).Find(&results).Error
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := setupMockDB(t)
		defer mockDB.Close()

		tenantDB := NewTenantDB(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		sentinel := assert.AnError
		err := tenantDB.Transaction(context.Background(), uuid.New(), func(tx *gorm.DB) error {
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTenantDB_OwnershipLookup(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	tenantDB := NewTenantDB(db)
	lookup := tenantDB.OwnershipLookup(context.Background())

	assert.True(t, isOwnershipLookup(lookup))
	assert.False(t, isOwnershipLookup(tenantDB.DB()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
