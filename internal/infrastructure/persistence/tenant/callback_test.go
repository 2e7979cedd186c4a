package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupGuardedMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	db, mock, mockDB := setupMockDB(t)
	require.NoError(t, NewGuard("test_models").Register(db))
	return db, mock, mockDB
}

func TestGuard_RejectsUnscopedQuery(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	var results []TestModel
	err := db.WithContext(context.Background()).Find(&results).Error

	assert.ErrorIs(t, err, ErrTenantScopeMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_AllowsScopedQuery(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE tenant_id = \$1`).
		WithArgs(tenantID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var results []TestModel
	err := NewTenantDB(db).ForTenant(context.Background(), tenantID).Find(&results).Error

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_AllowsStructCondition(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE "test_models"."tenant_id" = \$1`).
		WithArgs(tenantID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	var results []TestModel
	err := db.Where(&TestModel{TenantID: tenantID}).Find(&results).Error

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_RejectsUnscopedUpdateAndDelete(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	id := uuid.New()

	err := db.Model(&TestModel{}).Where("id = ?", id).Update("name", "x").Error
	assert.ErrorIs(t, err, ErrTenantScopeMissing)

	err = db.Where("id = ?", id).Delete(&TestModel{}).Error
	assert.ErrorIs(t, err, ErrTenantScopeMissing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_OwnershipLookupBypasses(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	id := uuid.New()
	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT "tenant_id" FROM "test_models" WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(tenantID.String()))

	var owners []uuid.UUID
	err := NewTenantDB(db).OwnershipLookup(context.Background()).
		Model(&TestModel{}).
		Where("id = ?", id).
		Pluck("tenant_id", &owners).Error

	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, tenantID, owners[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_IgnoresOtherTables(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	var rows []map[string]any
	err := db.Table("tenants").Find(&rows).Error

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_RawSQL(t *testing.T) {
	db, mock, mockDB := setupGuardedMockDB(t)
	defer mockDB.Close()

	var n int64
	err := db.Raw(`SELECT count(*) FROM test_models`).Scan(&n).Error
	assert.ErrorIs(t, err, ErrTenantScopeMissing)

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM test_models WHERE tenant_id = \$1`).
		WithArgs(tenantID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	err = db.Raw(`SELECT count(*) FROM test_models WHERE tenant_id = ?`, tenantID).Scan(&n).Error
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
