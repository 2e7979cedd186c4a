package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	mock.ExpectPing()

	database := &Database{DB: db}
	assert.NoError(t, database.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := setupMockDB(t)

	mock.ExpectClose()

	database := &Database{DB: db}
	assert.NoError(t, database.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_InstallsTenantGuard(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	var names []string
	err := db.Table("purchase_order_attachments").Pluck("file_name", &names).Error
	assert.ErrorIs(t, err, tenant.ErrTenantScopeMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.CodeNotFound},
		{"missing tenant", tenant.ErrTenantIDRequired, shared.CodeValidation},
		{"pgx serialization failure", &pgconn.PgError{Code: "40001"}, shared.CodeConcurrentModification},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}, shared.CodeConcurrentModification},
		{"pq lock not available", &pq.Error{Code: "55P03"}, shared.CodeConcurrentModification},
		{"foreign key", &pgconn.PgError{Code: "23503"}, shared.CodeNotFound},
		{"unique", &pq.Error{Code: "23505"}, shared.CodeValidation},
		{"check", &pgconn.PgError{Code: "23514"}, shared.CodeValidation},
		{"not null", &pgconn.PgError{Code: "23502"}, shared.CodeValidation},
		{"bad uuid text", &pgconn.PgError{Code: "22P02"}, shared.CodeValidation},
		{"wrapped pgx error", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23514"}), shared.CodeValidation},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), shared.CodeNotFound},
		{"sqlite unique", errors.New("UNIQUE constraint failed: purchase_orders.order_number"), shared.CodeValidation},
		{"sqlite check", errors.New("CHECK constraint failed: file_size > 0"), shared.CodeValidation},
		{"sqlite locked", errors.New("database is locked"), shared.CodeConcurrentModification},
		{"domain error passes through", shared.ErrInvalidTransition, shared.CodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err, "op", "purchase order")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, shared.ErrorCode(err))
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil, "op", "x"))
	})

	t.Run("unknown errors are wrapped with the operation", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translateError(cause, "save purchase order transition", "purchase order")
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "save purchase order transition")
		assert.Empty(t, shared.ErrorCode(err))
	})

	t.Run("driver cause stays reachable", func(t *testing.T) {
		cause := &pgconn.PgError{Code: "40001"}
		err := translateError(cause, "op", "purchase order")
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(err, &pgErr))
	})
}
