package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories translate
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
	sqlStateNotNullViolation     = "23502"
	sqlStateInvalidTextRep       = "22P02"
)

// translateError maps storage errors onto domain errors. what names the
// entity for messages ("purchase order", "attachment", ...). Unknown errors
// are wrapped with op context and returned as-is.
func translateError(err error, op, what string) error {
	if err == nil {
		return nil
	}

	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, what+" not found").WithCause(err)
	}
	if errors.Is(err, tenant.ErrTenantIDRequired) {
		return shared.NewValidationError("tenant is required").WithCause(err)
	}

	switch code := sqlState(err); code {
	case sqlStateSerializationFailure, sqlStateDeadlockDetected, sqlStateLockNotAvailable:
		return shared.ErrConcurrentModification.WithCause(err)
	case sqlStateForeignKeyViolation:
		return shared.NewDomainError(shared.CodeNotFound, "referenced record for "+what+" not found").WithCause(err)
	case sqlStateUniqueViolation:
		return shared.NewDuplicateError(what).WithCause(err)
	case sqlStateCheckViolation, sqlStateNotNullViolation, sqlStateInvalidTextRep:
		return shared.NewValidationError("invalid %s data", what).WithCause(err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// sqlState extracts a SQLSTATE from pgx, lib/pq or sqlite errors
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	// sqlite reports constraint failures by message only
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return sqlStateForeignKeyViolation
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return sqlStateUniqueViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return sqlStateCheckViolation
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return sqlStateNotNullViolation
	case strings.Contains(msg, "database is locked"):
		return sqlStateLockNotAvailable
	}
	return ""
}
