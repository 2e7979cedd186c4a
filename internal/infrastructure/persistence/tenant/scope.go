// Package tenant provides tenant partitioning for GORM.
//
// Every purchasing table carries a tenant_id column. Repositories never rely on
// an ambient tenant: the tenant is passed explicitly and applied per statement.
//
// Usage:
//
//	tdb := tenant.NewTenantDB(gormDB)
//	tdb.ForTenant(ctx, tenantID).Find(&orders) // WHERE tenant_id = '...'
//
// The Guard callback in this package rejects statements on partitioned tables
// that lack a tenant_id condition, so a forgotten scope fails loudly instead of
// leaking rows across tenants.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the partition column present on every tenant-owned table
const Column = "tenant_id"

// ErrTenantIDRequired is returned when a tenant-scoped operation gets a nil tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

const ownershipLookupKey = "tenant:ownership_lookup"

// TenantScope applies tenant filtering to GORM queries
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", tenantID)
	}
}

// TenantDB wraps GORM DB with explicit tenant scoping
type TenantDB struct {
	db *gorm.DB
}

// NewTenantDB creates a new TenantDB
func NewTenantDB(db *gorm.DB) *TenantDB {
	return &TenantDB{db: db}
}

// DB returns the underlying GORM DB without tenant scoping.
// Only tables that are not partitioned (tenants, schema_migrations) may be
// touched through it.
func (t *TenantDB) DB() *gorm.DB {
	return t.db
}

// ForTenant returns a single-use DB scoped to tenantID. A nil tenant yields a
// DB that fails every operation with ErrTenantIDRequired.
func (t *TenantDB) ForTenant(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	db := t.db.WithContext(ctx)
	if tenantID == uuid.Nil {
		_ = db.AddError(ErrTenantIDRequired)
		return db
	}
	return db.Scopes(TenantScope(tenantID))
}

// Transaction runs fn in a database transaction on behalf of tenantID. The
// transaction handle is not pre-scoped; fn applies TenantScope per statement
// so conditions do not accumulate across statements.
func (t *TenantDB) Transaction(ctx context.Context, tenantID uuid.UUID, fn func(tx *gorm.DB) error) error {
	if tenantID == uuid.Nil {
		return ErrTenantIDRequired
	}
	return t.db.WithContext(ctx).Transaction(fn)
}

// OwnershipLookup returns a single-use DB that may read partitioned tables
// without a tenant condition. It exists only to resolve which tenant owns a
// row; callers must select the tenant_id column and nothing else.
func (t *TenantDB) OwnershipLookup(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Set(ownershipLookupKey, true)
}

func isOwnershipLookup(db *gorm.DB) bool {
	v, ok := db.Get(ownershipLookupKey)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
