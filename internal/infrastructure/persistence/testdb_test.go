package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/purchasing/internal/domain/identity"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqliteSchema mirrors migrations/ closely enough for behavioural tests:
// same columns, cascades and CHECK constraints.
var sqliteSchema = []string{
	`CREATE TABLE tenants (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE purchase_orders (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
		order_number TEXT NOT NULL,
		supplier_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','preparing','shipped','partially_received','received','verified','invoiced','paid','cancelled','overdue')),
		total_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		confirmation_number TEXT,
		tracking_number TEXT,
		carrier TEXT,
		estimated_delivery_date DATETIME,
		package_count INTEGER,
		package_condition TEXT,
		invoice_number TEXT,
		invoice_amount TEXT,
		tax_amount TEXT,
		payment_due_date DATETIME,
		payment_method TEXT,
		payment_reference TEXT,
		payment_amount TEXT,
		payment_date DATETIME,
		cancellation_reason TEXT,
		received_by TEXT,
		verified_by TEXT,
		confirmed_at DATETIME,
		shipped_at DATETIME,
		received_at DATETIME,
		verified_at DATETIME,
		invoiced_at DATETIME,
		paid_at DATETIME,
		cancelled_at DATETIME,
		created_by TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (id, tenant_id),
		UNIQUE (tenant_id, order_number)
	)`,
	`CREATE TABLE purchase_order_items (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		line_number INTEGER NOT NULL,
		product_id TEXT,
		product_name TEXT,
		unit TEXT,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL DEFAULT '0',
		amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		quantity_received TEXT,
		item_condition TEXT CHECK (item_condition IS NULL OR item_condition IN ('complete','partial','missing','damaged')),
		quality_status TEXT CHECK (quality_status IS NULL OR quality_status IN ('good','acceptable','poor','rejected')),
		reception_notes TEXT,
		quality_notes TEXT,
		received_by TEXT,
		received_at DATETIME,
		verified_by TEXT,
		verified_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (order_id, tenant_id) REFERENCES purchase_orders (id, tenant_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE purchase_order_status_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		tenant_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT NOT NULL CHECK (to_status IN ('pending','confirmed','preparing','shipped','partially_received','received','verified','invoiced','paid','cancelled','overdue')),
		changed_by TEXT NOT NULL,
		changed_at DATETIME NOT NULL,
		notes TEXT,
		metadata TEXT,
		FOREIGN KEY (order_id, tenant_id) REFERENCES purchase_orders (id, tenant_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE purchase_order_attachments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		storage_path TEXT NOT NULL CHECK (length(trim(storage_path)) > 0),
		url TEXT,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL CHECK (file_size > 0),
		mime_type TEXT NOT NULL,
		attachment_type TEXT NOT NULL,
		related_status TEXT,
		description TEXT,
		metadata TEXT,
		uploaded_by TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (order_id, tenant_id) REFERENCES purchase_orders (id, tenant_id) ON DELETE CASCADE
	)`,
}

// setupSQLiteDB opens an in-memory database with the tenant guard installed
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := Open(sqlite.Open("file::memory:?_foreign_keys=on"), nil, gormlogger.Silent, false)
	require.NoError(t, err)

	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	// one connection so every statement sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.DB.Exec("PRAGMA foreign_keys = ON").Error)
	for _, ddl := range sqliteSchema {
		require.NoError(t, database.DB.Exec(ddl).Error)
	}
	return database.DB
}

// setupMockDB opens a postgres-dialect gorm DB over sqlmock with the guard installed
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), nil, gormlogger.Silent, false)
	require.NoError(t, err)

	return database.DB, mock, mockDB
}

func seedTenant(t *testing.T, db *gorm.DB, code string) *identity.Tenant {
	t.Helper()
	tn, err := identity.NewTenant(code, code+" Ltd")
	require.NoError(t, err)
	require.NoError(t, NewGormTenantRepository(db).Save(context.Background(), tn))
	return tn
}

func newTestOrder(t *testing.T, tenantID, actorID uuid.UUID, number string, quantities ...int64) *purchasing.PurchaseOrder {
	t.Helper()
	if len(quantities) == 0 {
		quantities = []int64{10, 5}
	}
	inputs := make([]purchasing.LineItemInput, len(quantities))
	for i, q := range quantities {
		inputs[i] = purchasing.LineItemInput{
			ProductName: "Widget",
			Unit:        "pcs",
			Quantity:    decimal.NewFromInt(q),
			UnitPrice:   decimal.NewFromFloat(2.5),
		}
	}
	order, err := purchasing.NewPurchaseOrder(tenantID, actorID, number, nil, inputs, "")
	require.NoError(t, err)
	return order
}

func seedOrder(t *testing.T, db *gorm.DB, tenantID uuid.UUID, number string, quantities ...int64) *purchasing.PurchaseOrder {
	t.Helper()
	order := newTestOrder(t, tenantID, uuid.New(), number, quantities...)
	require.NoError(t, NewGormPurchaseOrderRepository(db).Create(context.Background(), order))
	return order
}
