package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormLineItemRepository_SaveReception(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormLineItemRepository(db)
	ctx := context.Background()
	tn := seedTenant(t, db, "ACME")
	order := seedOrder(t, db, tn.ID, "PO-1")

	item, err := repo.FindByIDForTenant(ctx, tn.ID, order.Items[0].ID)
	require.NoError(t, err)
	assert.False(t, item.IsTouched())

	actor := uuid.New()
	require.NoError(t, item.RecordReception(purchasing.Reception{
		QuantityReceived: decimal.NewFromInt(4),
		Condition:        purchasing.ItemConditionPartial,
		Notes:            "short shipment",
	}, actor, time.Now()))
	require.NoError(t, repo.SaveReception(ctx, item))

	stored, err := repo.FindByIDForTenant(ctx, tn.ID, item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.QuantityReceived)
	assert.True(t, decimal.NewFromInt(4).Equal(*stored.QuantityReceived))
	assert.Equal(t, "short shipment", stored.ReceptionNotes)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.OrderedQuantity), "ordered quantity is untouched")
	assert.True(t, decimal.NewFromInt(6).Equal(stored.RemainingQuantity()))

	parent, err := NewGormPurchaseOrderRepository(db).FindByIDForTenant(ctx, tn.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, parent.Version, "an item reception moves the order version")
}

func TestGormLineItemRepository_SaveReceptionMissingOrder(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()

	item := newTestOrder(t, uuid.New(), uuid.New(), "PO-1").Items[0]
	require.NoError(t, item.RecordReception(purchasing.Reception{
		QuantityReceived: decimal.NewFromInt(1),
		Condition:        purchasing.ItemConditionComplete,
	}, uuid.New(), time.Now()))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "purchase_orders" SET "version"=version \+ 1 WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(item.OrderID.String(), item.TenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewGormLineItemRepository(db).SaveReception(context.Background(), &item)
	assert.True(t, shared.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "the item row is not written when the order is missing")
}

func TestGormLineItemRepository_TenantIsolation(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewGormLineItemRepository(db)
	ctx := context.Background()
	owner := seedTenant(t, db, "OWNER")
	other := seedTenant(t, db, "OTHER")
	order := seedOrder(t, db, owner.ID, "PO-1")

	_, err := repo.FindByIDForTenant(ctx, other.ID, order.Items[0].ID)
	assert.True(t, shared.IsNotFound(err))

	foreign := order.Items[0]
	foreign.TenantID = other.ID
	assert.True(t, shared.IsNotFound(repo.SaveReception(ctx, &foreign)))

	_, err = repo.FindByIDForTenant(ctx, uuid.Nil, order.Items[0].ID)
	assert.True(t, shared.IsValidation(err))
}
