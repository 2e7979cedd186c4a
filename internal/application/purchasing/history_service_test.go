package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (f *fixture) historyService() *HistoryService {
	return NewHistoryService(f.orders, f.history, f.attachments, f.guard)
}

func TestHistoryService_Projection(t *testing.T) {
	t.Run("two of four items received is fifty percent", func(t *testing.T) {
		f := newFixture()
		order := f.loadedOrder(t, []int64{1, 2, 3, 4}, purchasing.OrderStatusConfirmed, purchasing.OrderStatusShipped)
		now := time.Now()
		for i := 0; i < 2; i++ {
			require.NoError(t, order.Items[i].RecordReception(purchasing.Reception{
				QuantityReceived: decimal.NewFromInt(1),
				Condition:        purchasing.ItemConditionComplete,
			}, f.actorID, now))
		}
		f.ownsOrder(order)

		confirmed := purchasing.OrderStatusConfirmed
		latest := &purchasing.StatusHistoryEntry{
			ID: uuid.New(), Sequence: 3, TenantID: f.tenantID, OrderID: order.ID,
			FromStatus: &confirmed, ToStatus: purchasing.OrderStatusShipped, ChangedBy: f.actorID, ChangedAt: now,
		}
		f.history.On("Latest", mock.Anything, f.tenantID, order.ID).Return(latest, nil)
		f.attachments.On("CountByOrder", mock.Anything, f.tenantID, order.ID).Return(int64(3), nil)

		resp, err := f.historyService().Projection(context.Background(), OrderRef{TenantID: f.tenantID, OrderID: order.ID})
		require.NoError(t, err)

		assert.Equal(t, "shipped", resp.Status)
		assert.Equal(t, 2, resp.ReceivedItemCount)
		assert.Equal(t, 4, resp.TotalItemCount)
		assert.Equal(t, int64(3), resp.AttachmentCount)
		assert.True(t, decimal.RequireFromString("50.00").Equal(resp.ReceptionPercentage))
		require.NotNil(t, resp.LatestEntry)
		assert.Equal(t, "shipped", resp.LatestEntry.ToStatus)
		require.NotNil(t, resp.LatestEntry.FromStatus)
		assert.Equal(t, "confirmed", *resp.LatestEntry.FromStatus)
	})

	t.Run("missing ledger leaves the latest entry empty", func(t *testing.T) {
		f := newFixture()
		order := f.loadedOrder(t, []int64{1})
		f.ownsOrder(order)
		f.history.On("Latest", mock.Anything, f.tenantID, order.ID).Return(nil, shared.ErrNotFound)
		f.attachments.On("CountByOrder", mock.Anything, f.tenantID, order.ID).Return(int64(0), nil)

		resp, err := f.historyService().Projection(context.Background(), OrderRef{TenantID: f.tenantID, OrderID: order.ID})
		require.NoError(t, err)
		assert.Nil(t, resp.LatestEntry)
		assert.True(t, resp.ReceptionPercentage.IsZero())
	})

	t.Run("foreign order never reaches the repositories", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(uuid.New(), nil)

		_, err := f.historyService().Projection(context.Background(), OrderRef{TenantID: f.tenantID, OrderID: orderID})
		assert.True(t, shared.IsIsolationViolation(err))
		f.orders.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
		f.history.AssertNotCalled(t, "Latest", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHistoryService_History(t *testing.T) {
	f := newFixture()
	orderID := uuid.New()
	f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)

	pending := purchasing.OrderStatusPending
	at := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	entries := []purchasing.StatusHistoryEntry{
		{ID: uuid.New(), Sequence: 2, OrderID: orderID, FromStatus: &pending, ToStatus: purchasing.OrderStatusConfirmed, ChangedAt: at.Add(time.Hour),
			Metadata: purchasing.Metadata{"confirmation_number": "C-7", "x-extra": "kept"}},
		{ID: uuid.New(), Sequence: 1, OrderID: orderID, ToStatus: purchasing.OrderStatusPending, ChangedAt: at},
	}
	f.history.On("ListByOrder", mock.Anything, f.tenantID, orderID).Return(entries, nil)
	f.history.On("Latest", mock.Anything, f.tenantID, orderID).Return(&entries[0], nil)

	svc := f.historyService()
	resp, err := svc.History(context.Background(), OrderRef{TenantID: f.tenantID, OrderID: orderID})
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, "confirmed", resp[0].ToStatus)
	assert.Equal(t, "kept", resp[0].Metadata["x-extra"])
	assert.Nil(t, resp[1].FromStatus)

	latest, err := svc.Latest(context.Background(), OrderRef{TenantID: f.tenantID, OrderID: orderID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Sequence)

	_, err = svc.History(context.Background(), OrderRef{OrderID: orderID})
	assert.True(t, shared.IsValidation(err))
}
