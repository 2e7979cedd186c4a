package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	types []string
	err   error
	mu    sync.Mutex
	seen  []string
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event.EventType())
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) handled() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func newEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, purchasing.AggregateTypePurchaseOrder, uuid.New(), uuid.New())
	return &e
}

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := startedBus(t)
	changed := &recordingHandler{types: []string{purchasing.EventTypePurchaseOrderStatusChanged}}
	all := &recordingHandler{}
	bus.Subscribe(changed)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newEvent(purchasing.EventTypePurchaseOrderCreated),
		newEvent(purchasing.EventTypePurchaseOrderStatusChanged),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{purchasing.EventTypePurchaseOrderStatusChanged}, changed.handled())
	assert.Equal(t, []string{
		purchasing.EventTypePurchaseOrderCreated,
		purchasing.EventTypePurchaseOrderStatusChanged,
	}, all.handled())
}

func TestInMemoryEventBus_HandlerFailuresAreJoined(t *testing.T) {
	bus := startedBus(t)
	boom := errors.New("boom")
	failing := &recordingHandler{err: boom}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newEvent("A"), newEvent("B"))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, healthy.handled(), 2, "other handlers still receive every event")
}

func TestInMemoryEventBus_RecoversPanics(t *testing.T) {
	bus := startedBus(t)
	bus.Subscribe(&shared.HandlerFunc{Fn: func(context.Context, shared.DomainEvent) error {
		panic("handler bug")
	}})
	after := &recordingHandler{}
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), newEvent("A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panicked")
	assert.Len(t, after.handled(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t)
	h := &recordingHandler{types: []string{"A"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newEvent("A")))
	assert.Empty(t, h.handled())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), newEvent("A")), ErrBusStopped)

	require.NoError(t, bus.Start(context.Background()))
	require.NoError(t, bus.Publish(context.Background(), newEvent("A")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.ErrorIs(t, bus.Publish(context.Background(), newEvent("A")), ErrBusStopped)
}

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	order, err := purchasing.NewPurchaseOrder(uuid.New(), uuid.New(), "PO-20261018-0001", nil,
		[]purchasing.LineItemInput{{ProductName: "Bolt", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(1)}}, "")
	require.NoError(t, err)
	require.NoError(t, order.Transition(purchasing.OrderStatusConfirmed, uuid.New(), purchasing.TransitionDetails{}, nil, ""))

	require.NoError(t, bus.Publish(context.Background(), order.GetDomainEvents()...))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, purchasing.EventTypePurchaseOrderCreated, entries[0].Message)
	assert.Equal(t, "PO-20261018-0001", entries[0].ContextMap()["order_number"])
	assert.Equal(t, purchasing.EventTypePurchaseOrderStatusChanged, entries[1].Message)
	assert.Equal(t, "confirmed", entries[1].ContextMap()["to_status"])
	assert.Equal(t, order.TenantID.String(), entries[1].ContextMap()["tenant_id"])
}
