package telemetry

import (
	"context"
	"testing"

	"github.com/erp/purchasing/internal/domain/shared"
	infraconfig "github.com/erp/purchasing/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestLifecycleMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewLifecycleMetrics(provider.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "pending", "confirmed")
	m.RecordTransition(ctx, "pending", "confirmed")
	m.RecordRejected(ctx, "transition", shared.CodeInvalidTransition)
	m.RecordRejected(ctx, "transition", "")
	m.RecordReception(ctx, 2, decimal.NewFromFloat(66.67))
	m.RecordAttachment(ctx, "invoice")

	data := collect(t, reader)

	transitions := data["purchasing_order_transitions_total"].(metricdata.Sum[int64])
	require.Len(t, transitions.DataPoints, 1)
	assert.Equal(t, int64(2), transitions.DataPoints[0].Value)
	to, ok := transitions.DataPoints[0].Attributes.Value(AttrKeyToStatus)
	require.True(t, ok)
	assert.Equal(t, "confirmed", to.AsString())

	rejected := data["purchasing_operations_rejected_total"].(metricdata.Sum[int64])
	require.Len(t, rejected.DataPoints, 1, "errors without a domain code are not counted")
	assert.Equal(t, int64(1), rejected.DataPoints[0].Value)

	received := data["purchasing_items_received_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(2), received.DataPoints[0].Value)

	pct := data["purchasing_reception_percentage"].(metricdata.Histogram[float64])
	require.Len(t, pct.DataPoints, 1)
	assert.Equal(t, uint64(1), pct.DataPoints[0].Count)
	assert.InDelta(t, 66.67, pct.DataPoints[0].Sum, 0.001)

	attachments := data["purchasing_attachments_added_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(1), attachments.DataPoints[0].Value)
}

func TestLifecycleMetrics_NilIsNoop(t *testing.T) {
	var m *LifecycleMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordTransition(ctx, "a", "b")
		m.RecordRejected(ctx, "op", "X")
		m.RecordReception(ctx, 1, decimal.NewFromInt(100))
		m.RecordAttachment(ctx, "other")
	})

	_, err := NewLifecycleMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tenantID := uuid.New()
	ctx, span := StartServiceSpan(context.Background(), "purchase_order", "transition", tenantID,
		attribute.String(AttrTargetState, "shipped"))
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, shared.ErrInvalidTransition)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "purchase_order.transition", ended[0].Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, tenantID.String(), attrs[AttrTenantID])
	assert.Equal(t, "shipped", attrs[AttrTargetState])
	assert.Equal(t, shared.CodeInvalidTransition, attrs[AttrErrorCode])
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), infraconfig.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestRegisterDBTracing_DisabledIsNoop(t *testing.T) {
	assert.NoError(t, RegisterDBTracing(nil, infraconfig.TelemetryConfig{Enabled: true}, zap.NewNop()))
	assert.NoError(t, RegisterDBTracing(nil, infraconfig.TelemetryConfig{DBTraceEnabled: true}, zap.NewNop()))
}
