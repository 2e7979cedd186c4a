package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "github.com/erp/purchasing"

// Span attribute keys
const (
	AttrTenantID    = "purchasing.tenant_id"
	AttrOrderID     = "purchasing.order_id"
	AttrTargetState = "purchasing.target_status"
	AttrErrorCode   = "purchasing.error_code"
)

// StartServiceSpan starts a span named {service}.{method} carrying the tenant
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "transition", tenantID)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, tenantID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(AttrTenantID, tenantID.String()))
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx,
		fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks the span failed. Domain errors also carry their code, so
// rejected transitions can be told apart from infrastructure failures.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	if code := shared.ErrorCode(err); code != "" {
		span.SetAttributes(attribute.String(AttrErrorCode, code))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace ID of the span in ctx, or ""
func GetTraceID(ctx context.Context) string {
	traceID := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
