package logger

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	tenantIDKey
	actorIDKey
)

// WithContext attaches the base logger to ctx. Correlation ids are kept as
// separate values and bound once, by L.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the base logger of ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.NewNop()
}

// WithRequestID tags every log line written through ctx with request_id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTenant tags every log line written through ctx with tenant_id
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	if tenantID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, tenantIDKey, tenantID.String())
}

// WithActor tags every log line written through ctx with actor_id
func WithActor(ctx context.Context, actorID uuid.UUID) context.Context {
	if actorID == uuid.Nil {
		return ctx
	}
	return context.WithValue(ctx, actorIDKey, actorID.String())
}

// RequestID returns the request id bound to ctx, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// TenantID returns the tenant id bound to ctx, if any
func TenantID(ctx context.Context) string {
	id, _ := ctx.Value(tenantIDKey).(string)
	return id
}

// ActorID returns the actor id bound to ctx, if any
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// correlationFields lists the ids bound to ctx, each at most once
func correlationFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := TenantID(ctx); id != "" {
		fields = append(fields, zap.String("tenant_id", id))
	}
	if id := ActorID(ctx); id != "" {
		fields = append(fields, zap.String("actor_id", id))
	}
	return fields
}

// L returns the logger of ctx carrying its trace, request, tenant and actor ids.
//
//	logger.L(ctx).Info("Purchase order created", zap.String("order_id", id))
func L(ctx context.Context) *zap.Logger {
	log := FromContext(ctx)
	if fields := correlationFields(ctx); len(fields) > 0 {
		log = log.With(fields...)
	}
	return log
}
