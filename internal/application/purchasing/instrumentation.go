package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// instrumentation holds the optional collaborators shared by all services.
// Both are nil until set and every use is nil-safe.
type instrumentation struct {
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LifecycleMetrics
}

// SetEventPublisher sets the event publisher for publishing domain events
func (i *instrumentation) SetEventPublisher(publisher shared.EventPublisher) {
	i.eventPublisher = publisher
}

// SetLifecycleMetrics sets the lifecycle metrics collector
func (i *instrumentation) SetLifecycleMetrics(m *telemetry.LifecycleMetrics) {
	i.metrics = m
}

// publish delivers events after the unit of work committed. A failure is
// logged and never reported to the caller: the data change already happened.
func (i *instrumentation) publish(ctx context.Context, log *zap.Logger, events ...shared.DomainEvent) {
	if i.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := i.eventPublisher.Publish(ctx, events...); err != nil {
		log.Error("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// publishPending publishes and clears the events the aggregate collected
func (i *instrumentation) publishPending(ctx context.Context, log *zap.Logger, aggregate shared.AggregateRoot) {
	i.publish(ctx, log, aggregate.GetDomainEvents()...)
	aggregate.ClearDomainEvents()
}

// fail marks the span and counts domain rejections before handing err back
func (i *instrumentation) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	telemetry.RecordError(span, err)
	i.metrics.RecordRejected(ctx, operation, shared.ErrorCode(err))
	return err
}

// begin binds tenant and actor to ctx for logging and opens the service span
func begin(ctx context.Context, service, method string, tenantID, actorID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx = logger.WithActor(logger.WithTenant(ctx, tenantID), actorID)
	return telemetry.StartServiceSpan(ctx, service, method, tenantID, attrs...)
}

// operationLogger returns the logger of ctx with fields added. Reads that
// skip begin still get tenant_id.
func operationLogger(ctx context.Context, tenantID uuid.UUID, fields ...zap.Field) *zap.Logger {
	if logger.TenantID(ctx) == "" {
		ctx = logger.WithTenant(ctx, tenantID)
	}
	return logger.L(ctx).With(fields...)
}
