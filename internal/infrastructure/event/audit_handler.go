package event

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per lifecycle event. It is a
// wildcard subscriber; events it does not know are logged with the envelope
// fields only.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns nil so the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *purchasing.PurchaseOrderCreatedEvent:
		fields = append(fields,
			zap.String("order_number", e.OrderNumber),
			zap.Int("item_count", e.ItemCount),
			zap.String("actor_id", e.CreatedBy.String()),
		)
	case *purchasing.PurchaseOrderStatusChangedEvent:
		fields = append(fields,
			zap.String("from_status", e.FromStatus.String()),
			zap.String("to_status", e.ToStatus.String()),
			zap.String("actor_id", e.ChangedBy.String()),
			zap.Any("metadata", e.Metadata),
		)
	case *purchasing.LineItemReceivedEvent:
		fields = append(fields,
			zap.String("line_item_id", e.LineItemID.String()),
			zap.String("quantity_received", e.QuantityReceived.String()),
			zap.String("ordered_quantity", e.OrderedQuantity.String()),
			zap.String("item_condition", e.Condition.String()),
		)
	case *purchasing.LineItemVerifiedEvent:
		fields = append(fields,
			zap.String("line_item_id", e.LineItemID.String()),
			zap.String("quality_status", e.QualityStatus.String()),
		)
	case *purchasing.AttachmentAddedEvent:
		fields = append(fields,
			zap.String("attachment_id", e.AttachmentID.String()),
			zap.String("attachment_type", e.AttachmentType.String()),
		)
	case *purchasing.PurchaseOrderDeletedEvent:
		fields = append(fields, zap.String("actor_id", e.DeletedBy.String()))
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
