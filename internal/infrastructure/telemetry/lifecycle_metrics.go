package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when LifecycleMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// MeterName names the meter used for lifecycle instruments
const MeterName = "github.com/erp/purchasing"

// Metric attribute keys
var (
	AttrKeyFromStatus     = attribute.Key("from_status")
	AttrKeyToStatus       = attribute.Key("to_status")
	AttrKeyOperation      = attribute.Key("operation")
	AttrKeyErrorCode      = attribute.Key("error_code")
	AttrKeyAttachmentType = attribute.Key("attachment_type")
)

// LifecycleMetrics records purchase-order lifecycle signals. A nil
// *LifecycleMetrics is valid and records nothing.
type LifecycleMetrics struct {
	transitions         metric.Int64Counter
	rejected            metric.Int64Counter
	itemsReceived       metric.Int64Counter
	attachments         metric.Int64Counter
	receptionPercentage metric.Float64Histogram
}

// NewLifecycleMetrics creates the lifecycle instruments on meter
func NewLifecycleMetrics(meter metric.Meter) (*LifecycleMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &LifecycleMetrics{}
	var err error

	if m.transitions, err = meter.Int64Counter("purchasing_order_transitions_total",
		metric.WithDescription("Committed purchase order status transitions"),
		metric.WithUnit("{transitions}")); err != nil {
		return nil, err
	}
	if m.rejected, err = meter.Int64Counter("purchasing_operations_rejected_total",
		metric.WithDescription("Lifecycle operations rejected with a domain error"),
		metric.WithUnit("{operations}")); err != nil {
		return nil, err
	}
	if m.itemsReceived, err = meter.Int64Counter("purchasing_items_received_total",
		metric.WithDescription("Line item receptions recorded"),
		metric.WithUnit("{items}")); err != nil {
		return nil, err
	}
	if m.attachments, err = meter.Int64Counter("purchasing_attachments_added_total",
		metric.WithDescription("Attachments registered on purchase orders"),
		metric.WithUnit("{attachments}")); err != nil {
		return nil, err
	}
	if m.receptionPercentage, err = meter.Float64Histogram("purchasing_reception_percentage",
		metric.WithDescription("Reception percentage observed after a reception"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(0, 25, 50, 75, 90, 100)); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordTransition counts one committed transition
func (m *LifecycleMetrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(AttrKeyFromStatus.String(from), AttrKeyToStatus.String(to)))
}

// RecordRejected counts an operation refused with a domain error code
func (m *LifecycleMetrics) RecordRejected(ctx context.Context, operation, code string) {
	if m == nil || code == "" {
		return
	}
	m.rejected.Add(ctx, 1, metric.WithAttributes(AttrKeyOperation.String(operation), AttrKeyErrorCode.String(code)))
}

// RecordReception counts received items and observes the resulting order percentage
func (m *LifecycleMetrics) RecordReception(ctx context.Context, items int, percentage decimal.Decimal) {
	if m == nil {
		return
	}
	if items > 0 {
		m.itemsReceived.Add(ctx, int64(items))
	}
	m.receptionPercentage.Record(ctx, percentage.InexactFloat64())
}

// RecordAttachment counts an attachment by type
func (m *LifecycleMetrics) RecordAttachment(ctx context.Context, attachmentType string) {
	if m == nil {
		return
	}
	m.attachments.Add(ctx, 1, metric.WithAttributes(AttrKeyAttachmentType.String(attachmentType)))
}
