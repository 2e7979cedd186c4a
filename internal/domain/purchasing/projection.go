package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Projection is a read-side view of an order's progress. It has no storage
// of its own and is rebuilt on every query.
type Projection struct {
	OrderID             uuid.UUID
	TenantID            uuid.UUID
	OrderNumber         string
	Status              OrderStatus
	LatestEntry         *StatusHistoryEntry
	AttachmentCount     int64
	ReceivedItemCount   int
	TotalItemCount      int
	ReceptionPercentage decimal.Decimal
}

// NewProjection combines an order, its latest ledger entry and its attachment
// count into a Projection.
func NewProjection(order *PurchaseOrder, latest *StatusHistoryEntry, attachmentCount int64) *Projection {
	received := order.ReceivedItemCount()
	total := len(order.Items)
	return &Projection{
		OrderID:             order.ID,
		TenantID:            order.TenantID,
		OrderNumber:         order.OrderNumber,
		Status:              order.Status,
		LatestEntry:         latest,
		AttachmentCount:     attachmentCount,
		ReceivedItemCount:   received,
		TotalItemCount:      total,
		ReceptionPercentage: ReceptionPercentage(received, total),
	}
}

// ReceptionPercentage returns round(received*100/total, 2), or 0 when total is 0
func ReceptionPercentage(received, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(received)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// IsConsistent reports whether the latest ledger entry agrees with the order
// status. It is false only if a write bypassed the lifecycle.
func (p *Projection) IsConsistent() bool {
	return p.LatestEntry != nil && p.LatestEntry.ToStatus == p.Status
}
