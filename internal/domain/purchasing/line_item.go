package purchasing

import (
	"time"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QualityStatus is the quality assessment of a received line item
type QualityStatus string

const (
	QualityStatusGood       QualityStatus = "good"
	QualityStatusAcceptable QualityStatus = "acceptable"
	QualityStatusPoor       QualityStatus = "poor"
	QualityStatusRejected   QualityStatus = "rejected"
)

// IsValid checks if the quality status is a known value
func (q QualityStatus) IsValid() bool {
	switch q {
	case QualityStatusGood, QualityStatusAcceptable, QualityStatusPoor, QualityStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of QualityStatus
func (q QualityStatus) String() string {
	return string(q)
}

// ItemCondition is the physical condition of a line item on arrival
type ItemCondition string

const (
	ItemConditionComplete ItemCondition = "complete"
	ItemConditionPartial  ItemCondition = "partial"
	ItemConditionMissing  ItemCondition = "missing"
	ItemConditionDamaged  ItemCondition = "damaged"
)

// IsValid checks if the item condition is a known value
func (c ItemCondition) IsValid() bool {
	switch c {
	case ItemConditionComplete, ItemConditionPartial, ItemConditionMissing, ItemConditionDamaged:
		return true
	}
	return false
}

// String returns the string representation of ItemCondition
func (c ItemCondition) String() string {
	return string(c)
}

// LineItemInput carries the data needed to create a line item
type LineItemInput struct {
	ProductID   *uuid.UUID
	ProductName string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Notes       string
}

// LineItem is an ordered product line. It is owned by its PurchaseOrder and
// mutated only through reception and verification.
type LineItem struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	OrderID          uuid.UUID
	LineNumber       int
	ProductID        *uuid.UUID
	ProductName      string
	Unit             string
	OrderedQuantity  decimal.Decimal
	UnitPrice        decimal.Decimal
	Amount           decimal.Decimal
	Notes            string
	QuantityReceived *decimal.Decimal
	ItemCondition    *ItemCondition
	QualityStatus    *QualityStatus
	ReceptionNotes   string
	QualityNotes     string
	ReceivedBy       *uuid.UUID
	ReceivedAt       *time.Time
	VerifiedBy       *uuid.UUID
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewLineItem creates a line item for an order
func NewLineItem(tenantID, orderID uuid.UUID, lineNumber int, in LineItemInput) (*LineItem, error) {
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("line %d: quantity must be positive", lineNumber)
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("line %d: unit price cannot be negative", lineNumber)
	}
	if len(in.ProductName) > 200 {
		return nil, shared.NewValidationError("line %d: product name cannot exceed 200 characters", lineNumber)
	}
	if len(in.Unit) > 20 {
		return nil, shared.NewValidationError("line %d: unit cannot exceed 20 characters", lineNumber)
	}

	now := time.Now()
	return &LineItem{
		ID:              uuid.New(),
		TenantID:        tenantID,
		OrderID:         orderID,
		LineNumber:      lineNumber,
		ProductID:       in.ProductID,
		ProductName:     in.ProductName,
		Unit:            in.Unit,
		OrderedQuantity: in.Quantity,
		UnitPrice:       in.UnitPrice,
		Amount:          in.Quantity.Mul(in.UnitPrice),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetTenantID returns the owning tenant
func (i *LineItem) GetTenantID() uuid.UUID {
	return i.TenantID
}

// Reception describes the goods counted for one line item
type Reception struct {
	QuantityReceived decimal.Decimal
	Condition        ItemCondition
	QualityStatus    *QualityStatus
	Notes            string
}

// RecordReception records the quantity actually received. It never changes the
// parent order status; callers decide that from the aggregated item state.
func (i *LineItem) RecordReception(r Reception, actorID uuid.UUID, at time.Time) error {
	if actorID == uuid.Nil {
		return shared.NewValidationError("actor is required")
	}
	if r.QuantityReceived.IsNegative() {
		return shared.NewValidationError("quantity received cannot be negative")
	}
	if !r.Condition.IsValid() {
		return shared.NewValidationError("invalid item condition %q", r.Condition)
	}
	if r.QualityStatus != nil && !r.QualityStatus.IsValid() {
		return shared.NewValidationError("invalid quality status %q", *r.QualityStatus)
	}

	qty := r.QuantityReceived
	condition := r.Condition
	i.QuantityReceived = &qty
	i.ItemCondition = &condition
	if r.QualityStatus != nil {
		quality := *r.QualityStatus
		i.QualityStatus = &quality
	}
	i.ReceptionNotes = r.Notes
	i.ReceivedBy = &actorID
	i.ReceivedAt = &at
	i.UpdatedAt = at
	return nil
}

// Verify records the quality assessment. It is independent of reception, so an
// item can be verified before or after it was counted.
func (i *LineItem) Verify(quality QualityStatus, notes string, actorID uuid.UUID, at time.Time) error {
	if actorID == uuid.Nil {
		return shared.NewValidationError("actor is required")
	}
	if !quality.IsValid() {
		return shared.NewValidationError("invalid quality status %q", quality)
	}

	i.QualityStatus = &quality
	i.QualityNotes = notes
	i.VerifiedBy = &actorID
	i.VerifiedAt = &at
	i.UpdatedAt = at
	return nil
}

// IsTouched returns true once any reception has been recorded
func (i *LineItem) IsTouched() bool {
	return i.QuantityReceived != nil
}

// IsFullyReceived returns true if received quantity covers the ordered quantity
func (i *LineItem) IsFullyReceived() bool {
	return i.QuantityReceived != nil && i.QuantityReceived.GreaterThanOrEqual(i.OrderedQuantity)
}

// IsRejected returns true if quality control rejected the item
func (i *LineItem) IsRejected() bool {
	return i.QualityStatus != nil && *i.QualityStatus == QualityStatusRejected
}

// RemainingQuantity returns the quantity still to be received
func (i *LineItem) RemainingQuantity() decimal.Decimal {
	if i.QuantityReceived == nil {
		return i.OrderedQuantity
	}
	remaining := i.OrderedQuantity.Sub(*i.QuantityReceived)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
