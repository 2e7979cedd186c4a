package purchasing

import (
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is the aggregate root of the purchasing lifecycle. Every
// status change goes through Transition, which records a pending history
// entry that the repository persists in the same unit of work.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	OrderNumber string
	SupplierID  *uuid.UUID
	Status      OrderStatus
	Items       []LineItem
	TotalAmount decimal.Decimal
	Notes       string

	// Logistics
	ConfirmationNumber    string
	TrackingNumber        string
	Carrier               string
	EstimatedDeliveryDate *time.Time
	PackageCount          *int
	PackageCondition      string

	// Invoicing and payment
	InvoiceNumber    string
	InvoiceAmount    *decimal.Decimal
	TaxAmount        *decimal.Decimal
	PaymentDueDate   *time.Time
	PaymentMethod    string
	PaymentReference string
	PaymentAmount    *decimal.Decimal
	PaymentDate      *time.Time

	CancellationReason string
	ReceivedBy         *uuid.UUID
	VerifiedBy         *uuid.UUID

	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	ReceivedAt  *time.Time
	VerifiedAt  *time.Time
	InvoicedAt  *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time

	pendingHistory []StatusHistoryEntry
	changedItems   []uuid.UUID
}

// NewPurchaseOrder creates an order in pending status together with its
// line items and the initial history entry.
func NewPurchaseOrder(tenantID, actorID uuid.UUID, orderNumber string, supplierID *uuid.UUID, items []LineItemInput, notes string) (*PurchaseOrder, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("actor is required")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewValidationError("order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewValidationError("order number cannot exceed 50 characters")
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("order must have at least one line item")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, actorID),
		OrderNumber:         orderNumber,
		SupplierID:          supplierID,
		Status:              OrderStatusPending,
		Items:               make([]LineItem, 0, len(items)),
		TotalAmount:         decimal.Zero,
		Notes:               notes,
	}

	for idx, in := range items {
		item, err := NewLineItem(tenantID, order.ID, idx+1, in)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
		order.TotalAmount = order.TotalAmount.Add(item.Amount)
	}

	order.pendingHistory = append(order.pendingHistory,
		newStatusHistoryEntry(order, nil, OrderStatusPending, actorID, order.CreatedAt, nil, notes))
	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order, actorID))

	return order, nil
}

// Transition moves the order to target. The transition must be an edge of the
// status graph; on success the matching timestamp is set and a history entry
// is queued.
func (o *PurchaseOrder) Transition(target OrderStatus, actorID uuid.UUID, details TransitionDetails, metadata Metadata, notes string) error {
	if !target.IsValid() {
		return shared.NewValidationError("invalid order status %q", target)
	}
	if actorID == uuid.Nil {
		return shared.NewValidationError("actor is required")
	}
	if target == OrderStatusCancelled && strings.TrimSpace(details.CancellationReason) == "" {
		return shared.NewValidationError("cancellation reason is required")
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(o.Status.String(), target.String())
	}

	now := time.Now()
	from := o.Status
	o.applyDetails(target, actorID, details, now)
	o.Status = target
	o.Touch(now)

	meta := details.metadataFor(target, metadata)
	o.pendingHistory = append(o.pendingHistory,
		newStatusHistoryEntry(o, &from, target, actorID, now, meta, notes))
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from, target, actorID, meta, now))

	return nil
}

func (o *PurchaseOrder) applyDetails(target OrderStatus, actorID uuid.UUID, d TransitionDetails, now time.Time) {
	switch target {
	case OrderStatusConfirmed:
		o.ConfirmedAt = &now
		if d.ConfirmationNumber != "" {
			o.ConfirmationNumber = d.ConfirmationNumber
		}
		if d.EstimatedDeliveryDate != nil {
			o.EstimatedDeliveryDate = d.EstimatedDeliveryDate
		}
	case OrderStatusShipped:
		o.ShippedAt = &now
		if d.TrackingNumber != "" {
			o.TrackingNumber = d.TrackingNumber
		}
		if d.Carrier != "" {
			o.Carrier = d.Carrier
		}
		if d.EstimatedDeliveryDate != nil {
			o.EstimatedDeliveryDate = d.EstimatedDeliveryDate
		}
		if d.PackageCount != nil {
			o.PackageCount = d.PackageCount
		}
	case OrderStatusReceived, OrderStatusPartiallyReceived:
		o.ReceivedAt = &now
		o.ReceivedBy = &actorID
		if d.PackageCondition != "" {
			o.PackageCondition = d.PackageCondition
		}
	case OrderStatusVerified:
		o.VerifiedAt = &now
		o.VerifiedBy = &actorID
	case OrderStatusInvoiced:
		o.InvoicedAt = &now
		if d.InvoiceNumber != "" {
			o.InvoiceNumber = d.InvoiceNumber
		}
		if d.TotalAmount != nil {
			o.InvoiceAmount = d.TotalAmount
		}
		if d.TaxAmount != nil {
			o.TaxAmount = d.TaxAmount
		}
		if d.PaymentDueDate != nil {
			o.PaymentDueDate = d.PaymentDueDate
		}
	case OrderStatusPaid:
		o.PaidAt = &now
		o.PaymentMethod = d.PaymentMethod
		o.PaymentReference = d.PaymentReference
		o.PaymentAmount = d.PaymentAmount
		if d.PaymentDate != nil {
			o.PaymentDate = d.PaymentDate
		} else {
			o.PaymentDate = &now
		}
	case OrderStatusCancelled:
		o.CancelledAt = &now
		o.CancellationReason = strings.TrimSpace(d.CancellationReason)
	}
}

// Cancel moves the order to cancelled. A non-empty reason is required.
func (o *PurchaseOrder) Cancel(actorID uuid.UUID, reason, notes string) error {
	return o.Transition(OrderStatusCancelled, actorID, TransitionDetails{CancellationReason: reason}, nil, notes)
}

// ItemReception pairs a line item with the reception recorded for it
type ItemReception struct {
	ItemID uuid.UUID
	Reception
}

// Receive records reception for the given items and moves the order to
// received when every item is fully covered, partially_received otherwise.
// Nothing is changed if any item fails validation or the resulting transition
// is not allowed.
func (o *PurchaseOrder) Receive(receptions []ItemReception, actorID uuid.UUID, packageCondition string, metadata Metadata, notes string) error {
	if len(receptions) == 0 {
		return shared.NewValidationError("at least one item reception is required")
	}

	items := o.cloneItems()
	now := time.Now()
	for _, r := range receptions {
		item := findItem(items, r.ItemID)
		if item == nil {
			return shared.ErrNotFound.WithDetail("line_item_id", r.ItemID.String())
		}
		if err := item.RecordReception(r.Reception, actorID, now); err != nil {
			return err
		}
	}

	target, _ := receptionOutcome(items)
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(o.Status.String(), target.String())
	}

	previous := o.Items
	o.Items = items
	if err := o.Transition(target, actorID, TransitionDetails{PackageCondition: packageCondition}, metadata, notes); err != nil {
		o.Items = previous
		return err
	}
	for _, r := range receptions {
		o.markItemChanged(r.ItemID)
	}
	return nil
}

// ItemVerification pairs a line item with its quality assessment
type ItemVerification struct {
	ItemID        uuid.UUID
	QualityStatus QualityStatus
	Notes         string
}

// Verify records quality for the given items and moves the order to verified
func (o *PurchaseOrder) Verify(verifications []ItemVerification, actorID uuid.UUID, metadata Metadata, notes string) error {
	items := o.cloneItems()
	now := time.Now()
	for _, v := range verifications {
		item := findItem(items, v.ItemID)
		if item == nil {
			return shared.ErrNotFound.WithDetail("line_item_id", v.ItemID.String())
		}
		if err := item.Verify(v.QualityStatus, v.Notes, actorID, now); err != nil {
			return err
		}
	}

	approved := true
	for i := range items {
		if items[i].IsRejected() {
			approved = false
			break
		}
	}

	previous := o.Items
	o.Items = items
	if err := o.Transition(OrderStatusVerified, actorID, TransitionDetails{AllItemsApproved: &approved}, metadata, notes); err != nil {
		o.Items = previous
		return err
	}
	for _, v := range verifications {
		o.markItemChanged(v.ItemID)
	}
	return nil
}

// ReceptionOutcome returns the status implied by the items' reception state.
// The second value is false while no item has been touched.
func (o *PurchaseOrder) ReceptionOutcome() (OrderStatus, bool) {
	return receptionOutcome(o.Items)
}

func receptionOutcome(items []LineItem) (OrderStatus, bool) {
	touched := false
	complete := len(items) > 0
	for i := range items {
		if items[i].IsTouched() {
			touched = true
		}
		if !items[i].IsFullyReceived() {
			complete = false
		}
	}
	if complete {
		return OrderStatusReceived, true
	}
	return OrderStatusPartiallyReceived, touched
}

// GetItem returns the line item with the given ID, or nil
func (o *PurchaseOrder) GetItem(itemID uuid.UUID) *LineItem {
	return findItem(o.Items, itemID)
}

// ReceivedItemCount returns how many items have a recorded reception
func (o *PurchaseOrder) ReceivedItemCount() int {
	count := 0
	for i := range o.Items {
		if o.Items[i].IsTouched() {
			count++
		}
	}
	return count
}

// ReceptionPercentage returns the share of touched items, rounded to 2 places
func (o *PurchaseOrder) ReceptionPercentage() decimal.Decimal {
	return ReceptionPercentage(o.ReceivedItemCount(), len(o.Items))
}

// IsTerminal returns true if no further transition is possible
func (o *PurchaseOrder) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// IsCancelled returns true if the order is cancelled
func (o *PurchaseOrder) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// PendingHistory returns history entries not yet persisted
func (o *PurchaseOrder) PendingHistory() []StatusHistoryEntry {
	return o.pendingHistory
}

// ChangedItemIDs returns the line items written by Receive or Verify since
// the last commit. Only these items are persisted with the transition.
func (o *PurchaseOrder) ChangedItemIDs() []uuid.UUID {
	return o.changedItems
}

// ClearPendingHistory is called by the repository after a successful commit
func (o *PurchaseOrder) ClearPendingHistory() {
	o.pendingHistory = nil
	o.changedItems = nil
}

func (o *PurchaseOrder) markItemChanged(itemID uuid.UUID) {
	for _, id := range o.changedItems {
		if id == itemID {
			return
		}
	}
	o.changedItems = append(o.changedItems, itemID)
}

// PersistedStatus returns the status the stored row is expected to hold,
// i.e. the status before the first pending transition.
func (o *PurchaseOrder) PersistedStatus() OrderStatus {
	for _, entry := range o.pendingHistory {
		if entry.FromStatus != nil {
			return *entry.FromStatus
		}
	}
	return o.Status
}

func (o *PurchaseOrder) cloneItems() []LineItem {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return items
}

func findItem(items []LineItem, itemID uuid.UUID) *LineItem {
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}
