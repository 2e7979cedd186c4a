package purchasing

import (
	"time"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePurchaseOrder is the aggregate type of purchasing events
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated          = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged    = "PurchaseOrderStatusChanged"
	EventTypePurchaseOrderLineItemReceived = "PurchaseOrderLineItemReceived"
	EventTypePurchaseOrderLineItemVerified = "PurchaseOrderLineItemVerified"
	EventTypePurchaseOrderAttachmentAdded  = "PurchaseOrderAttachmentAdded"
	EventTypePurchaseOrderDeleted          = "PurchaseOrderDeleted"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	SupplierID  *uuid.UUID      `json:"supplier_id,omitempty"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedBy   uuid.UUID       `json:"created_by"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder, actorID uuid.UUID) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		ItemCount:       len(order.Items),
		TotalAmount:     order.TotalAmount,
		CreatedBy:       actorID,
	}
}

// PurchaseOrderStatusChangedEvent is raised for every committed transition
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string      `json:"order_number"`
	FromStatus  OrderStatus `json:"from_status"`
	ToStatus    OrderStatus `json:"to_status"`
	ChangedBy   uuid.UUID   `json:"changed_by"`
	Metadata    Metadata    `json:"metadata,omitempty"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(order *PurchaseOrder, from, to OrderStatus, actorID uuid.UUID, metadata Metadata, at time.Time) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, order.ID, order.TenantID, at),
		OrderNumber:     order.OrderNumber,
		FromStatus:      from,
		ToStatus:        to,
		ChangedBy:       actorID,
		Metadata:        metadata,
	}
}

// LineItemReceivedEvent is raised when reception is recorded for a line item
type LineItemReceivedEvent struct {
	shared.BaseDomainEvent
	LineItemID       uuid.UUID       `json:"line_item_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	OrderedQuantity  decimal.Decimal `json:"ordered_quantity"`
	Condition        ItemCondition   `json:"item_condition"`
	ReceivedBy       uuid.UUID       `json:"received_by"`
}

// NewLineItemReceivedEvent creates a new LineItemReceivedEvent
func NewLineItemReceivedEvent(item *LineItem) *LineItemReceivedEvent {
	e := &LineItemReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderLineItemReceived, AggregateTypePurchaseOrder, item.OrderID, item.TenantID),
		LineItemID:      item.ID,
		OrderedQuantity: item.OrderedQuantity,
	}
	if item.QuantityReceived != nil {
		e.QuantityReceived = *item.QuantityReceived
	}
	if item.ItemCondition != nil {
		e.Condition = *item.ItemCondition
	}
	if item.ReceivedBy != nil {
		e.ReceivedBy = *item.ReceivedBy
	}
	return e
}

// LineItemVerifiedEvent is raised when quality is assessed for a line item
type LineItemVerifiedEvent struct {
	shared.BaseDomainEvent
	LineItemID    uuid.UUID     `json:"line_item_id"`
	QualityStatus QualityStatus `json:"quality_status"`
	VerifiedBy    uuid.UUID     `json:"verified_by"`
}

// NewLineItemVerifiedEvent creates a new LineItemVerifiedEvent
func NewLineItemVerifiedEvent(item *LineItem) *LineItemVerifiedEvent {
	e := &LineItemVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderLineItemVerified, AggregateTypePurchaseOrder, item.OrderID, item.TenantID),
		LineItemID:      item.ID,
	}
	if item.QualityStatus != nil {
		e.QualityStatus = *item.QualityStatus
	}
	if item.VerifiedBy != nil {
		e.VerifiedBy = *item.VerifiedBy
	}
	return e
}

// AttachmentAddedEvent is raised when a document is attached to an order
type AttachmentAddedEvent struct {
	shared.BaseDomainEvent
	AttachmentID   uuid.UUID      `json:"attachment_id"`
	AttachmentType AttachmentType `json:"attachment_type"`
	RelatedStatus  *OrderStatus   `json:"related_status,omitempty"`
	UploadedBy     uuid.UUID      `json:"uploaded_by"`
}

// NewAttachmentAddedEvent creates a new AttachmentAddedEvent
func NewAttachmentAddedEvent(a *Attachment) *AttachmentAddedEvent {
	return &AttachmentAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderAttachmentAdded, AggregateTypePurchaseOrder, a.OrderID, a.TenantID),
		AttachmentID:    a.ID,
		AttachmentType:  a.AttachmentType,
		RelatedStatus:   a.RelatedStatus,
		UploadedBy:      a.UploadedBy,
	}
}

// PurchaseOrderDeletedEvent is raised after an order and its dependents were removed
type PurchaseOrderDeletedEvent struct {
	shared.BaseDomainEvent
	DeletedBy uuid.UUID `json:"deleted_by"`
}

// NewPurchaseOrderDeletedEvent creates a new PurchaseOrderDeletedEvent
func NewPurchaseOrderDeletedEvent(tenantID, orderID, actorID uuid.UUID) *PurchaseOrderDeletedEvent {
	return &PurchaseOrderDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderDeleted, AggregateTypePurchaseOrder, orderID, tenantID),
		DeletedBy:       actorID,
	}
}
