package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderRepository persists the PurchaseOrder aggregate. Every method
// is scoped by tenant; there is no global lookup path.
type PurchaseOrderRepository interface {
	// FindByIDForTenant loads an order with its line items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindAllForTenant lists orders, newest first, optionally filtered by status
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]PurchaseOrder, error)

	// Create inserts the order, its line items and its pending history in one transaction
	Create(ctx context.Context, order *PurchaseOrder) error

	// SaveTransition persists status, lifecycle fields, line item reception
	// state and pending history in one transaction. The stored row must still
	// hold the aggregate's version and persisted status, otherwise
	// CONCURRENT_MODIFICATION is returned and nothing is written.
	SaveTransition(ctx context.Context, order *PurchaseOrder) error

	// DeleteForTenant deletes an order; items, history and attachments cascade
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// GenerateOrderNumber returns the next free order number for the tenant
	GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// OrderFilter narrows FindAllForTenant
type OrderFilter struct {
	Status    *OrderStatus
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// LineItemRepository persists reception and verification of single line items
type LineItemRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LineItem, error)

	// SaveReception writes the reception and quality columns of one item
	SaveReception(ctx context.Context, item *LineItem) error
}

// StatusHistoryRepository reads the append-only ledger. Entries are written
// only by PurchaseOrderRepository as part of a transition.
type StatusHistoryRepository interface {
	// ListByOrder returns all entries newest first
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]StatusHistoryEntry, error)

	// Latest returns the entry with the greatest timestamp, ties broken by sequence
	Latest(ctx context.Context, tenantID, orderID uuid.UUID) (*StatusHistoryEntry, error)
}

// AttachmentFilter narrows ListByOrder
type AttachmentFilter struct {
	AttachmentType *AttachmentType
	RelatedStatus  *OrderStatus
}

// AttachmentRepository persists attachments
type AttachmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Attachment, error)
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID, filter AttachmentFilter) ([]Attachment, error)
	CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
	Create(ctx context.Context, attachment *Attachment) error
	// UpdateDetails writes description and metadata only
	UpdateDetails(ctx context.Context, attachment *Attachment) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// OwnershipReader resolves the owning tenant of an entity without tenant
// filtering. It backs the tenant guard and must never return entity data.
type OwnershipReader interface {
	OrderTenant(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error)
	LineItemTenant(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error)
	AttachmentTenant(ctx context.Context, attachmentID uuid.UUID) (uuid.UUID, error)
}

// Every purchasing entity is partitioned by tenant
var (
	_ shared.TenantOwned = (*PurchaseOrder)(nil)
	_ shared.TenantOwned = (*LineItem)(nil)
	_ shared.TenantOwned = (*StatusHistoryEntry)(nil)
	_ shared.TenantOwned = (*Attachment)(nil)
)
