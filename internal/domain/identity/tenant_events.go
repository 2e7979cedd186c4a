package identity

import (
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeTenant is the aggregate type of tenant events
const AggregateTypeTenant = "Tenant"

// Event type constants
const (
	EventTypeTenantCreated = "TenantCreated"
	EventTypeTenantDeleted = "TenantDeleted"
)

// TenantCreatedEvent is published when a new tenant is created
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(tenant *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, AggregateTypeTenant, tenant.ID, tenant.ID),
		Code:            tenant.Code,
		Name:            tenant.Name,
	}
}

// TenantDeletedEvent is published after a tenant and all its data were removed
type TenantDeletedEvent struct {
	shared.BaseDomainEvent
	DeletedOrders int64 `json:"deleted_orders"`
}

// NewTenantDeletedEvent creates a new TenantDeletedEvent
func NewTenantDeletedEvent(tenantID uuid.UUID, deletedOrders int64) *TenantDeletedEvent {
	return &TenantDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantDeleted, AggregateTypeTenant, tenantID, tenantID),
		DeletedOrders:   deletedOrders,
	}
}
