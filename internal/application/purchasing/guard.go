package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantGuard verifies that a referenced entity belongs to the requesting
// tenant before any scoped query runs. A foreign entity is rejected with
// ISOLATION_VIOLATION rather than filtered out; an absent one is NOT_FOUND.
type TenantGuard struct {
	owners purchasing.OwnershipReader
}

// NewTenantGuard creates a new TenantGuard
func NewTenantGuard(owners purchasing.OwnershipReader) *TenantGuard {
	return &TenantGuard{owners: owners}
}

// CheckOrder verifies the order belongs to tenantID
func (g *TenantGuard) CheckOrder(ctx context.Context, tenantID, orderID uuid.UUID) error {
	return g.check(ctx, tenantID, orderID, "purchase_order", g.owners.OrderTenant)
}

// CheckLineItem verifies the line item belongs to tenantID
func (g *TenantGuard) CheckLineItem(ctx context.Context, tenantID, itemID uuid.UUID) error {
	return g.check(ctx, tenantID, itemID, "line_item", g.owners.LineItemTenant)
}

// CheckAttachment verifies the attachment belongs to tenantID
func (g *TenantGuard) CheckAttachment(ctx context.Context, tenantID, attachmentID uuid.UUID) error {
	return g.check(ctx, tenantID, attachmentID, "attachment", g.owners.AttachmentTenant)
}

func (g *TenantGuard) check(
	ctx context.Context,
	tenantID, entityID uuid.UUID,
	entity string,
	lookup func(context.Context, uuid.UUID) (uuid.UUID, error),
) error {
	if tenantID == uuid.Nil {
		return shared.NewValidationError("tenant is required")
	}
	if entityID == uuid.Nil {
		return shared.NewValidationError("%s id is required", entity)
	}

	owner, err := lookup(ctx, entityID)
	if err != nil {
		return err
	}
	if owner == tenantID {
		return nil
	}

	// The owner is deliberately absent from both the log line and the error.
	operationLogger(ctx, tenantID).Warn("Cross-tenant access rejected",
		zap.String("entity", entity),
		zap.String("entity_id", entityID.String()),
	)
	return shared.ErrIsolationViolation.
		WithDetail("entity", entity).
		WithDetail("id", entityID.String())
}
