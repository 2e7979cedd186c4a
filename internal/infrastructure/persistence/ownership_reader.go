package persistence

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/models"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOwnershipReader resolves which tenant owns a row. It is the only reader
// allowed past the tenant guard and it selects nothing but tenant_id.
type GormOwnershipReader struct {
	tdb *tenant.TenantDB
}

// NewGormOwnershipReader creates a new GormOwnershipReader
func NewGormOwnershipReader(db *gorm.DB) *GormOwnershipReader {
	return &GormOwnershipReader{tdb: tenant.NewTenantDB(db)}
}

// OrderTenant returns the tenant owning an order
func (r *GormOwnershipReader) OrderTenant(ctx context.Context, orderID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, &models.PurchaseOrderModel{}, orderID, "purchase order")
}

// LineItemTenant returns the tenant owning a line item
func (r *GormOwnershipReader) LineItemTenant(ctx context.Context, itemID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, &models.LineItemModel{}, itemID, "line item")
}

// AttachmentTenant returns the tenant owning an attachment
func (r *GormOwnershipReader) AttachmentTenant(ctx context.Context, attachmentID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, &models.AttachmentModel{}, attachmentID, "attachment")
}

func (r *GormOwnershipReader) owner(ctx context.Context, model any, id uuid.UUID, what string) (uuid.UUID, error) {
	var owners []uuid.UUID
	if err := r.tdb.OwnershipLookup(ctx).
		Model(model).
		Where("id = ?", id).
		Limit(1).
		Pluck(tenant.Column, &owners).Error; err != nil {
		return uuid.Nil, translateError(err, "resolve owner", what)
	}
	if len(owners) == 0 {
		return uuid.Nil, shared.NewDomainError(shared.CodeNotFound, what+" not found")
	}
	return owners[0], nil
}

// Ensure GormOwnershipReader implements OwnershipReader
var _ purchasing.OwnershipReader = (*GormOwnershipReader)(nil)
