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

// GormLineItemRepository implements LineItemRepository using GORM
type GormLineItemRepository struct {
	tdb *tenant.TenantDB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{tdb: tenant.NewTenantDB(db)}
}

// FindByIDForTenant finds a line item by ID within a tenant
func (r *GormLineItemRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.LineItem, error) {
	var model models.LineItemModel
	if err := r.tdb.ForTenant(ctx, tenantID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find line item", "line item")
	}
	return model.ToDomain(), nil
}

// SaveReception writes the reception and quality columns of one item.
// Ordered quantity, price and product are never rewritten here. The parent
// order's version is bumped first in the same transaction, so an order
// snapshot loaded before this write can no longer be saved over it.
func (r *GormLineItemRepository) SaveReception(ctx context.Context, item *purchasing.LineItem) error {
	model := models.LineItemModelFromDomain(item)
	scope := tenant.TenantScope(item.TenantID)

	err := r.tdb.Transaction(ctx, item.TenantID, func(tx *gorm.DB) error {
		bumped := tx.Model(&models.PurchaseOrderModel{}).
			Scopes(scope).
			Where("id = ?", item.OrderID).
			UpdateColumn("version", gorm.Expr("version + 1"))
		if bumped.Error != nil {
			return bumped.Error
		}
		if bumped.RowsAffected == 0 {
			return shared.ErrNotFound.WithDetail("line_item_id", item.ID.String())
		}

		result := tx.Model(&models.LineItemModel{}).
			Scopes(scope).
			Where("id = ? AND order_id = ?", item.ID, item.OrderID).
			Updates(model.ReceptionColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound.WithDetail("line_item_id", item.ID.String())
		}
		return nil
	})
	if err != nil {
		return translateError(err, "save line item reception", "line item")
	}
	return nil
}

// Ensure GormLineItemRepository implements LineItemRepository
var _ purchasing.LineItemRepository = (*GormLineItemRepository)(nil)
