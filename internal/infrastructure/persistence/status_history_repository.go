package persistence

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/infrastructure/persistence/models"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// historyOrder is newest first; seq breaks ties between equal timestamps
const historyOrder = "changed_at DESC, seq DESC"

// GormStatusHistoryRepository reads the status ledger. It has no write path:
// entries are inserted by GormPurchaseOrderRepository inside a transition.
type GormStatusHistoryRepository struct {
	tdb *tenant.TenantDB
}

// NewGormStatusHistoryRepository creates a new GormStatusHistoryRepository
func NewGormStatusHistoryRepository(db *gorm.DB) *GormStatusHistoryRepository {
	return &GormStatusHistoryRepository{tdb: tenant.NewTenantDB(db)}
}

// ListByOrder returns every entry of an order, newest first
func (r *GormStatusHistoryRepository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]purchasing.StatusHistoryEntry, error) {
	var rows []models.StatusHistoryModel
	if err := r.tdb.ForTenant(ctx, tenantID).
		Where("order_id = ?", orderID).
		Order(historyOrder).
		Find(&rows).Error; err != nil {
		return nil, translateError(err, "list status history", "status history")
	}

	entries := make([]purchasing.StatusHistoryEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, nil
}

// Latest returns the most recent entry of an order
func (r *GormStatusHistoryRepository) Latest(ctx context.Context, tenantID, orderID uuid.UUID) (*purchasing.StatusHistoryEntry, error) {
	var model models.StatusHistoryModel
	if err := r.tdb.ForTenant(ctx, tenantID).
		Where("order_id = ?", orderID).
		Order(historyOrder).
		Take(&model).Error; err != nil {
		return nil, translateError(err, "latest status history", "status history")
	}
	return model.ToDomain(), nil
}

// Ensure GormStatusHistoryRepository implements StatusHistoryRepository
var _ purchasing.StatusHistoryRepository = (*GormStatusHistoryRepository)(nil)
