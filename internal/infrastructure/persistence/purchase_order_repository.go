package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/models"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix  = "PO"
	orderNumberDigits  = 4
	maxOrderNumberSeq  = 9999
	defaultOrderPage   = 20
	maxOrderPageSize   = 100
	purchaseOrderLabel = "purchase order"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	tdb *tenant.TenantDB
	now func() time.Time
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{tdb: tenant.NewTenantDB(db), now: time.Now}
}

// itemsPreload loads line items under the same tenant, in line order
func itemsPreload(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(tenant.TenantScope(tenantID)).Order("line_number ASC")
	}
}

// FindByIDForTenant loads an order with its line items
func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	err := r.tdb.ForTenant(ctx, tenantID).
		Preload("Items", itemsPreload(tenantID)).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		return nil, translateError(err, "find purchase order", purchaseOrderLabel)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders, newest first unless the filter asks for another order
func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter purchasing.OrderFilter) ([]purchasing.PurchaseOrder, error) {
	query := r.tdb.ForTenant(ctx, tenantID).Preload("Items", itemsPreload(tenantID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var rows []models.PurchaseOrderModel
	err := query.
		Order(orderClause(filter.SortBy, filter.SortOrder)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "list purchase orders", purchaseOrderLabel)
	}

	orders := make([]purchasing.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultOrderPage
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}
	return page, pageSize
}

// Create inserts the order, its items and its initial history in one transaction
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	err := r.tdb.Transaction(ctx, order.TenantID, func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return insertHistory(tx, order.PendingHistory())
	})
	if err != nil {
		return translateError(err, "create purchase order", purchaseOrderLabel)
	}

	order.ClearPendingHistory()
	return nil
}

// SaveTransition persists a transition with optimistic concurrency control.
// The stored version and status are re-read inside the transaction and the
// update is conditional on both, so two actors racing from the same state
// cannot both succeed.
func (r *GormPurchaseOrderRepository) SaveTransition(ctx context.Context, order *purchasing.PurchaseOrder) error {
	pending := order.PendingHistory()
	if len(pending) == 0 {
		return nil
	}

	expectedVersion := order.Version
	expectedStatus := order.PersistedStatus()
	scope := tenant.TenantScope(order.TenantID)

	err := r.tdb.Transaction(ctx, order.TenantID, func(tx *gorm.DB) error {
		var current models.PurchaseOrderModel
		if err := tx.Scopes(scope).
			Select("status", "version").
			Where("id = ?", order.ID).
			Take(&current).Error; err != nil {
			return err
		}
		if current.Version != expectedVersion || current.Status != expectedStatus {
			return staleOrderError(order, current.Status)
		}

		model := models.PurchaseOrderModelFromDomain(order)
		columns := model.LifecycleColumns()
		columns["version"] = expectedVersion + 1

		result := tx.Model(&models.PurchaseOrderModel{}).
			Scopes(scope).
			Where("id = ? AND version = ? AND status = ?", order.ID, expectedVersion, expectedStatus).
			Updates(columns)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return staleOrderError(order, current.Status)
		}

		if err := saveChangedItems(tx, scope, order.ID, model.Items, order.ChangedItemIDs()); err != nil {
			return err
		}

		return insertHistory(tx, pending)
	})
	if err != nil {
		return translateError(err, "save purchase order transition", purchaseOrderLabel)
	}

	order.Version = expectedVersion + 1
	order.ClearPendingHistory()
	return nil
}

func staleOrderError(order *purchasing.PurchaseOrder, stored purchasing.OrderStatus) error {
	return shared.ErrConcurrentModification.
		WithDetail("order_id", order.ID.String()).
		WithDetail("current_status", stored.String())
}

// saveChangedItems writes reception columns for the changed items only.
// Items recorded through the single-item path since the snapshot was loaded
// are left alone; the version check above already refused such snapshots.
func saveChangedItems(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, orderID uuid.UUID, items []models.LineItemModel, changed []uuid.UUID) error {
	if len(changed) == 0 {
		return nil
	}
	wanted := make(map[uuid.UUID]bool, len(changed))
	for _, id := range changed {
		wanted[id] = true
	}
	for i := range items {
		item := &items[i]
		if !wanted[item.ID] {
			continue
		}
		result := tx.Model(&models.LineItemModel{}).
			Scopes(scope).
			Where("id = ? AND order_id = ?", item.ID, orderID).
			Updates(item.ReceptionColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound.WithDetail("line_item_id", item.ID.String())
		}
	}
	return nil
}

func insertHistory(tx *gorm.DB, entries []purchasing.StatusHistoryEntry) error {
	for i := range entries {
		if err := tx.Create(models.StatusHistoryModelFromDomain(&entries[i])).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteForTenant deletes an order. Items, history and attachments go with it
// through ON DELETE CASCADE.
func (r *GormPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.tdb.ForTenant(ctx, tenantID).
		Where("id = ?", id).
		Delete(&models.PurchaseOrderModel{})
	if result.Error != nil {
		return translateError(result.Error, "delete purchase order", purchaseOrderLabel)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetail("order_id", id.String())
	}
	return nil
}

// GenerateOrderNumber returns the next order number of the day for a tenant,
// formatted PO-YYYYMMDD-NNNN.
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", orderNumberPrefix, r.now().Format("20060102"))

	var last models.PurchaseOrderModel
	err := r.tdb.ForTenant(ctx, tenantID).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Take(&last).Error

	next := 1
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return "", translateError(err, "generate order number", purchaseOrderLabel)
	default:
		seq, convErr := strconv.Atoi(strings.TrimPrefix(last.OrderNumber, prefix))
		if convErr != nil {
			return "", fmt.Errorf("generate order number: unexpected order number %q: %w", last.OrderNumber, convErr)
		}
		next = seq + 1
	}

	if next > maxOrderNumberSeq {
		return "", shared.NewValidationError("daily order number sequence exhausted for %s", strings.TrimSuffix(prefix, "-"))
	}
	return fmt.Sprintf("%s%0*d", prefix, orderNumberDigits, next), nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ purchasing.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
