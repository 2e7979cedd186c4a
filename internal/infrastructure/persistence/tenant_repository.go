package persistence

import (
	"context"
	"strings"

	"github.com/erp/purchasing/internal/domain/identity"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/models"
	"github.com/erp/purchasing/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	tdb *tenant.TenantDB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{tdb: tenant.NewTenantDB(db)}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.tdb.DB().WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "find tenant", "tenant")
	}
	return model.ToDomain(), nil
}

// FindByCode finds a tenant by its unique code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var model models.TenantModel
	if err := r.tdb.DB().WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find tenant", "tenant")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, t *identity.Tenant) error {
	model := models.TenantModelFromDomain(t)
	if err := r.tdb.DB().WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err, "save tenant", "tenant")
	}
	return nil
}

// Delete removes a tenant. Orders, items, history and attachments are removed
// by the cascading foreign keys; the count of orders is taken in the same
// transaction so it matches what was deleted.
func (r *GormTenantRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var orders int64
	err := r.tdb.Transaction(ctx, id, func(tx *gorm.DB) error {
		if err := tx.Model(&models.PurchaseOrderModel{}).
			Scopes(tenant.TenantScope(id)).
			Count(&orders).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.TenantModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound.WithDetail("tenant_id", id.String())
		}
		return nil
	})
	if err != nil {
		return 0, translateError(err, "delete tenant", "tenant")
	}
	return orders, nil
}

// Ensure GormTenantRepository implements TenantRepository
var _ identity.TenantRepository = (*GormTenantRepository)(nil)
