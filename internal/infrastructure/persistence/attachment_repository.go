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

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	tdb *tenant.TenantDB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{tdb: tenant.NewTenantDB(db)}
}

// FindByIDForTenant finds an attachment by ID within a tenant
func (r *GormAttachmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*purchasing.Attachment, error) {
	var model models.AttachmentModel
	if err := r.tdb.ForTenant(ctx, tenantID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "find attachment", "attachment")
	}
	return model.ToDomain(), nil
}

// ListByOrder returns the attachments of an order, newest first
func (r *GormAttachmentRepository) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID, filter purchasing.AttachmentFilter) ([]purchasing.Attachment, error) {
	query := r.tdb.ForTenant(ctx, tenantID).Where("order_id = ?", orderID)
	if filter.AttachmentType != nil {
		query = query.Where("attachment_type = ?", *filter.AttachmentType)
	}
	if filter.RelatedStatus != nil {
		query = query.Where("related_status = ?", *filter.RelatedStatus)
	}

	var rows []models.AttachmentModel
	if err := query.Order("uploaded_at DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err, "list attachments", "attachment")
	}

	attachments := make([]purchasing.Attachment, len(rows))
	for i := range rows {
		attachments[i] = *rows[i].ToDomain()
	}
	return attachments, nil
}

// CountByOrder counts the attachments of an order
func (r *GormAttachmentRepository) CountByOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.tdb.ForTenant(ctx, tenantID).
		Model(&models.AttachmentModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, translateError(err, "count attachments", "attachment")
	}
	return count, nil
}

// Create inserts an attachment. A missing parent order surfaces as NOT_FOUND
// through the foreign key.
func (r *GormAttachmentRepository) Create(ctx context.Context, attachment *purchasing.Attachment) error {
	if attachment.TenantID == uuid.Nil {
		return translateError(tenant.ErrTenantIDRequired, "create attachment", "attachment")
	}
	model := models.AttachmentModelFromDomain(attachment)
	if err := r.tdb.DB().WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "create attachment", "attachment")
	}
	return nil
}

// UpdateDetails writes description and metadata; the file reference is fixed
func (r *GormAttachmentRepository) UpdateDetails(ctx context.Context, attachment *purchasing.Attachment) error {
	model := models.AttachmentModelFromDomain(attachment)
	result := r.tdb.ForTenant(ctx, attachment.TenantID).
		Model(&models.AttachmentModel{}).
		Where("id = ?", attachment.ID).
		Updates(map[string]any{
			"description": model.Description,
			"metadata":    model.Metadata,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "update attachment", "attachment")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetail("attachment_id", attachment.ID.String())
	}
	return nil
}

// DeleteForTenant deletes an attachment record. The stored file is untouched.
func (r *GormAttachmentRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.tdb.ForTenant(ctx, tenantID).
		Where("id = ?", id).
		Delete(&models.AttachmentModel{})
	if result.Error != nil {
		return translateError(result.Error, "delete attachment", "attachment")
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithDetail("attachment_id", id.String())
	}
	return nil
}

// Ensure GormAttachmentRepository implements AttachmentRepository
var _ purchasing.AttachmentRepository = (*GormAttachmentRepository)(nil)
