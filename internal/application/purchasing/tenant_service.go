package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/identity"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService creates and removes tenants
type TenantService struct {
	instrumentation
	tenantRepo identity.TenantRepository
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo identity.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// Create creates a new active tenant. Codes are unique, case-insensitively.
func (s *TenantService) Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if existing, err := s.tenantRepo.FindByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, shared.NewValidationError("tenant code %q already exists", existing.Code)
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	tenant, err := identity.NewTenant(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}

	log := operationLogger(ctx, tenant.ID)
	log.Info("Tenant created", zap.String("code", tenant.Code))
	s.publishPending(ctx, log, tenant)

	response := ToTenantResponse(tenant)
	return &response, nil
}

// Get returns a tenant by ID
func (s *TenantService) Get(ctx context.Context, tenantID uuid.UUID) (*TenantResponse, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(tenant)
	return &response, nil
}

// Delete removes a tenant and everything it owns. It returns the number of
// orders removed.
func (s *TenantService) Delete(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, shared.NewValidationError("tenant is required")
	}

	deleted, err := s.tenantRepo.Delete(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	log := operationLogger(ctx, tenantID)
	log.Info("Tenant deleted", zap.Int64("deleted_orders", deleted))
	s.publish(ctx, log, identity.NewTenantDeletedEvent(tenantID, deleted))
	return deleted, nil
}
