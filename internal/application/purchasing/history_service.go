package purchasing

import (
	"context"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
)

// HistoryService serves the status ledger and the progress projection.
// Nothing here writes; the ledger is appended only by transitions.
type HistoryService struct {
	orderRepo      purchasing.PurchaseOrderRepository
	historyRepo    purchasing.StatusHistoryRepository
	attachmentRepo purchasing.AttachmentRepository
	guard          *TenantGuard
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(
	orderRepo purchasing.PurchaseOrderRepository,
	historyRepo purchasing.StatusHistoryRepository,
	attachmentRepo purchasing.AttachmentRepository,
	guard *TenantGuard,
) *HistoryService {
	return &HistoryService{
		orderRepo:      orderRepo,
		historyRepo:    historyRepo,
		attachmentRepo: attachmentRepo,
		guard:          guard,
	}
}

// History returns every ledger entry of an order, newest first
func (s *HistoryService) History(ctx context.Context, ref OrderRef) ([]HistoryEntryResponse, error) {
	if err := s.check(ctx, ref); err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.ListByOrder(ctx, ref.TenantID, ref.OrderID)
	if err != nil {
		return nil, err
	}
	responses := make([]HistoryEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToHistoryEntryResponse(&entries[i])
	}
	return responses, nil
}

// Latest returns the most recent ledger entry of an order
func (s *HistoryService) Latest(ctx context.Context, ref OrderRef) (*HistoryEntryResponse, error) {
	if err := s.check(ctx, ref); err != nil {
		return nil, err
	}
	entry, err := s.historyRepo.Latest(ctx, ref.TenantID, ref.OrderID)
	if err != nil {
		return nil, err
	}
	response := ToHistoryEntryResponse(entry)
	return &response, nil
}

// Projection recomputes the progress view of an order from the ledger, the
// attachments and the line items. Nothing is cached.
func (s *HistoryService) Projection(ctx context.Context, ref OrderRef) (*ProgressResponse, error) {
	if err := s.check(ctx, ref); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, ref.TenantID, ref.OrderID)
	if err != nil {
		return nil, err
	}

	latest, err := s.historyRepo.Latest(ctx, ref.TenantID, ref.OrderID)
	if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	count, err := s.attachmentRepo.CountByOrder(ctx, ref.TenantID, ref.OrderID)
	if err != nil {
		return nil, err
	}

	response := ToProgressResponse(purchasing.NewProjection(order, latest, count))
	return &response, nil
}

func (s *HistoryService) check(ctx context.Context, ref OrderRef) error {
	if err := validateRequest(ref); err != nil {
		return err
	}
	return s.guard.CheckOrder(ctx, ref.TenantID, ref.OrderID)
}
