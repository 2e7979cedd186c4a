package purchasing

import (
	"context"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReceptionResponse is the outcome of recording reception on one item. The
// order status is left alone; SuggestedStatus is the status the order's
// reception state implies, for the caller to apply through a transition.
type ReceptionResponse struct {
	Item                LineItemResponse `json:"item"`
	OrderStatus         string           `json:"order_status"`
	SuggestedStatus     string           `json:"suggested_status,omitempty"`
	ReceptionPercentage decimal.Decimal  `json:"reception_percentage"`
}

// ReceptionService records reception and quality on single line items
type ReceptionService struct {
	instrumentation
	itemRepo  purchasing.LineItemRepository
	orderRepo purchasing.PurchaseOrderRepository
	guard     *TenantGuard
	now       func() time.Time
}

// NewReceptionService creates a new ReceptionService
func NewReceptionService(itemRepo purchasing.LineItemRepository, orderRepo purchasing.PurchaseOrderRepository, guard *TenantGuard) *ReceptionService {
	return &ReceptionService{
		itemRepo:  itemRepo,
		orderRepo: orderRepo,
		guard:     guard,
		now:       time.Now,
	}
}

// RecordReception records the received quantity and condition of a line item
func (s *ReceptionService) RecordReception(ctx context.Context, req RecordReceptionRequest) (*ReceptionResponse, error) {
	ctx, span := begin(ctx, "reception", "record", req.TenantID, req.ActorID)
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "record_reception", err)
	}
	if err := s.guard.CheckLineItem(ctx, req.TenantID, req.ItemID); err != nil {
		return nil, s.fail(ctx, span, "record_reception", err)
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, req.TenantID, req.ItemID)
	if err != nil {
		return nil, s.fail(ctx, span, "record_reception", err)
	}
	span.SetAttributes(attribute.String(telemetry.AttrOrderID, item.OrderID.String()))

	reception := toReception(req.QuantityReceived, req.Condition, req.QualityStatus, req.Notes)
	if err := item.RecordReception(reception, req.ActorID, s.now()); err != nil {
		return nil, s.fail(ctx, span, "record_reception", err)
	}
	if err := s.itemRepo.SaveReception(ctx, item); err != nil {
		return nil, s.fail(ctx, span, "record_reception", err)
	}

	log := operationLogger(ctx, req.TenantID,
		zap.String("order_id", item.OrderID.String()),
		zap.String("line_item_id", item.ID.String()))
	log.Info("Line item reception recorded",
		zap.String("quantity_received", req.QuantityReceived.String()),
		zap.String("item_condition", req.Condition))
	s.publish(ctx, log, purchasing.NewLineItemReceivedEvent(item))

	resp := &ReceptionResponse{Item: ToLineItemResponse(item)}

	// The reception is committed; failing to read the order back only costs
	// the suggestion.
	order, err := s.orderRepo.FindByIDForTenant(ctx, req.TenantID, item.OrderID)
	if err != nil {
		log.Warn("Failed to load order after reception", zap.Error(err))
		return resp, nil
	}
	resp.OrderStatus = order.Status.String()
	resp.ReceptionPercentage = order.ReceptionPercentage()
	if target, touched := order.ReceptionOutcome(); touched && order.Status.CanTransitionTo(target) {
		resp.SuggestedStatus = target.String()
	}
	s.metrics.RecordReception(ctx, 1, resp.ReceptionPercentage)
	return resp, nil
}

// VerifyItem records the quality assessment of a line item. Reception is not
// a precondition.
func (s *ReceptionService) VerifyItem(ctx context.Context, req VerifyLineItemRequest) (*LineItemResponse, error) {
	ctx, span := begin(ctx, "reception", "verify_item", req.TenantID, req.ActorID)
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "verify_item", err)
	}
	if err := s.guard.CheckLineItem(ctx, req.TenantID, req.ItemID); err != nil {
		return nil, s.fail(ctx, span, "verify_item", err)
	}

	item, err := s.itemRepo.FindByIDForTenant(ctx, req.TenantID, req.ItemID)
	if err != nil {
		return nil, s.fail(ctx, span, "verify_item", err)
	}
	if err := item.Verify(purchasing.QualityStatus(req.QualityStatus), req.Notes, req.ActorID, s.now()); err != nil {
		return nil, s.fail(ctx, span, "verify_item", err)
	}
	if err := s.itemRepo.SaveReception(ctx, item); err != nil {
		return nil, s.fail(ctx, span, "verify_item", err)
	}

	log := operationLogger(ctx, req.TenantID,
		zap.String("order_id", item.OrderID.String()),
		zap.String("line_item_id", item.ID.String()))
	log.Info("Line item verified", zap.String("quality_status", req.QualityStatus))
	s.publish(ctx, log, purchasing.NewLineItemVerifiedEvent(item))

	response := ToLineItemResponse(item)
	return &response, nil
}
