package purchasing

import (
	"context"
	"strings"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds how often a generated order number is redrawn
const maxOrderNumberAttempts = 3

// PurchaseOrderService handles the purchase order lifecycle: creation,
// transitions, order-level reception and verification, and deletion.
type PurchaseOrderService struct {
	instrumentation
	orderRepo purchasing.PurchaseOrderRepository
	guard     *TenantGuard
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo purchasing.PurchaseOrderRepository, guard *TenantGuard) *PurchaseOrderService {
	return &PurchaseOrderService{
		orderRepo: orderRepo,
		guard:     guard,
	}
}

// Create creates a new purchase order in pending status
func (s *PurchaseOrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := begin(ctx, "purchase_order", "create", req.TenantID, req.ActorID)
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	inputs := make([]purchasing.LineItemInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = purchasing.LineItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Notes:       item.Notes,
		}
	}

	order, err := s.createOrder(ctx, req, inputs)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	log := operationLogger(ctx, req.TenantID,
		zap.String("order_id", order.ID.String()))
	log.Info("Purchase order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int("item_count", len(order.Items)))

	s.metrics.RecordTransition(ctx, "", order.Status.String())
	s.publishPending(ctx, log, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// createOrder stores the new order. A generated order number can collide with
// a concurrent create of the same tenant and day; the number is then drawn
// again, and CONCURRENT_MODIFICATION is returned once the attempts run out.
// A caller-supplied number that is taken stays a validation error.
func (s *PurchaseOrderService) createOrder(ctx context.Context, req CreateOrderRequest, inputs []purchasing.LineItemInput) (*purchasing.PurchaseOrder, error) {
	orderNumber := strings.TrimSpace(req.OrderNumber)
	generated := orderNumber == ""

	for attempt := 1; ; attempt++ {
		if generated {
			next, err := s.orderRepo.GenerateOrderNumber(ctx, req.TenantID)
			if err != nil {
				return nil, err
			}
			orderNumber = next
		}

		order, err := purchasing.NewPurchaseOrder(req.TenantID, req.ActorID, orderNumber, req.SupplierID, inputs, req.Notes)
		if err != nil {
			return nil, err
		}

		err = s.orderRepo.Create(ctx, order)
		switch {
		case err == nil:
			return order, nil
		case !generated || !shared.IsDuplicate(err):
			return nil, err
		case attempt == maxOrderNumberAttempts:
			return nil, shared.ErrConcurrentModification.
				WithDetail("order_number", orderNumber).
				WithCause(err)
		}
		operationLogger(ctx, req.TenantID).Debug("Generated order number taken, retrying",
			zap.String("order_number", orderNumber),
			zap.Int("attempt", attempt))
	}
}

// Get returns one order with its line items
func (s *PurchaseOrderService) Get(ctx context.Context, ref OrderRef) (*OrderResponse, error) {
	if err := validateRequest(ref); err != nil {
		return nil, err
	}
	if err := s.guard.CheckOrder(ctx, ref.TenantID, ref.OrderID); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindByIDForTenant(ctx, ref.TenantID, ref.OrderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List returns the tenant's orders, newest first
func (s *PurchaseOrderService) List(ctx context.Context, req ListOrdersRequest) ([]OrderResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	filter := purchasing.OrderFilter{
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.Status != "" {
		status := purchasing.OrderStatus(req.Status)
		filter.Status = &status
	}

	orders, err := s.orderRepo.FindAllForTenant(ctx, req.TenantID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, nil
}

// Transition moves an order to the requested status
func (s *PurchaseOrderService) Transition(ctx context.Context, req TransitionRequest) (*OrderResponse, error) {
	ctx, span := begin(ctx, "purchase_order", "transition", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()),
		attribute.String(telemetry.AttrTargetState, req.Target))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "transition", err)
	}

	return s.mutate(ctx, span, "transition", req.TenantID, req.OrderID, func(order *purchasing.PurchaseOrder) error {
		return order.Transition(purchasing.OrderStatus(req.Target), req.ActorID, req.Details, req.Metadata, req.Notes)
	})
}

// Cancel moves an order to cancelled
func (s *PurchaseOrderService) Cancel(ctx context.Context, req CancelRequest) (*OrderResponse, error) {
	ctx, span := begin(ctx, "purchase_order", "cancel", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "cancel", err)
	}

	return s.mutate(ctx, span, "cancel", req.TenantID, req.OrderID, func(order *purchasing.PurchaseOrder) error {
		return order.Cancel(req.ActorID, req.Reason, req.Notes)
	})
}

// ReceiveOrder records reception for several items and moves the order to
// received or partially_received in the same unit of work.
func (s *PurchaseOrderService) ReceiveOrder(ctx context.Context, req ReceiveOrderRequest) (*OrderResponse, error) {
	ctx, span := begin(ctx, "purchase_order", "receive", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "receive", err)
	}

	receptions := make([]purchasing.ItemReception, len(req.Items))
	for i, in := range req.Items {
		receptions[i] = purchasing.ItemReception{
			ItemID:    in.ItemID,
			Reception: toReception(in.QuantityReceived, in.Condition, in.QualityStatus, in.Notes),
		}
	}

	resp, err := s.mutate(ctx, span, "receive", req.TenantID, req.OrderID, func(order *purchasing.PurchaseOrder) error {
		if err := order.Receive(receptions, req.ActorID, req.PackageCondition, req.Metadata, req.Notes); err != nil {
			return err
		}
		for _, r := range receptions {
			if item := order.GetItem(r.ItemID); item != nil {
				order.AddDomainEvent(purchasing.NewLineItemReceivedEvent(item))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	received := 0
	for _, item := range resp.Items {
		if item.QuantityReceived != nil {
			received++
		}
	}
	s.metrics.RecordReception(ctx, len(receptions), purchasing.ReceptionPercentage(received, len(resp.Items)))
	return resp, nil
}

// VerifyOrder records per-item quality and moves the order to verified
func (s *PurchaseOrderService) VerifyOrder(ctx context.Context, req VerifyOrderRequest) (*OrderResponse, error) {
	ctx, span := begin(ctx, "purchase_order", "verify", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "verify", err)
	}

	verifications := make([]purchasing.ItemVerification, len(req.Items))
	for i, in := range req.Items {
		verifications[i] = purchasing.ItemVerification{
			ItemID:        in.ItemID,
			QualityStatus: purchasing.QualityStatus(in.QualityStatus),
			Notes:         in.Notes,
		}
	}

	return s.mutate(ctx, span, "verify", req.TenantID, req.OrderID, func(order *purchasing.PurchaseOrder) error {
		if err := order.Verify(verifications, req.ActorID, req.Metadata, req.Notes); err != nil {
			return err
		}
		for _, v := range verifications {
			if item := order.GetItem(v.ItemID); item != nil {
				order.AddDomainEvent(purchasing.NewLineItemVerifiedEvent(item))
			}
		}
		return nil
	})
}

// Delete removes an order; line items, history and attachments cascade
func (s *PurchaseOrderService) Delete(ctx context.Context, req DeleteOrderRequest) error {
	ctx, span := begin(ctx, "purchase_order", "delete", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return s.fail(ctx, span, "delete", err)
	}
	if err := s.guard.CheckOrder(ctx, req.TenantID, req.OrderID); err != nil {
		return s.fail(ctx, span, "delete", err)
	}
	if err := s.orderRepo.DeleteForTenant(ctx, req.TenantID, req.OrderID); err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	log := operationLogger(ctx, req.TenantID,
		zap.String("order_id", req.OrderID.String()))
	log.Info("Purchase order deleted")
	s.publish(ctx, log, purchasing.NewPurchaseOrderDeletedEvent(req.TenantID, req.OrderID, req.ActorID))
	return nil
}

// mutate is the load, change, save-transition sequence shared by every
// status-changing operation. The repository rejects the save when another
// writer moved the order in between.
func (s *PurchaseOrderService) mutate(
	ctx context.Context,
	span trace.Span,
	operation string,
	tenantID, orderID uuid.UUID,
	change func(order *purchasing.PurchaseOrder) error,
) (*OrderResponse, error) {
	if err := s.guard.CheckOrder(ctx, tenantID, orderID); err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}

	order, err := s.orderRepo.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}

	from := order.Status
	if err := change(order); err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}

	if err := s.orderRepo.SaveTransition(ctx, order); err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}

	log := operationLogger(ctx, tenantID,
		zap.String("order_id", orderID.String()))
	log.Info("Purchase order status changed",
		zap.String("operation", operation),
		zap.String("from_status", from.String()),
		zap.String("to_status", order.Status.String()),
		zap.Int("version", order.Version))

	s.metrics.RecordTransition(ctx, from.String(), order.Status.String())
	s.publishPending(ctx, log, order)

	response := ToOrderResponse(order)
	return &response, nil
}

func toReception(quantity decimal.Decimal, condition, quality, notes string) purchasing.Reception {
	r := purchasing.Reception{
		QuantityReceived: quantity,
		Condition:        purchasing.ItemCondition(condition),
		Notes:            notes,
	}
	if quality != "" {
		q := purchasing.QualityStatus(quality)
		r.QualityStatus = &q
	}
	return r
}
