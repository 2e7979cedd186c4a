package purchasing

import (
	"github.com/erp/purchasing/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of a purchase order.
// The set of values is closed and persisted verbatim.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusPreparing         OrderStatus = "preparing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusPartiallyReceived OrderStatus = "partially_received"
	OrderStatusReceived          OrderStatus = "received"
	OrderStatusVerified          OrderStatus = "verified"
	OrderStatusInvoiced          OrderStatus = "invoiced"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusOverdue           OrderStatus = "overdue"
)

// AllOrderStatuses lists every valid status in canonical lifecycle order
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusPartiallyReceived,
	OrderStatusReceived,
	OrderStatusVerified,
	OrderStatusInvoiced,
	OrderStatusPaid,
	OrderStatusCancelled,
	OrderStatusOverdue,
}

// transitions is the directed graph of allowed status changes.
// A status absent from the map, or mapped to an empty set, is terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusConfirmed, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusConfirmed: {
		OrderStatusPreparing, OrderStatusShipped, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusPreparing: {
		OrderStatusShipped, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusShipped: {
		OrderStatusPartiallyReceived, OrderStatusReceived, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusPartiallyReceived: {
		OrderStatusPartiallyReceived, OrderStatusReceived, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusReceived: {
		OrderStatusVerified, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusVerified: {
		OrderStatusInvoiced, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusInvoiced: {
		OrderStatusPaid, OrderStatusCancelled, OrderStatusOverdue,
	},
	OrderStatusOverdue: {
		OrderStatusShipped, OrderStatusPartiallyReceived, OrderStatusReceived, OrderStatusCancelled,
	},
	OrderStatusPaid:      {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus validates s against the closed status enumeration
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", shared.NewValidationError("invalid order status %q", s)
	}
	return status, nil
}

// IsValid checks if the status is a member of the enumeration
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable in one step from s
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanCancel returns true if the order may still be cancelled
func (s OrderStatus) CanCancel() bool {
	return s.CanTransitionTo(OrderStatusCancelled)
}

// IsReception returns true for the two statuses produced by goods reception
func (s OrderStatus) IsReception() bool {
	return s == OrderStatusReceived || s == OrderStatusPartiallyReceived
}
