package purchasing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata keys written by the lifecycle itself
const (
	MetaConfirmationNumber    = "confirmation_number"
	MetaEstimatedDeliveryDate = "estimated_delivery_date"
	MetaTrackingNumber        = "tracking_number"
	MetaCarrier               = "carrier"
	MetaPackageCount          = "package_count"
	MetaPackageCondition      = "package_condition"
	MetaPartialReception      = "partial_reception"
	MetaAllItemsApproved      = "all_items_approved"
	MetaInvoiceNumber         = "invoice_number"
	MetaInvoiceAmount         = "invoice_amount"
	MetaPaymentDueDate        = "payment_due_date"
	MetaPaymentMethod         = "payment_method"
	MetaPaymentAmount         = "payment_amount"
	MetaPaymentDate           = "payment_date"
	MetaReason                = "reason"
)

const dateLayout = "2006-01-02"

// TransitionDetails carries the state-specific facts of a transition. Only the
// fields relevant to the target status are applied; the rest are ignored.
type TransitionDetails struct {
	// confirmed
	ConfirmationNumber string
	// confirmed, shipped
	EstimatedDeliveryDate *time.Time
	// shipped
	TrackingNumber string
	Carrier        string
	PackageCount   *int
	// received, partially_received
	PackageCondition string
	// verified
	AllItemsApproved *bool
	// invoiced
	InvoiceNumber  string
	TotalAmount    *decimal.Decimal
	TaxAmount      *decimal.Decimal
	PaymentDueDate *time.Time
	// paid
	PaymentMethod    string
	PaymentReference string
	PaymentAmount    *decimal.Decimal
	PaymentDate      *time.Time
	// cancelled
	CancellationReason string
}

// metadataFor builds the history metadata for a transition to target.
// Lifecycle keys win over caller keys with the same name.
func (d TransitionDetails) metadataFor(target OrderStatus, caller Metadata) Metadata {
	meta := make(Metadata, len(caller)+4)
	for k, v := range caller {
		meta[k] = v
	}

	switch target {
	case OrderStatusConfirmed:
		putString(meta, MetaConfirmationNumber, d.ConfirmationNumber)
		putDate(meta, MetaEstimatedDeliveryDate, d.EstimatedDeliveryDate)
	case OrderStatusShipped:
		putString(meta, MetaTrackingNumber, d.TrackingNumber)
		putString(meta, MetaCarrier, d.Carrier)
		putDate(meta, MetaEstimatedDeliveryDate, d.EstimatedDeliveryDate)
		if d.PackageCount != nil {
			meta[MetaPackageCount] = *d.PackageCount
		}
	case OrderStatusReceived, OrderStatusPartiallyReceived:
		putString(meta, MetaPackageCondition, d.PackageCondition)
		meta[MetaPartialReception] = target == OrderStatusPartiallyReceived
	case OrderStatusVerified:
		if d.AllItemsApproved != nil {
			meta[MetaAllItemsApproved] = *d.AllItemsApproved
		}
	case OrderStatusInvoiced:
		putString(meta, MetaInvoiceNumber, d.InvoiceNumber)
		putDecimal(meta, MetaInvoiceAmount, d.TotalAmount)
		putDate(meta, MetaPaymentDueDate, d.PaymentDueDate)
	case OrderStatusPaid:
		putString(meta, MetaPaymentMethod, d.PaymentMethod)
		putDecimal(meta, MetaPaymentAmount, d.PaymentAmount)
		putDate(meta, MetaPaymentDate, d.PaymentDate)
	case OrderStatusCancelled:
		putString(meta, MetaReason, strings.TrimSpace(d.CancellationReason))
	}

	if len(meta) == 0 {
		return nil
	}
	return meta
}

func putString(m Metadata, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func putDate(m Metadata, key string, value *time.Time) {
	if value != nil {
		m[key] = value.Format(dateLayout)
	}
}

func putDecimal(m Metadata, key string, value *decimal.Decimal) {
	if value != nil {
		m[key] = value.String()
	}
}
