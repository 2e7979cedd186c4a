package purchasing

import (
	"time"

	"github.com/erp/purchasing/internal/domain/identity"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// CreateOrderRequest creates a purchase order. An empty OrderNumber is
// generated as PO-YYYYMMDD-NNNN.
type CreateOrderRequest struct {
	TenantID    uuid.UUID             `json:"tenant_id" validate:"required"`
	ActorID     uuid.UUID             `json:"actor_id" validate:"required"`
	OrderNumber string                `json:"order_number" validate:"max=50"`
	SupplierID  *uuid.UUID            `json:"supplier_id"`
	Notes       string                `json:"notes" validate:"max=2000"`
	Items       []CreateLineItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateLineItemInput is one ordered line
type CreateLineItemInput struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductName string          `json:"product_name" validate:"max=200"`
	Unit        string          `json:"unit" validate:"max=20"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Notes       string          `json:"notes"`
}

// OrderRef addresses one order within a tenant
type OrderRef struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
}

// ListOrdersRequest lists a tenant's orders, newest first
type ListOrdersRequest struct {
	TenantID  uuid.UUID `json:"tenant_id" validate:"required"`
	Status    string    `json:"status" validate:"omitempty,order_status"`
	SortBy    string    `json:"sort_by" validate:"omitempty,max=50"`
	SortOrder string    `json:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page      int       `json:"page" validate:"gte=0"`
	PageSize  int       `json:"page_size" validate:"gte=0,lte=100"`
}

// TransitionRequest moves an order to Target. Details apply to the target
// status only; Metadata keys are merged under the lifecycle's own keys.
type TransitionRequest struct {
	TenantID uuid.UUID                    `json:"tenant_id" validate:"required"`
	OrderID  uuid.UUID                    `json:"order_id" validate:"required"`
	ActorID  uuid.UUID                    `json:"actor_id" validate:"required"`
	Target   string                       `json:"target_status" validate:"required,order_status"`
	Details  purchasing.TransitionDetails `json:"-"`
	Metadata map[string]any               `json:"metadata"`
	Notes    string                       `json:"notes" validate:"max=2000"`
}

// CancelRequest cancels an order
type CancelRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	ActorID  uuid.UUID `json:"actor_id" validate:"required"`
	Reason   string    `json:"reason" validate:"required,max=1000"`
	Notes    string    `json:"notes" validate:"max=2000"`
}

// DeleteOrderRequest deletes an order and everything it owns
type DeleteOrderRequest struct {
	TenantID uuid.UUID `json:"tenant_id" validate:"required"`
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
	ActorID  uuid.UUID `json:"actor_id" validate:"required"`
}

// ReceiveItemInput is the reception of one line item within ReceiveOrderRequest
type ReceiveItemInput struct {
	ItemID           uuid.UUID       `json:"item_id" validate:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Condition        string          `json:"item_condition" validate:"required,oneof=complete partial missing damaged"`
	QualityStatus    string          `json:"quality_status" validate:"omitempty,oneof=good acceptable poor rejected"`
	Notes            string          `json:"notes" validate:"max=2000"`
}

// ReceiveOrderRequest records reception for several items and moves the order
// to received or partially_received.
type ReceiveOrderRequest struct {
	TenantID         uuid.UUID          `json:"tenant_id" validate:"required"`
	OrderID          uuid.UUID          `json:"order_id" validate:"required"`
	ActorID          uuid.UUID          `json:"actor_id" validate:"required"`
	Items            []ReceiveItemInput `json:"items" validate:"required,min=1,dive"`
	PackageCondition string             `json:"package_condition" validate:"max=100"`
	Metadata         map[string]any     `json:"metadata"`
	Notes            string             `json:"notes" validate:"max=2000"`
}

// VerifyItemInput is the quality assessment of one line item
type VerifyItemInput struct {
	ItemID        uuid.UUID `json:"item_id" validate:"required"`
	QualityStatus string    `json:"quality_status" validate:"required,oneof=good acceptable poor rejected"`
	Notes         string    `json:"notes" validate:"max=2000"`
}

// VerifyOrderRequest records quality for items and moves the order to verified
type VerifyOrderRequest struct {
	TenantID uuid.UUID         `json:"tenant_id" validate:"required"`
	OrderID  uuid.UUID         `json:"order_id" validate:"required"`
	ActorID  uuid.UUID         `json:"actor_id" validate:"required"`
	Items    []VerifyItemInput `json:"items" validate:"dive"`
	Metadata map[string]any    `json:"metadata"`
	Notes    string            `json:"notes" validate:"max=2000"`
}

// RecordReceptionRequest records reception for a single line item without
// touching the order status.
type RecordReceptionRequest struct {
	TenantID         uuid.UUID       `json:"tenant_id" validate:"required"`
	ItemID           uuid.UUID       `json:"item_id" validate:"required"`
	ActorID          uuid.UUID       `json:"actor_id" validate:"required"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Condition        string          `json:"item_condition" validate:"required,oneof=complete partial missing damaged"`
	QualityStatus    string          `json:"quality_status" validate:"omitempty,oneof=good acceptable poor rejected"`
	Notes            string          `json:"notes" validate:"max=2000"`
}

// VerifyLineItemRequest records the quality of a single line item
type VerifyLineItemRequest struct {
	TenantID      uuid.UUID `json:"tenant_id" validate:"required"`
	ItemID        uuid.UUID `json:"item_id" validate:"required"`
	ActorID       uuid.UUID `json:"actor_id" validate:"required"`
	QualityStatus string    `json:"quality_status" validate:"required,oneof=good acceptable poor rejected"`
	Notes         string    `json:"notes" validate:"max=2000"`
}

// AttachRequest registers an externally stored file on an order
type AttachRequest struct {
	TenantID       uuid.UUID      `json:"tenant_id" validate:"required"`
	OrderID        uuid.UUID      `json:"order_id" validate:"required"`
	ActorID        uuid.UUID      `json:"actor_id" validate:"required"`
	StoragePath    string         `json:"storage_path" validate:"required,max=500"`
	URL            string         `json:"url" validate:"omitempty,url"`
	FileName       string         `json:"file_name" validate:"required,max=255"`
	FileSize       int64          `json:"file_size" validate:"gt=0"`
	MimeType       string         `json:"mime_type" validate:"required,max=100"`
	AttachmentType string         `json:"attachment_type" validate:"required,attachment_type"`
	RelatedStatus  string         `json:"related_status" validate:"omitempty,order_status"`
	Description    string         `json:"description" validate:"max=1000"`
	Metadata       map[string]any `json:"metadata"`
}

// ListAttachmentsRequest lists an order's attachments, newest first
type ListAttachmentsRequest struct {
	TenantID       uuid.UUID `json:"tenant_id" validate:"required"`
	OrderID        uuid.UUID `json:"order_id" validate:"required"`
	AttachmentType string    `json:"attachment_type" validate:"omitempty,attachment_type"`
	RelatedStatus  string    `json:"related_status" validate:"omitempty,order_status"`
}

// UpdateAttachmentRequest edits description and metadata; nil leaves a field as is
type UpdateAttachmentRequest struct {
	TenantID     uuid.UUID      `json:"tenant_id" validate:"required"`
	AttachmentID uuid.UUID      `json:"attachment_id" validate:"required"`
	Description  *string        `json:"description" validate:"omitempty,max=1000"`
	Metadata     map[string]any `json:"metadata"`
}

// AttachmentRef addresses one attachment within a tenant
type AttachmentRef struct {
	TenantID     uuid.UUID `json:"tenant_id" validate:"required"`
	AttachmentID uuid.UUID `json:"attachment_id" validate:"required"`
}

// ==================== Responses ====================

// LineItemResponse is the read model of a line item
type LineItemResponse struct {
	ID               uuid.UUID        `json:"id"`
	LineNumber       int              `json:"line_number"`
	ProductID        *uuid.UUID       `json:"product_id,omitempty"`
	ProductName      string           `json:"product_name,omitempty"`
	Unit             string           `json:"unit,omitempty"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	Amount           decimal.Decimal  `json:"amount"`
	QuantityReceived *decimal.Decimal `json:"quantity_received,omitempty"`
	ItemCondition    string           `json:"item_condition,omitempty"`
	QualityStatus    string           `json:"quality_status,omitempty"`
	ReceptionNotes   string           `json:"reception_notes,omitempty"`
	QualityNotes     string           `json:"quality_notes,omitempty"`
	ReceivedBy       *uuid.UUID       `json:"received_by,omitempty"`
	ReceivedAt       *time.Time       `json:"received_at,omitempty"`
	VerifiedBy       *uuid.UUID       `json:"verified_by,omitempty"`
	VerifiedAt       *time.Time       `json:"verified_at,omitempty"`
}

// OrderResponse is the read model of a purchase order
type OrderResponse struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              uuid.UUID          `json:"tenant_id"`
	OrderNumber           string             `json:"order_number"`
	SupplierID            *uuid.UUID         `json:"supplier_id,omitempty"`
	Status                string             `json:"status"`
	TotalAmount           decimal.Decimal    `json:"total_amount"`
	Notes                 string             `json:"notes,omitempty"`
	ConfirmationNumber    string             `json:"confirmation_number,omitempty"`
	TrackingNumber        string             `json:"tracking_number,omitempty"`
	Carrier               string             `json:"carrier,omitempty"`
	EstimatedDeliveryDate *time.Time         `json:"estimated_delivery_date,omitempty"`
	PackageCount          *int               `json:"package_count,omitempty"`
	PackageCondition      string             `json:"package_condition,omitempty"`
	InvoiceNumber         string             `json:"invoice_number,omitempty"`
	TaxAmount             *decimal.Decimal   `json:"tax_amount,omitempty"`
	PaymentDueDate        *time.Time         `json:"payment_due_date,omitempty"`
	PaymentMethod         string             `json:"payment_method,omitempty"`
	PaymentReference      string             `json:"payment_reference,omitempty"`
	PaymentAmount         *decimal.Decimal   `json:"payment_amount,omitempty"`
	PaymentDate           *time.Time         `json:"payment_date,omitempty"`
	CancellationReason    string             `json:"cancellation_reason,omitempty"`
	ReceivedBy            *uuid.UUID         `json:"received_by,omitempty"`
	VerifiedBy            *uuid.UUID         `json:"verified_by,omitempty"`
	ConfirmedAt           *time.Time         `json:"confirmed_at,omitempty"`
	ShippedAt             *time.Time         `json:"shipped_at,omitempty"`
	ReceivedAt            *time.Time         `json:"received_at,omitempty"`
	VerifiedAt            *time.Time         `json:"verified_at,omitempty"`
	InvoicedAt            *time.Time         `json:"invoiced_at,omitempty"`
	PaidAt                *time.Time         `json:"paid_at,omitempty"`
	CancelledAt           *time.Time         `json:"cancelled_at,omitempty"`
	Items                 []LineItemResponse `json:"items"`
	Version               int                `json:"version"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// HistoryEntryResponse is the read model of a ledger entry
type HistoryEntryResponse struct {
	ID         uuid.UUID      `json:"id"`
	Sequence   int64          `json:"sequence"`
	OrderID    uuid.UUID      `json:"order_id"`
	FromStatus *string        `json:"from_status"`
	ToStatus   string         `json:"to_status"`
	ChangedBy  uuid.UUID      `json:"changed_by"`
	ChangedAt  time.Time      `json:"changed_at"`
	Notes      string         `json:"notes,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AttachmentResponse is the read model of an attachment
type AttachmentResponse struct {
	ID             uuid.UUID      `json:"id"`
	OrderID        uuid.UUID      `json:"order_id"`
	StoragePath    string         `json:"storage_path"`
	URL            string         `json:"url,omitempty"`
	FileName       string         `json:"file_name"`
	FileSize       int64          `json:"file_size"`
	MimeType       string         `json:"mime_type"`
	AttachmentType string         `json:"attachment_type"`
	RelatedStatus  *string        `json:"related_status,omitempty"`
	Description    string         `json:"description,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	UploadedBy     uuid.UUID      `json:"uploaded_by"`
	UploadedAt     time.Time      `json:"uploaded_at"`
}

// DownloadURLResponse is a presigned URL for an attachment
type DownloadURLResponse struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ProgressResponse is the progress projection of an order
type ProgressResponse struct {
	OrderID             uuid.UUID             `json:"order_id"`
	OrderNumber         string                `json:"order_number"`
	Status              string                `json:"status"`
	LatestEntry         *HistoryEntryResponse `json:"latest_entry"`
	AttachmentCount     int64                 `json:"attachment_count"`
	ReceivedItemCount   int                   `json:"received_item_count"`
	TotalItemCount      int                   `json:"total_item_count"`
	ReceptionPercentage decimal.Decimal       `json:"reception_percentage"`
}

// ==================== Mapping ====================

// ToOrderResponse converts an order to its read model
func ToOrderResponse(o *purchasing.PurchaseOrder) OrderResponse {
	items := make([]LineItemResponse, len(o.Items))
	for i := range o.Items {
		items[i] = ToLineItemResponse(&o.Items[i])
	}
	return OrderResponse{
		ID:                    o.ID,
		TenantID:              o.TenantID,
		OrderNumber:           o.OrderNumber,
		SupplierID:            o.SupplierID,
		Status:                o.Status.String(),
		TotalAmount:           o.TotalAmount,
		Notes:                 o.Notes,
		ConfirmationNumber:    o.ConfirmationNumber,
		TrackingNumber:        o.TrackingNumber,
		Carrier:               o.Carrier,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		PackageCount:          o.PackageCount,
		PackageCondition:      o.PackageCondition,
		InvoiceNumber:         o.InvoiceNumber,
		TaxAmount:             o.TaxAmount,
		PaymentDueDate:        o.PaymentDueDate,
		PaymentMethod:         o.PaymentMethod,
		PaymentReference:      o.PaymentReference,
		PaymentAmount:         o.PaymentAmount,
		PaymentDate:           o.PaymentDate,
		CancellationReason:    o.CancellationReason,
		ReceivedBy:            o.ReceivedBy,
		VerifiedBy:            o.VerifiedBy,
		ConfirmedAt:           o.ConfirmedAt,
		ShippedAt:             o.ShippedAt,
		ReceivedAt:            o.ReceivedAt,
		VerifiedAt:            o.VerifiedAt,
		InvoicedAt:            o.InvoicedAt,
		PaidAt:                o.PaidAt,
		CancelledAt:           o.CancelledAt,
		Items:                 items,
		Version:               o.Version,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// ToLineItemResponse converts a line item to its read model
func ToLineItemResponse(i *purchasing.LineItem) LineItemResponse {
	resp := LineItemResponse{
		ID:               i.ID,
		LineNumber:       i.LineNumber,
		ProductID:        i.ProductID,
		ProductName:      i.ProductName,
		Unit:             i.Unit,
		Quantity:         i.OrderedQuantity,
		UnitPrice:        i.UnitPrice,
		Amount:           i.Amount,
		QuantityReceived: i.QuantityReceived,
		ReceptionNotes:   i.ReceptionNotes,
		QualityNotes:     i.QualityNotes,
		ReceivedBy:       i.ReceivedBy,
		ReceivedAt:       i.ReceivedAt,
		VerifiedBy:       i.VerifiedBy,
		VerifiedAt:       i.VerifiedAt,
	}
	if i.ItemCondition != nil {
		resp.ItemCondition = i.ItemCondition.String()
	}
	if i.QualityStatus != nil {
		resp.QualityStatus = i.QualityStatus.String()
	}
	return resp
}

// ToHistoryEntryResponse converts a ledger entry to its read model
func ToHistoryEntryResponse(e *purchasing.StatusHistoryEntry) HistoryEntryResponse {
	resp := HistoryEntryResponse{
		ID:        e.ID,
		Sequence:  e.Sequence,
		OrderID:   e.OrderID,
		ToStatus:  e.ToStatus.String(),
		ChangedBy: e.ChangedBy,
		ChangedAt: e.ChangedAt,
		Notes:     e.Notes,
		Metadata:  e.Metadata,
	}
	if e.FromStatus != nil {
		from := e.FromStatus.String()
		resp.FromStatus = &from
	}
	return resp
}

// ToAttachmentResponse converts an attachment to its read model
func ToAttachmentResponse(a *purchasing.Attachment) AttachmentResponse {
	resp := AttachmentResponse{
		ID:             a.ID,
		OrderID:        a.OrderID,
		StoragePath:    a.StoragePath,
		URL:            a.URL,
		FileName:       a.FileName,
		FileSize:       a.FileSize,
		MimeType:       a.MimeType,
		AttachmentType: a.AttachmentType.String(),
		Description:    a.Description,
		Metadata:       a.Metadata,
		UploadedBy:     a.UploadedBy,
		UploadedAt:     a.UploadedAt,
	}
	if a.RelatedStatus != nil {
		related := a.RelatedStatus.String()
		resp.RelatedStatus = &related
	}
	return resp
}

// ToProgressResponse converts a projection to its read model
func ToProgressResponse(p *purchasing.Projection) ProgressResponse {
	resp := ProgressResponse{
		OrderID:             p.OrderID,
		OrderNumber:         p.OrderNumber,
		Status:              p.Status.String(),
		AttachmentCount:     p.AttachmentCount,
		ReceivedItemCount:   p.ReceivedItemCount,
		TotalItemCount:      p.TotalItemCount,
		ReceptionPercentage: p.ReceptionPercentage,
	}
	if p.LatestEntry != nil {
		latest := ToHistoryEntryResponse(p.LatestEntry)
		resp.LatestEntry = &latest
	}
	return resp
}

// ==================== Tenants ====================

// CreateTenantRequest creates a tenant
type CreateTenantRequest struct {
	Code string `json:"code" validate:"required,max=50"`
	Name string `json:"name" validate:"required,max=200"`
}

// TenantResponse is the read model of a tenant
type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToTenantResponse converts a tenant to its read model
func ToTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID,
		Code:      t.Code,
		Name:      t.Name,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}
