package models

import (
	"errors"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrHistoryImmutable is returned when code tries to rewrite a ledger entry
var ErrHistoryImmutable = errors.New("status history entries are append-only")

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	TenantAggregateModel
	OrderNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_purchase_order_tenant_number,priority:2"`
	SupplierID  *uuid.UUID             `gorm:"type:uuid;index"`
	Status      purchasing.OrderStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	Items       []LineItemModel        `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	TotalAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Notes       string                 `gorm:"type:text"`

	ConfirmationNumber    string     `gorm:"type:varchar(100)"`
	TrackingNumber        string     `gorm:"type:varchar(100)"`
	Carrier               string     `gorm:"type:varchar(100)"`
	EstimatedDeliveryDate *time.Time `gorm:"type:date"`
	PackageCount          *int
	PackageCondition      string `gorm:"type:varchar(100)"`

	InvoiceNumber    string           `gorm:"type:varchar(100)"`
	InvoiceAmount    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TaxAmount        *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PaymentDueDate   *time.Time       `gorm:"type:date"`
	PaymentMethod    string           `gorm:"type:varchar(50)"`
	PaymentReference string           `gorm:"type:varchar(100)"`
	PaymentAmount    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PaymentDate      *time.Time

	CancellationReason string     `gorm:"type:varchar(500)"`
	ReceivedBy         *uuid.UUID `gorm:"type:uuid"`
	VerifiedBy         *uuid.UUID `gorm:"type:uuid"`

	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	ReceivedAt  *time.Time
	VerifiedAt  *time.Time
	InvoicedAt  *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	order := &purchasing.PurchaseOrder{
		OrderNumber:           m.OrderNumber,
		SupplierID:            m.SupplierID,
		Status:                m.Status,
		TotalAmount:           m.TotalAmount,
		Notes:                 m.Notes,
		ConfirmationNumber:    m.ConfirmationNumber,
		TrackingNumber:        m.TrackingNumber,
		Carrier:               m.Carrier,
		EstimatedDeliveryDate: m.EstimatedDeliveryDate,
		PackageCount:          m.PackageCount,
		PackageCondition:      m.PackageCondition,
		InvoiceNumber:         m.InvoiceNumber,
		InvoiceAmount:         m.InvoiceAmount,
		TaxAmount:             m.TaxAmount,
		PaymentDueDate:        m.PaymentDueDate,
		PaymentMethod:         m.PaymentMethod,
		PaymentReference:      m.PaymentReference,
		PaymentAmount:         m.PaymentAmount,
		PaymentDate:           m.PaymentDate,
		CancellationReason:    m.CancellationReason,
		ReceivedBy:            m.ReceivedBy,
		VerifiedBy:            m.VerifiedBy,
		ConfirmedAt:           m.ConfirmedAt,
		ShippedAt:             m.ShippedAt,
		ReceivedAt:            m.ReceivedAt,
		VerifiedAt:            m.VerifiedAt,
		InvoicedAt:            m.InvoicedAt,
		PaidAt:                m.PaidAt,
		CancelledAt:           m.CancelledAt,
		Items:                 make([]purchasing.LineItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&order.TenantAggregateRoot)
	for i := range m.Items {
		order.Items[i] = *m.Items[i].ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder entity.
func (m *PurchaseOrderModel) FromDomain(o *purchasing.PurchaseOrder) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.SupplierID = o.SupplierID
	m.Status = o.Status
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.ConfirmationNumber = o.ConfirmationNumber
	m.TrackingNumber = o.TrackingNumber
	m.Carrier = o.Carrier
	m.EstimatedDeliveryDate = o.EstimatedDeliveryDate
	m.PackageCount = o.PackageCount
	m.PackageCondition = o.PackageCondition
	m.InvoiceNumber = o.InvoiceNumber
	m.InvoiceAmount = o.InvoiceAmount
	m.TaxAmount = o.TaxAmount
	m.PaymentDueDate = o.PaymentDueDate
	m.PaymentMethod = o.PaymentMethod
	m.PaymentReference = o.PaymentReference
	m.PaymentAmount = o.PaymentAmount
	m.PaymentDate = o.PaymentDate
	m.CancellationReason = o.CancellationReason
	m.ReceivedBy = o.ReceivedBy
	m.VerifiedBy = o.VerifiedBy
	m.ConfirmedAt = o.ConfirmedAt
	m.ShippedAt = o.ShippedAt
	m.ReceivedAt = o.ReceivedAt
	m.VerifiedAt = o.VerifiedAt
	m.InvoicedAt = o.InvoicedAt
	m.PaidAt = o.PaidAt
	m.CancelledAt = o.CancelledAt
	m.Items = make([]LineItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = *LineItemModelFromDomain(&o.Items[i])
	}
}

// LifecycleColumns returns the columns a transition may change, keyed by
// column name. Version is handled by the repository.
func (m *PurchaseOrderModel) LifecycleColumns() map[string]any {
	return map[string]any{
		"status":                  m.Status,
		"updated_at":              m.UpdatedAt,
		"confirmation_number":     m.ConfirmationNumber,
		"tracking_number":         m.TrackingNumber,
		"carrier":                 m.Carrier,
		"estimated_delivery_date": m.EstimatedDeliveryDate,
		"package_count":           m.PackageCount,
		"package_condition":       m.PackageCondition,
		"invoice_number":          m.InvoiceNumber,
		"invoice_amount":          m.InvoiceAmount,
		"tax_amount":              m.TaxAmount,
		"payment_due_date":        m.PaymentDueDate,
		"payment_method":          m.PaymentMethod,
		"payment_reference":       m.PaymentReference,
		"payment_amount":          m.PaymentAmount,
		"payment_date":            m.PaymentDate,
		"cancellation_reason":     m.CancellationReason,
		"received_by":             m.ReceivedBy,
		"verified_by":             m.VerifiedBy,
		"confirmed_at":            m.ConfirmedAt,
		"shipped_at":              m.ShippedAt,
		"received_at":             m.ReceivedAt,
		"verified_at":             m.VerifiedAt,
		"invoiced_at":             m.InvoicedAt,
		"paid_at":                 m.PaidAt,
		"cancelled_at":            m.CancelledAt,
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder entity.
func PurchaseOrderModelFromDomain(o *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// LineItemModel is the persistence model for the LineItem entity.
type LineItemModel struct {
	ID               uuid.UUID                 `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OrderID          uuid.UUID                 `gorm:"type:uuid;not null;index"`
	LineNumber       int                       `gorm:"not null"`
	ProductID        *uuid.UUID                `gorm:"type:uuid"`
	ProductName      string                    `gorm:"type:varchar(200)"`
	Unit             string                    `gorm:"type:varchar(20)"`
	Quantity         decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Amount           decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	Notes            string                    `gorm:"type:text"`
	QuantityReceived *decimal.Decimal          `gorm:"type:decimal(18,4)"`
	ItemCondition    *purchasing.ItemCondition `gorm:"type:varchar(20)"`
	QualityStatus    *purchasing.QualityStatus `gorm:"type:varchar(20)"`
	ReceptionNotes   string                    `gorm:"type:text"`
	QualityNotes     string                    `gorm:"type:text"`
	ReceivedBy       *uuid.UUID                `gorm:"type:uuid"`
	ReceivedAt       *time.Time
	VerifiedBy       *uuid.UUID `gorm:"type:uuid"`
	VerifiedAt       *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain LineItem entity.
func (m *LineItemModel) ToDomain() *purchasing.LineItem {
	return &purchasing.LineItem{
		ID:               m.ID,
		TenantID:         m.TenantID,
		OrderID:          m.OrderID,
		LineNumber:       m.LineNumber,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		Unit:             m.Unit,
		OrderedQuantity:  m.Quantity,
		UnitPrice:        m.UnitPrice,
		Amount:           m.Amount,
		Notes:            m.Notes,
		QuantityReceived: m.QuantityReceived,
		ItemCondition:    m.ItemCondition,
		QualityStatus:    m.QualityStatus,
		ReceptionNotes:   m.ReceptionNotes,
		QualityNotes:     m.QualityNotes,
		ReceivedBy:       m.ReceivedBy,
		ReceivedAt:       m.ReceivedAt,
		VerifiedBy:       m.VerifiedBy,
		VerifiedAt:       m.VerifiedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain LineItem entity.
func (m *LineItemModel) FromDomain(i *purchasing.LineItem) {
	m.ID = i.ID
	m.TenantID = i.TenantID
	m.OrderID = i.OrderID
	m.LineNumber = i.LineNumber
	m.ProductID = i.ProductID
	m.ProductName = i.ProductName
	m.Unit = i.Unit
	m.Quantity = i.OrderedQuantity
	m.UnitPrice = i.UnitPrice
	m.Amount = i.Amount
	m.Notes = i.Notes
	m.QuantityReceived = i.QuantityReceived
	m.ItemCondition = i.ItemCondition
	m.QualityStatus = i.QualityStatus
	m.ReceptionNotes = i.ReceptionNotes
	m.QualityNotes = i.QualityNotes
	m.ReceivedBy = i.ReceivedBy
	m.ReceivedAt = i.ReceivedAt
	m.VerifiedBy = i.VerifiedBy
	m.VerifiedAt = i.VerifiedAt
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// ReceptionColumns returns the reception and quality columns of an item
func (m *LineItemModel) ReceptionColumns() map[string]any {
	return map[string]any{
		"quantity_received": m.QuantityReceived,
		"item_condition":    m.ItemCondition,
		"quality_status":    m.QualityStatus,
		"reception_notes":   m.ReceptionNotes,
		"quality_notes":     m.QualityNotes,
		"received_by":       m.ReceivedBy,
		"received_at":       m.ReceivedAt,
		"verified_by":       m.VerifiedBy,
		"verified_at":       m.VerifiedAt,
		"updated_at":        m.UpdatedAt,
	}
}

// LineItemModelFromDomain creates a new persistence model from a domain LineItem entity.
func LineItemModelFromDomain(i *purchasing.LineItem) *LineItemModel {
	m := &LineItemModel{}
	m.FromDomain(i)
	return m
}

// StatusHistoryModel is one row of the append-only status ledger. Seq is
// assigned by the database and breaks ties between equal timestamps.
type StatusHistoryModel struct {
	Seq        int64                   `gorm:"column:seq;primaryKey;autoIncrement"`
	ID         uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex"`
	TenantID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID               `gorm:"type:uuid;not null;index:idx_status_history_order_changed,priority:1"`
	FromStatus *purchasing.OrderStatus `gorm:"type:varchar(30)"`
	ToStatus   purchasing.OrderStatus  `gorm:"type:varchar(30);not null"`
	ChangedBy  uuid.UUID               `gorm:"type:uuid;not null"`
	ChangedAt  time.Time               `gorm:"not null;index:idx_status_history_order_changed,priority:2"`
	Notes      string                  `gorm:"type:text"`
	Metadata   datatypes.JSONMap       `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StatusHistoryModel) TableName() string {
	return "purchase_order_status_history"
}

// BeforeUpdate rejects any attempt to rewrite a ledger entry
func (m *StatusHistoryModel) BeforeUpdate(tx *gorm.DB) error {
	return ErrHistoryImmutable
}

// ToDomain converts the persistence model to a domain StatusHistoryEntry.
func (m *StatusHistoryModel) ToDomain() *purchasing.StatusHistoryEntry {
	return &purchasing.StatusHistoryEntry{
		ID:         m.ID,
		Sequence:   m.Seq,
		TenantID:   m.TenantID,
		OrderID:    m.OrderID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ChangedBy:  m.ChangedBy,
		ChangedAt:  m.ChangedAt,
		Notes:      m.Notes,
		Metadata:   metadataToDomain(m.Metadata),
	}
}

// StatusHistoryModelFromDomain creates a new persistence model from a domain
// StatusHistoryEntry. Seq is left zero so the database assigns it.
func StatusHistoryModelFromDomain(e *purchasing.StatusHistoryEntry) *StatusHistoryModel {
	return &StatusHistoryModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		OrderID:    e.OrderID,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ChangedBy:  e.ChangedBy,
		ChangedAt:  e.ChangedAt,
		Notes:      e.Notes,
		Metadata:   metadataFromDomain(e.Metadata),
	}
}

// AttachmentModel is the persistence model for the Attachment entity.
type AttachmentModel struct {
	BaseModel
	TenantID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	StoragePath    string                    `gorm:"column:storage_path;type:varchar(500);not null"`
	URL            string                    `gorm:"column:url;type:text"`
	FileName       string                    `gorm:"column:file_name;type:varchar(255);not null"`
	FileSize       int64                     `gorm:"column:file_size;type:bigint;not null"`
	MimeType       string                    `gorm:"column:mime_type;type:varchar(100);not null"`
	AttachmentType purchasing.AttachmentType `gorm:"type:varchar(30);not null;index"`
	RelatedStatus  *purchasing.OrderStatus   `gorm:"type:varchar(30)"`
	Description    string                    `gorm:"type:varchar(1000)"`
	Metadata       datatypes.JSONMap         `gorm:"type:jsonb"`
	UploadedBy     uuid.UUID                 `gorm:"column:uploaded_by;type:uuid;not null"`
	UploadedAt     time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "purchase_order_attachments"
}

// ToDomain converts the persistence model to a domain Attachment entity.
func (m *AttachmentModel) ToDomain() *purchasing.Attachment {
	return &purchasing.Attachment{
		ID:             m.ID,
		TenantID:       m.TenantID,
		OrderID:        m.OrderID,
		StoragePath:    m.StoragePath,
		URL:            m.URL,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		MimeType:       m.MimeType,
		AttachmentType: m.AttachmentType,
		RelatedStatus:  m.RelatedStatus,
		Description:    m.Description,
		Metadata:       metadataToDomain(m.Metadata),
		UploadedBy:     m.UploadedBy,
		UploadedAt:     m.UploadedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Attachment entity.
func (m *AttachmentModel) FromDomain(a *purchasing.Attachment) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.TenantID = a.TenantID
	m.OrderID = a.OrderID
	m.StoragePath = a.StoragePath
	m.URL = a.URL
	m.FileName = a.FileName
	m.FileSize = a.FileSize
	m.MimeType = a.MimeType
	m.AttachmentType = a.AttachmentType
	m.RelatedStatus = a.RelatedStatus
	m.Description = a.Description
	m.Metadata = metadataFromDomain(a.Metadata)
	m.UploadedBy = a.UploadedBy
	m.UploadedAt = a.UploadedAt
}

// AttachmentModelFromDomain creates a new persistence model from a domain Attachment entity.
func AttachmentModelFromDomain(a *purchasing.Attachment) *AttachmentModel {
	m := &AttachmentModel{}
	m.FromDomain(a)
	return m
}

func metadataFromDomain(meta purchasing.Metadata) datatypes.JSONMap {
	if len(meta) == 0 {
		return nil
	}
	return datatypes.JSONMap(meta)
}

func metadataToDomain(meta datatypes.JSONMap) purchasing.Metadata {
	if len(meta) == 0 {
		return nil
	}
	return purchasing.Metadata(meta)
}
