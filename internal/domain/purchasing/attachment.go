package purchasing

import (
	"net/url"
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxAttachmentFileSize is the maximum allowed file size (100MB)
const MaxAttachmentFileSize = 100 * 1024 * 1024

// AttachmentType classifies a document attached to an order. The set is closed.
type AttachmentType string

const (
	AttachmentTypePurchaseOrder AttachmentType = "purchase_order"
	AttachmentTypeConfirmation  AttachmentType = "confirmation"
	AttachmentTypeShippingLabel AttachmentType = "shipping_label"
	AttachmentTypeInvoice       AttachmentType = "invoice"
	AttachmentTypePaymentProof  AttachmentType = "payment_proof"
	AttachmentTypeQualityPhoto  AttachmentType = "quality_photo"
	AttachmentTypeDeliveryPhoto AttachmentType = "delivery_photo"
	AttachmentTypeQuotation     AttachmentType = "quotation"
	AttachmentTypeReceipt       AttachmentType = "receipt"
	AttachmentTypeContract      AttachmentType = "contract"
	AttachmentTypeDeliveryNote  AttachmentType = "delivery_note"
	AttachmentTypeOther         AttachmentType = "other"
)

// AllAttachmentTypes lists every valid attachment type
var AllAttachmentTypes = []AttachmentType{
	AttachmentTypePurchaseOrder,
	AttachmentTypeConfirmation,
	AttachmentTypeShippingLabel,
	AttachmentTypeInvoice,
	AttachmentTypePaymentProof,
	AttachmentTypeQualityPhoto,
	AttachmentTypeDeliveryPhoto,
	AttachmentTypeQuotation,
	AttachmentTypeReceipt,
	AttachmentTypeContract,
	AttachmentTypeDeliveryNote,
	AttachmentTypeOther,
}

// IsValid checks if the attachment type is valid
func (t AttachmentType) IsValid() bool {
	for _, v := range AllAttachmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// String returns the string representation of AttachmentType
func (t AttachmentType) String() string {
	return string(t)
}

// ParseAttachmentType validates s against the closed type set
func ParseAttachmentType(s string) (AttachmentType, error) {
	t := AttachmentType(s)
	if !t.IsValid() {
		return "", shared.NewValidationError("invalid attachment type %q", s)
	}
	return t, nil
}

// AttachmentInput carries the data needed to register an attachment
type AttachmentInput struct {
	StoragePath    string
	URL            string
	FileName       string
	FileSize       int64
	MimeType       string
	AttachmentType AttachmentType
	RelatedStatus  *OrderStatus
	Description    string
	Metadata       Metadata
}

// Attachment references an externally stored file that belongs to an order,
// optionally tied to the lifecycle stage it documents.
type Attachment struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	OrderID        uuid.UUID
	StoragePath    string
	URL            string
	FileName       string
	FileSize       int64
	MimeType       string
	AttachmentType AttachmentType
	RelatedStatus  *OrderStatus
	Description    string
	Metadata       Metadata
	UploadedBy     uuid.UUID
	UploadedAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAttachment validates the input and creates an attachment for the order
func NewAttachment(tenantID, orderID, actorID uuid.UUID, in AttachmentInput) (*Attachment, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("order is required")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewValidationError("actor is required")
	}
	if err := validateStoragePath(in.StoragePath); err != nil {
		return nil, err
	}
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}
	if err := validateFileName(in.FileName); err != nil {
		return nil, err
	}
	if err := validateFileSize(in.FileSize); err != nil {
		return nil, err
	}
	if err := validateMimeType(in.MimeType); err != nil {
		return nil, err
	}
	if !in.AttachmentType.IsValid() {
		return nil, shared.NewValidationError("invalid attachment type %q", in.AttachmentType)
	}
	if in.RelatedStatus != nil && !in.RelatedStatus.IsValid() {
		return nil, shared.NewValidationError("invalid related status %q", *in.RelatedStatus)
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Attachment{
		ID:             uuid.New(),
		TenantID:       tenantID,
		OrderID:        orderID,
		StoragePath:    in.StoragePath,
		URL:            in.URL,
		FileName:       in.FileName,
		FileSize:       in.FileSize,
		MimeType:       in.MimeType,
		AttachmentType: in.AttachmentType,
		RelatedStatus:  in.RelatedStatus,
		Description:    in.Description,
		Metadata:       in.Metadata.Clone(),
		UploadedBy:     actorID,
		UploadedAt:     now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// GetTenantID returns the owning tenant
func (a *Attachment) GetTenantID() uuid.UUID {
	return a.TenantID
}

// UpdateDetails edits the mutable part of an attachment. A nil argument
// leaves the field unchanged; the file reference itself never changes.
func (a *Attachment) UpdateDetails(description *string, metadata Metadata) error {
	if description != nil {
		if err := validateDescription(*description); err != nil {
			return err
		}
		a.Description = *description
	}
	if metadata != nil {
		a.Metadata = metadata.Clone()
	}
	a.UpdatedAt = time.Now()
	return nil
}

func validateStoragePath(key string) error {
	if strings.TrimSpace(key) == "" {
		return shared.NewValidationError("storage path cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewValidationError("storage path cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewValidationError("storage path cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewValidationError("storage path must be a relative key")
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return shared.NewValidationError("url must be absolute")
	}
	return nil
}

func validateFileName(name string) error {
	if name == "" {
		return shared.NewValidationError("file name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewValidationError("file name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewValidationError("file name contains invalid characters")
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return shared.NewValidationError("file name cannot contain path separators")
	}
	return nil
}

func validateFileSize(size int64) error {
	if size <= 0 {
		return shared.NewValidationError("file size must be greater than 0")
	}
	if size > MaxAttachmentFileSize {
		return shared.NewValidationError("file size cannot exceed 100MB")
	}
	return nil
}

func validateMimeType(mimeType string) error {
	if mimeType == "" {
		return shared.NewValidationError("mime type cannot be empty")
	}
	if len(mimeType) > 100 {
		return shared.NewValidationError("mime type cannot exceed 100 characters")
	}
	if !strings.Contains(mimeType, "/") ||
		strings.HasPrefix(mimeType, "/") || strings.HasSuffix(mimeType, "/") {
		return shared.NewValidationError("mime type must be in type/subtype format")
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > 1000 {
		return shared.NewValidationError("description cannot exceed 1000 characters")
	}
	return nil
}
