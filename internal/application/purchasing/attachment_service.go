package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultDownloadURLExpiry is used when DownloadURL is called without an expiry
const DefaultDownloadURLExpiry = 15 * time.Minute

// ErrURLResolverNotConfigured is returned by DownloadURL when no resolver was set
var ErrURLResolverNotConfigured = errors.New("attachment download URLs are not configured")

// DownloadURLResolver turns a storage key into a time-limited download URL.
// Attachments are stored externally; only their key is kept here.
type DownloadURLResolver interface {
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ObjectChecker is optionally implemented by a DownloadURLResolver that can
// confirm a storage key exists. Attach then refuses keys with no object behind them.
type ObjectChecker interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// AttachmentService manages the documents attached to purchase orders
type AttachmentService struct {
	instrumentation
	attachmentRepo purchasing.AttachmentRepository
	guard          *TenantGuard
	urlResolver    DownloadURLResolver
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(attachmentRepo purchasing.AttachmentRepository, guard *TenantGuard) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		guard:          guard,
	}
}

// SetURLResolver sets the resolver used by DownloadURL
func (s *AttachmentService) SetURLResolver(resolver DownloadURLResolver) {
	s.urlResolver = resolver
}

// Attach registers an externally stored file on an order
func (s *AttachmentService) Attach(ctx context.Context, req AttachRequest) (*AttachmentResponse, error) {
	ctx, span := begin(ctx, "attachment", "attach", req.TenantID, req.ActorID,
		attribute.String(telemetry.AttrOrderID, req.OrderID.String()))
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, s.fail(ctx, span, "attach", err)
	}
	if err := s.guard.CheckOrder(ctx, req.TenantID, req.OrderID); err != nil {
		return nil, s.fail(ctx, span, "attach", err)
	}

	in := purchasing.AttachmentInput{
		StoragePath:    req.StoragePath,
		URL:            req.URL,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		AttachmentType: purchasing.AttachmentType(req.AttachmentType),
		Description:    req.Description,
		Metadata:       req.Metadata,
	}
	if req.RelatedStatus != "" {
		related := purchasing.OrderStatus(req.RelatedStatus)
		in.RelatedStatus = &related
	}

	attachment, err := purchasing.NewAttachment(req.TenantID, req.OrderID, req.ActorID, in)
	if err != nil {
		return nil, s.fail(ctx, span, "attach", err)
	}
	if err := s.checkObject(ctx, attachment.StoragePath); err != nil {
		return nil, s.fail(ctx, span, "attach", err)
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, s.fail(ctx, span, "attach", err)
	}

	log := operationLogger(ctx, req.TenantID,
		zap.String("order_id", req.OrderID.String()),
		zap.String("attachment_id", attachment.ID.String()))
	log.Info("Attachment added",
		zap.String("attachment_type", req.AttachmentType),
		zap.Int64("file_size", req.FileSize))

	s.metrics.RecordAttachment(ctx, req.AttachmentType)
	s.publish(ctx, log, purchasing.NewAttachmentAddedEvent(attachment))

	response := ToAttachmentResponse(attachment)
	return &response, nil
}

func (s *AttachmentService) checkObject(ctx context.Context, key string) error {
	checker, ok := s.urlResolver.(ObjectChecker)
	if !ok {
		return nil
	}
	exists, err := checker.ObjectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check attachment object: %w", err)
	}
	if !exists {
		return shared.NewValidationError("no stored object at %q", key).WithDetail("storage_path", key)
	}
	return nil
}

// List returns an order's attachments, newest first
func (s *AttachmentService) List(ctx context.Context, req ListAttachmentsRequest) ([]AttachmentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.guard.CheckOrder(ctx, req.TenantID, req.OrderID); err != nil {
		return nil, err
	}

	var filter purchasing.AttachmentFilter
	if req.AttachmentType != "" {
		typ := purchasing.AttachmentType(req.AttachmentType)
		filter.AttachmentType = &typ
	}
	if req.RelatedStatus != "" {
		related := purchasing.OrderStatus(req.RelatedStatus)
		filter.RelatedStatus = &related
	}

	attachments, err := s.attachmentRepo.ListByOrder(ctx, req.TenantID, req.OrderID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses, nil
}

// Get returns one attachment
func (s *AttachmentService) Get(ctx context.Context, ref AttachmentRef) (*AttachmentResponse, error) {
	attachment, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	response := ToAttachmentResponse(attachment)
	return &response, nil
}

// Update edits description and metadata. Everything else is immutable.
func (s *AttachmentService) Update(ctx context.Context, req UpdateAttachmentRequest) (*AttachmentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	attachment, err := s.load(ctx, AttachmentRef{TenantID: req.TenantID, AttachmentID: req.AttachmentID})
	if err != nil {
		return nil, err
	}
	if err := attachment.UpdateDetails(req.Description, req.Metadata); err != nil {
		return nil, err
	}
	if err := s.attachmentRepo.UpdateDetails(ctx, attachment); err != nil {
		return nil, err
	}
	response := ToAttachmentResponse(attachment)
	return &response, nil
}

// Delete removes an attachment record. The stored object is left in place.
func (s *AttachmentService) Delete(ctx context.Context, ref AttachmentRef) error {
	if err := validateRequest(ref); err != nil {
		return err
	}
	if err := s.guard.CheckAttachment(ctx, ref.TenantID, ref.AttachmentID); err != nil {
		return err
	}
	if err := s.attachmentRepo.DeleteForTenant(ctx, ref.TenantID, ref.AttachmentID); err != nil {
		return err
	}
	operationLogger(ctx, ref.TenantID, zap.String("attachment_id", ref.AttachmentID.String())).
		Info("Attachment deleted")
	return nil
}

// DownloadURL resolves a presigned URL for the attachment's stored object
func (s *AttachmentService) DownloadURL(ctx context.Context, ref AttachmentRef, expiresIn time.Duration) (*DownloadURLResponse, error) {
	if s.urlResolver == nil {
		return nil, ErrURLResolverNotConfigured
	}
	attachment, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if expiresIn <= 0 {
		expiresIn = DefaultDownloadURLExpiry
	}
	url, expiresAt, err := s.urlResolver.DownloadURL(ctx, attachment.StoragePath, expiresIn)
	if err != nil {
		return nil, err
	}
	return &DownloadURLResponse{AttachmentID: attachment.ID, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *AttachmentService) load(ctx context.Context, ref AttachmentRef) (*purchasing.Attachment, error) {
	if err := validateRequest(ref); err != nil {
		return nil, err
	}
	if err := s.guard.CheckAttachment(ctx, ref.TenantID, ref.AttachmentID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.FindByIDForTenant(ctx, ref.TenantID, ref.AttachmentID)
}
