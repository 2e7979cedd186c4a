package purchasing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)

func (f resolverFunc) DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	return f(ctx, key, expiresIn)
}

// checkingResolver also reports whether objects exist
type checkingResolver struct {
	resolverFunc
	objects map[string]bool
	err     error
}

func (c checkingResolver) ObjectExists(_ context.Context, key string) (bool, error) {
	return c.objects[key], c.err
}

func (f *fixture) attachmentService() *AttachmentService {
	svc := NewAttachmentService(f.attachments, f.guard)
	svc.SetEventPublisher(f.publisher)
	return svc
}

func validAttachRequest(f *fixture, orderID uuid.UUID) AttachRequest {
	return AttachRequest{
		TenantID:       f.tenantID,
		OrderID:        orderID,
		ActorID:        f.actorID,
		StoragePath:    "orders/" + orderID.String() + "/invoice.pdf",
		FileName:       "invoice.pdf",
		FileSize:       4096,
		MimeType:       "application/pdf",
		AttachmentType: "invoice",
		RelatedStatus:  "invoiced",
		Metadata:       map[string]any{"pages": 2},
	}
}

func storedAttachment(t *testing.T, f *fixture, orderID uuid.UUID) *purchasing.Attachment {
	t.Helper()
	a, err := purchasing.NewAttachment(f.tenantID, orderID, f.actorID, purchasing.AttachmentInput{
		StoragePath:    "orders/" + orderID.String() + "/label.png",
		FileName:       "label.png",
		FileSize:       512,
		MimeType:       "image/png",
		AttachmentType: purchasing.AttachmentTypeShippingLabel,
	})
	require.NoError(t, err)
	f.owners.On("AttachmentTenant", mock.Anything, a.ID).Return(f.tenantID, nil)
	f.attachments.On("FindByIDForTenant", mock.Anything, f.tenantID, a.ID).Return(a, nil)
	return a
}

func TestAttachmentService_Attach(t *testing.T) {
	t.Run("registers the file and publishes", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)
		f.attachments.On("Create", mock.Anything, mock.AnythingOfType("*purchasing.Attachment")).Return(nil)

		resp, err := f.attachmentService().Attach(context.Background(), validAttachRequest(f, orderID))
		require.NoError(t, err)

		assert.Equal(t, "invoice", resp.AttachmentType)
		require.NotNil(t, resp.RelatedStatus)
		assert.Equal(t, "invoiced", *resp.RelatedStatus)
		assert.Equal(t, 2, resp.Metadata["pages"])
		assert.Equal(t, []string{purchasing.EventTypePurchaseOrderAttachmentAdded}, f.publisher.types())
	})

	tests := []struct {
		name   string
		mutate func(*AttachRequest)
	}{
		{"zero file size", func(r *AttachRequest) { r.FileSize = 0 }},
		{"unknown attachment type", func(r *AttachRequest) { r.AttachmentType = "bogus" }},
		{"empty storage reference", func(r *AttachRequest) { r.StoragePath = "" }},
		{"unknown related status", func(r *AttachRequest) { r.RelatedStatus = "archived" }},
		{"missing mime type", func(r *AttachRequest) { r.MimeType = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := validAttachRequest(f, uuid.New())
			tt.mutate(&req)

			_, err := f.attachmentService().Attach(context.Background(), req)
			assert.True(t, shared.IsValidation(err))
			f.attachments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("storage keys escaping the prefix are refused", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)
		req := validAttachRequest(f, orderID)
		req.StoragePath = "../secrets.txt"

		_, err := f.attachmentService().Attach(context.Background(), req)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("an order of another tenant is an isolation violation", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(uuid.New(), nil)

		_, err := f.attachmentService().Attach(context.Background(), validAttachRequest(f, orderID))
		assert.True(t, shared.IsIsolationViolation(err))
	})

	t.Run("a resolver that can check storage refuses missing objects", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)
		svc := f.attachmentService()
		svc.SetURLResolver(checkingResolver{objects: map[string]bool{}})

		_, err := svc.Attach(context.Background(), validAttachRequest(f, orderID))
		assert.True(t, shared.IsValidation(err))
		f.attachments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("a present object is accepted", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)
		f.attachments.On("Create", mock.Anything, mock.AnythingOfType("*purchasing.Attachment")).Return(nil)
		req := validAttachRequest(f, orderID)
		svc := f.attachmentService()
		svc.SetURLResolver(checkingResolver{objects: map[string]bool{req.StoragePath: true}})

		_, err := svc.Attach(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("storage check failures are not validation errors", func(t *testing.T) {
		f := newFixture()
		orderID := uuid.New()
		f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)
		svc := f.attachmentService()
		svc.SetURLResolver(checkingResolver{err: errors.New("connection refused")})

		_, err := svc.Attach(context.Background(), validAttachRequest(f, orderID))
		require.Error(t, err)
		assert.False(t, shared.IsValidation(err))
	})
}

func TestAttachmentService_List(t *testing.T) {
	f := newFixture()
	orderID := uuid.New()
	f.owners.On("OrderTenant", mock.Anything, orderID).Return(f.tenantID, nil)

	typ := purchasing.AttachmentTypeQualityPhoto
	f.attachments.On("ListByOrder", mock.Anything, f.tenantID, orderID, purchasing.AttachmentFilter{AttachmentType: &typ}).
		Return([]purchasing.Attachment{{ID: uuid.New(), OrderID: orderID, AttachmentType: typ}}, nil)

	resp, err := f.attachmentService().List(context.Background(), ListAttachmentsRequest{
		TenantID: f.tenantID, OrderID: orderID, AttachmentType: "quality_photo",
	})
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, "quality_photo", resp[0].AttachmentType)
}

func TestAttachmentService_Update(t *testing.T) {
	f := newFixture()
	a := storedAttachment(t, f, uuid.New())
	f.attachments.On("UpdateDetails", mock.Anything, a).Return(nil)

	description := "torn corner"
	resp, err := f.attachmentService().Update(context.Background(), UpdateAttachmentRequest{
		TenantID:     f.tenantID,
		AttachmentID: a.ID,
		Description:  &description,
		Metadata:     map[string]any{"reviewed": true},
	})
	require.NoError(t, err)
	assert.Equal(t, "torn corner", resp.Description)
	assert.Equal(t, true, resp.Metadata["reviewed"])
	assert.Equal(t, a.StoragePath, resp.StoragePath)
}

func TestAttachmentService_Delete(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.owners.On("AttachmentTenant", mock.Anything, id).Return(f.tenantID, nil)
	f.attachments.On("DeleteForTenant", mock.Anything, f.tenantID, id).Return(nil)

	require.NoError(t, f.attachmentService().Delete(context.Background(), AttachmentRef{TenantID: f.tenantID, AttachmentID: id}))
	f.attachments.AssertExpectations(t)
}

func TestAttachmentService_DownloadURL(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		f := newFixture()
		_, err := f.attachmentService().DownloadURL(context.Background(), AttachmentRef{TenantID: f.tenantID, AttachmentID: uuid.New()}, 0)
		assert.ErrorIs(t, err, ErrURLResolverNotConfigured)
	})

	t.Run("resolves the storage key with the default expiry", func(t *testing.T) {
		f := newFixture()
		a := storedAttachment(t, f, uuid.New())
		expiresAt := time.Now().Add(DefaultDownloadURLExpiry)

		var gotKey string
		var gotExpiry time.Duration
		svc := f.attachmentService()
		svc.SetURLResolver(resolverFunc(func(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
			gotKey, gotExpiry = key, expiresIn
			return "https://files.example.com/" + key, expiresAt, nil
		}))

		resp, err := svc.DownloadURL(context.Background(), AttachmentRef{TenantID: f.tenantID, AttachmentID: a.ID}, 0)
		require.NoError(t, err)
		assert.Equal(t, a.StoragePath, gotKey)
		assert.Equal(t, DefaultDownloadURLExpiry, gotExpiry)
		assert.Equal(t, "https://files.example.com/"+a.StoragePath, resp.URL)
		assert.Equal(t, expiresAt, resp.ExpiresAt)
	})

	t.Run("resolver errors are returned", func(t *testing.T) {
		f := newFixture()
		a := storedAttachment(t, f, uuid.New())
		svc := f.attachmentService()
		boom := errors.New("presign failed")
		svc.SetURLResolver(resolverFunc(func(context.Context, string, time.Duration) (string, time.Time, error) {
			return "", time.Time{}, boom
		}))

		_, err := svc.DownloadURL(context.Background(), AttachmentRef{TenantID: f.tenantID, AttachmentID: a.ID}, time.Minute)
		assert.ErrorIs(t, err, boom)
	})
}
