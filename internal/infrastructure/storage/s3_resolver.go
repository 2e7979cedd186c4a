// Package storage resolves attachment storage keys against object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	infraconfig "github.com/erp/purchasing/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure S3URLResolver implements DownloadURLResolver and ObjectChecker
var (
	_ purchasingapp.DownloadURLResolver = (*S3URLResolver)(nil)
	_ purchasingapp.ObjectChecker       = (*S3URLResolver)(nil)
)

// ErrStorageKeyRequired is returned for an empty storage key
var ErrStorageKeyRequired = errors.New("storage key is required")

// S3URLResolver presigns download URLs for attachment storage keys.
// It works with any S3-compatible backend (AWS S3, MinIO, RustFS).
type S3URLResolver struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	expiry        time.Duration
	logger        *zap.Logger
}

// S3URLResolverOption configures an S3URLResolver
type S3URLResolverOption func(*S3URLResolver)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3URLResolverOption {
	return func(r *S3URLResolver) {
		r.logger = logger
	}
}

// WithPresignExpiry overrides the configured expiry
func WithPresignExpiry(d time.Duration) S3URLResolverOption {
	return func(r *S3URLResolver) {
		r.expiry = d
	}
}

// NewS3URLResolver creates a resolver from the storage configuration
func NewS3URLResolver(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3URLResolverOption) (*S3URLResolver, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(regionOrDefault(cfg.Region))}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("storage access key id and secret access key must be set together")
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	r := &S3URLResolver{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		expiry:        cfg.PresignExpiry,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.expiry <= 0 {
		r.expiry = 15 * time.Minute
	}
	return r, nil
}

// DownloadURL presigns a GET for storageKey. A non-positive expiresIn uses the
// configured expiry.
func (r *S3URLResolver) DownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = r.expiry
	}

	req, err := r.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download URL: %w", err)
	}

	r.logger.Debug("Presigned attachment download",
		zap.String("bucket", r.bucket),
		zap.String("storage_key", storageKey),
		zap.Duration("expires_in", expiresIn),
	)
	return req.URL, time.Now().Add(expiresIn), nil
}

// ObjectExists reports whether storageKey is present in the bucket
func (r *S3URLResolver) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, ErrStorageKeyRequired
	}

	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(storageKey),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// some S3-compatible services only report the code in the message
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchKey") {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// Bucket returns the bucket name
func (r *S3URLResolver) Bucket() string {
	return r.bucket
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return "https://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}
