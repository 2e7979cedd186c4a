package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/erp/purchasing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Bucket:          "po-attachments",
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
		PresignExpiry:   10 * time.Minute,
	}
}

func TestNewS3URLResolver_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3URLResolver(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.Bucket = ""
		_, err := NewS3URLResolver(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half a credential pair", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3URLResolver(ctx, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("valid config", func(t *testing.T) {
		r, err := NewS3URLResolver(ctx, testStorageConfig())
		require.NoError(t, err)
		assert.Equal(t, "po-attachments", r.Bucket())
		assert.Equal(t, 10*time.Minute, r.expiry)
	})

	t.Run("expiry defaults to 15 minutes", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PresignExpiry = 0
		r, err := NewS3URLResolver(ctx, cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, r.expiry)
	})

	t.Run("options override config", func(t *testing.T) {
		r, err := NewS3URLResolver(ctx, testStorageConfig(),
			WithPresignExpiry(time.Hour),
			WithLogger(zaptest.NewLogger(t)),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, r.expiry)
	})
}

func TestS3URLResolver_DownloadURL(t *testing.T) {
	ctx := context.Background()
	r, err := NewS3URLResolver(ctx, testStorageConfig())
	require.NoError(t, err)

	t.Run("empty key", func(t *testing.T) {
		_, _, err := r.DownloadURL(ctx, "", 0)
		assert.ErrorIs(t, err, ErrStorageKeyRequired)
	})

	t.Run("presigns path-style URL", func(t *testing.T) {
		raw, expiresAt, err := r.DownloadURL(ctx, "orders/po-1/invoice.pdf", 5*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.True(t, strings.HasPrefix(u.Path, "/po-attachments/orders/po-1/invoice.pdf"))
		assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
		assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("non-positive expiry uses configured default", func(t *testing.T) {
		raw, _, err := r.DownloadURL(ctx, "orders/po-1/invoice.pdf", 0)
		require.NoError(t, err)
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	})
}

func TestS3URLResolver_ObjectExistsRequiresKey(t *testing.T) {
	r, err := NewS3URLResolver(context.Background(), testStorageConfig())
	require.NoError(t, err)

	_, err = r.ObjectExists(context.Background(), "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"minio.local:9000", "https://minio.local:9000"},
		{"http://localhost:9000/", "http://localhost:9000"},
		{"https://s3.eu-west-1.amazonaws.com", "https://s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeEndpoint(tt.in))
		})
	}
}
