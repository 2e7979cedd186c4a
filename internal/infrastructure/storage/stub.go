package storage

import (
	"context"
	"net/url"
	"strings"
	"time"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
)

const defaultStubBaseURL = "https://storage.example.com"

// StubURLResolver builds deterministic URLs without contacting storage.
// It backs the CLI when storage is disabled and the application tests.
type StubURLResolver struct {
	// BaseURL defaults to "https://storage.example.com"
	BaseURL string
}

// NewStubURLResolver creates a new StubURLResolver
func NewStubURLResolver() *StubURLResolver {
	return &StubURLResolver{BaseURL: defaultStubBaseURL}
}

// Ensure StubURLResolver implements DownloadURLResolver
var _ purchasingapp.DownloadURLResolver = (*StubURLResolver)(nil)

// DownloadURL returns BaseURL/download/<key>?expires=<rfc3339>. The key is
// path-escaped, so spaces, '?' and '#' stay inside the path.
func (s *StubURLResolver) DownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, ErrStorageKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}

	base := s.BaseURL
	if base == "" {
		base = defaultStubBaseURL
	}

	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"expires": []string{expiresAt.UTC().Format(time.RFC3339)}}
	return strings.TrimSuffix(base, "/") + "/download/" + escapeKey(storageKey) + "?" + q.Encode(), expiresAt, nil
}

// escapeKey path-escapes each segment of a storage key, keeping the slashes
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
