package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore is the slice of object storage the internalizer needs.
// Implemented by storage.S3ObjectStorage and storage.MemoryObjectStorage.
type ObjectStore interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// extensionsByContentType maps accepted image content types to the file
// extension used in the storage key
var extensionsByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// Config holds internalizer settings
type Config struct {
	FetchTimeout  time.Duration
	MaxImageBytes int64
}

// DefaultConfig returns the default internalizer configuration
func DefaultConfig() Config {
	return Config{
		FetchTimeout:  30 * time.Second,
		MaxImageBytes: 20 << 20,
	}
}

// ImageInternalizer downloads external product images and writes them to
// owned object storage under a deterministic per-product key. Re-running
// the same product overwrites the same key, so internalization is
// idempotent.
type ImageInternalizer struct {
	store  ObjectStore
	client *http.Client
	config Config
	logger *zap.Logger
}

// Option is a functional option for ImageInternalizer
type Option func(*ImageInternalizer)

// WithHTTPClient sets a custom HTTP client for image fetching
func WithHTTPClient(client *http.Client) Option {
	return func(i *ImageInternalizer) {
		i.client = client
	}
}

// WithConfig sets the internalizer configuration
func WithConfig(cfg Config) Option {
	return func(i *ImageInternalizer) {
		i.config = cfg
	}
}

// NewImageInternalizer creates a new ImageInternalizer
func NewImageInternalizer(store ObjectStore, logger *zap.Logger, opts ...Option) *ImageInternalizer {
	i := &ImageInternalizer{
		store:  store,
		config: DefaultConfig(),
		logger: logger,
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.client == nil {
		i.client = &http.Client{Timeout: i.config.FetchTimeout}
	}

	return i
}

// Internalize fetches the image at externalURL and stores it under the
// product's storage key. Returns the key of the stored object.
func (i *ImageInternalizer) Internalize(ctx context.Context, tenantID, productID uuid.UUID, externalURL string) (string, error) {
	if _, err := url.ParseRequestURI(externalURL); err != nil {
		return "", &FetchError{URL: externalURL, Err: err}
	}

	data, contentType, err := i.fetch(ctx, externalURL)
	if err != nil {
		return "", err
	}

	ext, ok := extensionsByContentType[contentType]
	if !ok {
		// Servers frequently lie about or omit the content type;
		// sniff the payload before rejecting.
		sniffed := sniffContentType(data)
		ext, ok = extensionsByContentType[sniffed]
		if !ok {
			return "", &UnsupportedMediaError{URL: externalURL, ContentType: contentType}
		}
		contentType = sniffed
	}

	key := StorageKey(tenantID, productID, ext)

	if err := i.store.Upload(ctx, key, data, contentType); err != nil {
		return "", &StorageError{Key: key, Err: err}
	}

	i.logger.Debug("image internalized",
		zap.String("product_id", productID.String()),
		zap.String("storage_key", key),
		zap.Int("bytes", len(data)),
	)

	return key, nil
}

func (i *ImageInternalizer) fetch(ctx context.Context, externalURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, externalURL, nil)
	if err != nil {
		return nil, "", &FetchError{URL: externalURL, Err: err}
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: externalURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &FetchError{URL: externalURL, StatusCode: resp.StatusCode}
	}

	limited := io.LimitReader(resp.Body, i.config.MaxImageBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", &FetchError{URL: externalURL, Err: err}
	}
	if int64(len(data)) > i.config.MaxImageBytes {
		return nil, "", &FetchError{
			URL: externalURL,
			Err: fmt.Errorf("image exceeds %d byte limit", i.config.MaxImageBytes),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	return data, strings.ToLower(contentType), nil
}

// sniffContentType detects the content type from the payload itself
func sniffContentType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType
}

// StorageKey returns the deterministic storage key for a product image.
// A product always maps to the same key (modulo extension), so repeated
// internalization overwrites rather than accumulates.
func StorageKey(tenantID, productID uuid.UUID, ext string) string {
	return fmt.Sprintf("tenants/%s/products/%s/image%s", tenantID, productID, ext)
}
