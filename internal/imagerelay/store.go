package imagerelay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// ObjectStore persists an uploaded image and returns its public URL.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// BunnyConfig describes a Bunny storage zone and the pull zone serving it.
type BunnyConfig struct {
	Region      string
	StorageZone string
	AccessKey   string
	CDNBaseURL  string
	// Endpoint overrides https://{Region}; used by tests.
	Endpoint   string
	MaxRetries int
	Timeout    time.Duration
}

func DefaultBunnyConfig() BunnyConfig {
	return BunnyConfig{
		Region:      "ny.storage.bunnycdn.com",
		StorageZone: "og-preview",
		CDNBaseURL:  "https://cdn.ogpreview.co",
		MaxRetries:  3,
		Timeout:     30 * time.Second,
	}
}

// BunnyStore uploads objects to Bunny storage over its HTTP API.
type BunnyStore struct {
	config BunnyConfig
	client *retryablehttp.Client
	logger zerolog.Logger
}

func NewBunnyStore(config BunnyConfig, logger zerolog.Logger) (*BunnyStore, error) {
	if strings.TrimSpace(config.AccessKey) == "" {
		return nil, common.NewConfigurationError("relay.bunny", "access_key", "access key is required")
	}
	if config.StorageZone == "" || (config.Region == "" && config.Endpoint == "") {
		return nil, common.NewConfigurationError("relay.bunny", "storage_zone", "storage zone and region are required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = config.MaxRetries
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = config.Timeout
	client.Logger = nil

	return &BunnyStore{
		config: config,
		client: client,
		logger: logger.With().Str("component", "BunnyStore").Logger(),
	}, nil
}

func (s *BunnyStore) uploadURL(name string) string {
	endpoint := s.config.Endpoint
	if endpoint == "" {
		endpoint = "https://" + s.config.Region
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(endpoint, "/"), s.config.StorageZone, name)
}

// Put uploads data with PUT and returns the CDN URL of the object.
func (s *BunnyStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, s.uploadURL(name), bytes.NewReader(data))
	if err != nil {
		return "", common.WrapError(err, "failed to create upload request")
	}
	req.Header.Set("AccessKey", s.config.AccessKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", common.WrapErrorf(err, "upload of %s failed", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("bunny upload failed: %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	s.logger.Debug().Str("object", name).Int("bytes", len(data)).Msg("Image uploaded")
	return strings.TrimSuffix(s.config.CDNBaseURL, "/") + "/" + name, nil
}

// FileStore writes objects to a local directory served at PublicBaseURL.
type FileStore struct {
	Dir           string
	PublicBaseURL string
}

func NewFileStore(dir, publicBaseURL string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, common.NewConfigurationError("relay", "file_dir", "directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create image directory %s", dir)
	}
	return &FileStore{Dir: dir, PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (s *FileStore) Put(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", common.NewValidationError("name", name, "object name must not contain a path")
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", common.WrapErrorf(err, "failed to write %s", name)
	}
	return s.PublicBaseURL + "/" + name, nil
}
