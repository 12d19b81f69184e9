package imagerelay

import (
	"net/http"
	"time"
)

const (
	DefaultMaxImageBytes = 10 * 1024 * 1024
	DefaultConcurrency   = 3
	defaultUserAgent     = "Mozilla/5.0 (compatible; OGPreview/1.0; +https://ogpreview.com)"
)

// Config controls how images are fetched before upload.
type Config struct {
	Timeout       time.Duration
	MaxImageBytes int64
	Concurrency   int
	MaxRedirects  int
	UserAgent     string
	// Transport replaces the guarded transport; tests point it at httptest.
	Transport http.RoundTripper
}

func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxImageBytes: DefaultMaxImageBytes,
		Concurrency:   DefaultConcurrency,
		MaxRedirects:  5,
		UserAgent:     defaultUserAgent,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = def.MaxImageBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = def.MaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	return c
}
