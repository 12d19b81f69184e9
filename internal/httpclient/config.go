package httpclient

import (
	"net/http"
	"time"
)

// DefaultMaxBodyBytes caps how much HTML is read from a single response.
const DefaultMaxBodyBytes int64 = 10_000_000

// FetcherConfig controls the guarded HTML fetcher.
type FetcherConfig struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	MaxRedirects        int
	MaxBodyBytes        int64
	ClientPoolSize      int
	EnableHTTP2         bool
	Proxy               string
	UserAgents          []string
	Retry               RetryHandlerConfig
	FallbackDelayMin    time.Duration
	FallbackDelayMax    time.Duration
	// Transport replaces the default guarded transport. Used by tests.
	Transport http.RoundTripper
}

// DefaultFetcherConfig returns the production defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:             45 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxRedirects:        5,
		MaxBodyBytes:        DefaultMaxBodyBytes,
		ClientPoolSize:      4,
		EnableHTTP2:         true,
		UserAgents:          DefaultUserAgents(),
		Retry:               DefaultRetryHandlerConfig(),
		FallbackDelayMin:    3 * time.Second,
		FallbackDelayMax:    5 * time.Second,
	}
}
