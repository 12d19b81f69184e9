package config

import (
	"time"

	"github.com/aleister1102/ogpreview/internal/httpclient"
)

// FetcherConfig controls the guarded HTML fetcher.
type FetcherConfig struct {
	TimeoutSecs        int      `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1,max=300"`
	MaxRedirects       int      `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"omitempty,min=0,max=20"`
	MaxBodyBytes       int64    `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"omitempty,min=1024"`
	ClientPoolSize     int      `json:"client_pool_size,omitempty" yaml:"client_pool_size,omitempty" validate:"omitempty,min=1,max=32"`
	EnableHTTP2        bool     `json:"enable_http2" yaml:"enable_http2"`
	Proxy              string   `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	UserAgents         []string `json:"user_agents,omitempty" yaml:"user_agents,omitempty" validate:"omitempty,dive,required"`
	FallbackDelayMinMs int      `json:"fallback_delay_min_ms,omitempty" yaml:"fallback_delay_min_ms,omitempty" validate:"omitempty,min=0"`
	FallbackDelayMaxMs int      `json:"fallback_delay_max_ms,omitempty" yaml:"fallback_delay_max_ms,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultFetcherConfig creates default fetcher configuration
func NewDefaultFetcherConfig() FetcherConfig {
	def := httpclient.DefaultFetcherConfig()
	return FetcherConfig{
		TimeoutSecs:        int(def.Timeout / time.Second),
		MaxRedirects:       def.MaxRedirects,
		MaxBodyBytes:       def.MaxBodyBytes,
		ClientPoolSize:     def.ClientPoolSize,
		EnableHTTP2:        def.EnableHTTP2,
		FallbackDelayMinMs: int(def.FallbackDelayMin / time.Millisecond),
		FallbackDelayMaxMs: int(def.FallbackDelayMax / time.Millisecond),
	}
}

// RetryConfig defines configuration for HTTP request retries
type RetryConfig struct {
	MaxRetries       int   `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	BaseDelayMs      int   `json:"base_delay_ms,omitempty" yaml:"base_delay_ms,omitempty" validate:"omitempty,min=1"`
	MaxDelayMs       int   `json:"max_delay_ms,omitempty" yaml:"max_delay_ms,omitempty" validate:"omitempty,min=1"`
	MaxJitterMs      int   `json:"max_jitter_ms,omitempty" yaml:"max_jitter_ms,omitempty" validate:"omitempty,min=0"`
	ExtraDelayMinMs  int   `json:"extra_delay_min_ms,omitempty" yaml:"extra_delay_min_ms,omitempty" validate:"omitempty,min=0"`
	ExtraDelayMaxMs  int   `json:"extra_delay_max_ms,omitempty" yaml:"extra_delay_max_ms,omitempty" validate:"omitempty,min=0"`
	RetryStatusCodes []int `json:"retry_status_codes,omitempty" yaml:"retry_status_codes,omitempty" validate:"omitempty,dive,min=100,max=599"`
}

// NewDefaultRetryConfig creates default retry configuration
func NewDefaultRetryConfig() RetryConfig {
	def := httpclient.DefaultRetryHandlerConfig()
	return RetryConfig{
		MaxRetries:       def.MaxRetries,
		BaseDelayMs:      int(def.BaseDelay / time.Millisecond),
		MaxDelayMs:       int(def.MaxDelay / time.Millisecond),
		MaxJitterMs:      int(def.MaxJitter / time.Millisecond),
		ExtraDelayMinMs:  int(def.ExtraDelayMin / time.Millisecond),
		ExtraDelayMaxMs:  int(def.ExtraDelayMax / time.Millisecond),
		RetryStatusCodes: def.RetryStatusCodes,
	}
}

// HTTPClientConfig builds the fetcher settings from the fetcher and retry sections.
func (c *GlobalConfig) HTTPClientConfig() httpclient.FetcherConfig {
	def := httpclient.DefaultFetcherConfig()
	f, r := c.FetcherConfig, c.RetryConfig

	out := def
	out.Timeout = seconds(f.TimeoutSecs, def.Timeout)
	if f.MaxRedirects > 0 {
		out.MaxRedirects = f.MaxRedirects
	}
	if f.MaxBodyBytes > 0 {
		out.MaxBodyBytes = f.MaxBodyBytes
	}
	if f.ClientPoolSize > 0 {
		out.ClientPoolSize = f.ClientPoolSize
	}
	out.EnableHTTP2 = f.EnableHTTP2
	out.Proxy = f.Proxy
	if len(f.UserAgents) > 0 {
		out.UserAgents = append([]string(nil), f.UserAgents...)
	}
	out.FallbackDelayMin = millis(f.FallbackDelayMinMs, def.FallbackDelayMin)
	out.FallbackDelayMax = millis(f.FallbackDelayMaxMs, def.FallbackDelayMax)

	out.Retry.MaxRetries = r.MaxRetries
	out.Retry.BaseDelay = millis(r.BaseDelayMs, def.Retry.BaseDelay)
	out.Retry.MaxDelay = millis(r.MaxDelayMs, def.Retry.MaxDelay)
	out.Retry.MaxJitter = millis(r.MaxJitterMs, 0)
	out.Retry.ExtraDelayMin = millis(r.ExtraDelayMinMs, 0)
	out.Retry.ExtraDelayMax = millis(r.ExtraDelayMaxMs, 0)
	if len(r.RetryStatusCodes) > 0 {
		out.Retry.RetryStatusCodes = append([]int(nil), r.RetryStatusCodes...)
	}
	return out
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func millis(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
