package config

import (
	"time"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/ratelimit"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr                string `json:"addr,omitempty" yaml:"addr,omitempty"`
	ScrapeSecret        string `json:"scrape_secret,omitempty" yaml:"scrape_secret,omitempty"`
	MaxBodyBytes        int64  `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"omitempty,min=1024"`
	ReadTimeoutSecs     int    `json:"read_timeout_secs,omitempty" yaml:"read_timeout_secs,omitempty" validate:"omitempty,min=1"`
	WriteTimeoutSecs    int    `json:"write_timeout_secs,omitempty" yaml:"write_timeout_secs,omitempty" validate:"omitempty,min=1"`
	ShutdownTimeoutSecs int    `json:"shutdown_timeout_secs,omitempty" yaml:"shutdown_timeout_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultServerConfig creates default server configuration
func NewDefaultServerConfig() ServerConfig {
	def := api.DefaultConfig()
	return ServerConfig{
		Addr:                DefaultServerAddr,
		MaxBodyBytes:        def.MaxBodyBytes,
		ReadTimeoutSecs:     int(def.ReadTimeout / time.Second),
		WriteTimeoutSecs:    int(def.WriteTimeout / time.Second),
		ShutdownTimeoutSecs: int(def.ShutdownTimeout / time.Second),
	}
}

// APIConfig builds the server settings; the default bulk concurrency comes
// from the scraper section.
func (c *GlobalConfig) APIConfig() api.Config {
	def := api.DefaultConfig()
	s := c.ServerConfig
	out := def
	if s.Addr != "" {
		out.Addr = s.Addr
	}
	out.ScrapeSecret = s.ScrapeSecret
	if s.MaxBodyBytes > 0 {
		out.MaxBodyBytes = s.MaxBodyBytes
	}
	out.ReadTimeout = seconds(s.ReadTimeoutSecs, def.ReadTimeout)
	out.WriteTimeout = seconds(s.WriteTimeoutSecs, def.WriteTimeout)
	out.ShutdownTimeout = seconds(s.ShutdownTimeoutSecs, def.ShutdownTimeout)
	if c.ScraperConfig.DefaultConcurrency > 0 {
		out.DefaultConcurrency = c.ScraperConfig.DefaultConcurrency
	}
	return out
}

// RateLimitConfig throttles API clients.
type RateLimitConfig struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	Requests          int  `json:"requests,omitempty" yaml:"requests,omitempty" validate:"omitempty,min=1"`
	WindowSecs        int  `json:"window_secs,omitempty" yaml:"window_secs,omitempty" validate:"omitempty,min=1"`
	SweepIntervalSecs int  `json:"sweep_interval_secs,omitempty" yaml:"sweep_interval_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultRateLimitConfig creates default rate limit configuration
func NewDefaultRateLimitConfig() RateLimitConfig {
	def := ratelimit.DefaultConfig()
	return RateLimitConfig{
		Enabled:           def.Enabled,
		Requests:          def.Requests,
		WindowSecs:        int(def.Window / time.Second),
		SweepIntervalSecs: int(def.SweepInterval / time.Second),
	}
}

// LimiterConfig converts the ratelimit section.
func (c RateLimitConfig) LimiterConfig() ratelimit.Config {
	def := ratelimit.DefaultConfig()
	out := ratelimit.Config{
		Enabled:       c.Enabled,
		Requests:      def.Requests,
		Window:        seconds(c.WindowSecs, def.Window),
		SweepInterval: seconds(c.SweepIntervalSecs, def.SweepInterval),
	}
	if c.Requests > 0 {
		out.Requests = c.Requests
	}
	return out
}
