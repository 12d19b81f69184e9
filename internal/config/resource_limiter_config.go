package config

import (
	"time"

	"github.com/aleister1102/ogpreview/internal/rslimiter"
)

// ResourceLimiterConfig holds configuration for memory pressure checks
type ResourceLimiterConfig struct {
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	MaxHeapMB           int64   `json:"max_heap_mb,omitempty" yaml:"max_heap_mb,omitempty" validate:"omitempty,min=64"`
	SystemMemThreshold  float64 `json:"system_mem_threshold,omitempty" yaml:"system_mem_threshold,omitempty" validate:"omitempty,min=0.1,max=1.0"`
	PollIntervalSecs    int     `json:"poll_interval_secs,omitempty" yaml:"poll_interval_secs,omitempty" validate:"omitempty,min=1"`
	MaxWaitSecs         int     `json:"max_wait_secs,omitempty" yaml:"max_wait_secs,omitempty" validate:"omitempty,min=1"`
	MonitorIntervalSecs int     `json:"monitor_interval_secs,omitempty" yaml:"monitor_interval_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultResourceLimiterConfig creates default resource limiter configuration
func NewDefaultResourceLimiterConfig() ResourceLimiterConfig {
	def := rslimiter.DefaultConfig()
	return ResourceLimiterConfig{
		Enabled:             def.Enabled,
		MaxHeapMB:           def.MaxHeapMB,
		SystemMemThreshold:  def.SystemMemThreshold,
		PollIntervalSecs:    int(def.PollInterval / time.Second),
		MaxWaitSecs:         int(def.MaxWait / time.Second),
		MonitorIntervalSecs: int(def.MonitorInterval / time.Second),
	}
}

// LimiterConfig converts the resource_limiter section.
func (c ResourceLimiterConfig) LimiterConfig() rslimiter.Config {
	def := rslimiter.DefaultConfig()
	return rslimiter.Config{
		Enabled:            c.Enabled,
		MaxHeapMB:          c.MaxHeapMB,
		SystemMemThreshold: c.SystemMemThreshold,
		PollInterval:       seconds(c.PollIntervalSecs, def.PollInterval),
		MaxWait:            seconds(c.MaxWaitSecs, def.MaxWait),
		MonitorInterval:    seconds(c.MonitorIntervalSecs, def.MonitorInterval),
	}
}
