package rslimiter

import "time"

// Config holds the memory pressure thresholds.
type Config struct {
	Enabled bool
	// MaxHeapMB is the Go heap size above which new work waits.
	MaxHeapMB int64
	// SystemMemThreshold is the used system memory fraction (0.9 = 90%)
	// above which new work waits.
	SystemMemThreshold float64
	PollInterval       time.Duration
	MaxWait            time.Duration
	MonitorInterval    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		MaxHeapMB:          1024,
		SystemMemThreshold: 0.9,
		PollInterval:       2 * time.Second,
		MaxWait:            60 * time.Second,
		MonitorInterval:    30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxHeapMB <= 0 {
		c.MaxHeapMB = def.MaxHeapMB
	}
	if c.SystemMemThreshold <= 0 || c.SystemMemThreshold > 1 {
		c.SystemMemThreshold = def.SystemMemThreshold
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MaxWait <= 0 {
		c.MaxWait = def.MaxWait
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = def.MonitorInterval
	}
	return c
}
