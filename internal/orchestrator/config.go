package orchestrator

import "time"

const (
	MinConcurrency = 1
	MaxConcurrency = 10
)

// Config tunes the scrape pipeline.
type Config struct {
	// RequireOGImage skips relay and persistence for pages without og:image.
	RequireOGImage   bool
	PreFetchDelayMin time.Duration
	PreFetchDelayMax time.Duration
	BatchDelayMin    time.Duration
	BatchDelayMax    time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequireOGImage:   true,
		PreFetchDelayMin: time.Second,
		PreFetchDelayMax: 3 * time.Second,
		BatchDelayMin:    2 * time.Second,
		BatchDelayMax:    5 * time.Second,
	}
}

// ClampConcurrency bounds n to [MinConcurrency, MaxConcurrency].
func ClampConcurrency(n int) int {
	if n < MinConcurrency {
		return MinConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
