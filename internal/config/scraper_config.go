package config

import (
	"github.com/aleister1102/ogpreview/internal/orchestrator"
)

// ScraperConfig tunes the scrape pipeline.
type ScraperConfig struct {
	RequireOGImage     bool `json:"require_og_image" yaml:"require_og_image"`
	PreFetchDelayMinMs int  `json:"pre_fetch_delay_min_ms" yaml:"pre_fetch_delay_min_ms" validate:"min=0"`
	PreFetchDelayMaxMs int  `json:"pre_fetch_delay_max_ms" yaml:"pre_fetch_delay_max_ms" validate:"min=0,gtefield=PreFetchDelayMinMs"`
	BatchDelayMinMs    int  `json:"batch_delay_min_ms" yaml:"batch_delay_min_ms" validate:"min=0"`
	BatchDelayMaxMs    int  `json:"batch_delay_max_ms" yaml:"batch_delay_max_ms" validate:"min=0,gtefield=BatchDelayMinMs"`
	DefaultConcurrency int  `json:"default_concurrency,omitempty" yaml:"default_concurrency,omitempty" validate:"omitempty,min=1,max=10"`
}

// NewDefaultScraperConfig creates default scraper configuration
func NewDefaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		RequireOGImage:     true,
		PreFetchDelayMinMs: 1000,
		PreFetchDelayMaxMs: 3000,
		BatchDelayMinMs:    2000,
		BatchDelayMaxMs:    5000,
		DefaultConcurrency: 1,
	}
}

// OrchestratorConfig converts the scraper section. Zero delays disable
// the corresponding pause.
func (c ScraperConfig) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		RequireOGImage:   c.RequireOGImage,
		PreFetchDelayMin: millis(c.PreFetchDelayMinMs, 0),
		PreFetchDelayMax: millis(c.PreFetchDelayMaxMs, 0),
		BatchDelayMin:    millis(c.BatchDelayMinMs, 0),
		BatchDelayMax:    millis(c.BatchDelayMaxMs, 0),
	}
}
