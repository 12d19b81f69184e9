package orchestrator

import (
	"context"
	"time"

	"github.com/aleister1102/ogpreview/internal/httpclient"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
)

// PageFetcher downloads the HTML of a normalized target.
type PageFetcher interface {
	Fetch(ctx context.Context, target urlhandler.ScrapeTarget) (*httpclient.FetchOutcome, error)
}

// MetadataExtractor parses fetched HTML.
type MetadataExtractor interface {
	Extract(html string, base urlhandler.ScrapeTarget) models.ScrapedMetadata
}

// ImageRelayer re-hosts the images referenced by metadata. It never fails.
type ImageRelayer interface {
	Process(ctx context.Context, metadata models.ScrapedMetadata) models.ScrapedMetadata
}

// MetadataSaver persists a scraped page.
type MetadataSaver interface {
	SaveMetadata(ctx context.Context, targetURL string, metadata models.ScrapedMetadata, scrapedAt time.Time, perf models.PerformanceStats) (bool, error)
}

// CapacityWaiter pauses new batches under resource pressure.
type CapacityWaiter interface {
	WaitForCapacity(ctx context.Context) error
}

// ResultArchiver records the results of a bulk run.
type ResultArchiver interface {
	WriteResults(ctx context.Context, results []models.ScrapeResult) (string, error)
}
