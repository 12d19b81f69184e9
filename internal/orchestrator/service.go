// Package orchestrator drives the scrape pipeline for single URLs and
// batches of URLs.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/httpclient"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/rs/zerolog"
)

const noOGImageInfo = "No Open Graph image found"

// Dependencies are the collaborators of a Service. Fetcher and Extractor are
// required; the rest are optional.
type Dependencies struct {
	Fetcher   PageFetcher
	Extractor MetadataExtractor
	Relayer   ImageRelayer
	Saver     MetadataSaver
	Limiter   CapacityWaiter
	Archiver  ResultArchiver
}

// Service runs scrapes.
type Service struct {
	config Config
	deps   Dependencies
	sleep  httpclient.Sleeper
	random httpclient.RandomDuration
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(config Config, deps Dependencies, logger zerolog.Logger) (*Service, error) {
	if deps.Fetcher == nil {
		return nil, common.NewValidationError("fetcher", nil, "page fetcher is required")
	}
	if deps.Extractor == nil {
		return nil, common.NewValidationError("extractor", nil, "metadata extractor is required")
	}
	return &Service{
		config: config,
		deps:   deps,
		sleep:  httpclient.ContextSleep,
		random: httpclient.DefaultRandomDuration,
		now:    time.Now,
		logger: logger.With().Str("component", "ScrapeOrchestrator").Logger(),
	}, nil
}

// WithSleeper replaces the delay implementation.
func (s *Service) WithSleeper(sleep httpclient.Sleeper) *Service {
	s.sleep = sleep
	return s
}

// WithRandom replaces the jitter source.
func (s *Service) WithRandom(random httpclient.RandomDuration) *Service {
	s.random = random
	return s
}

func (s *Service) delayBetween(ctx context.Context, min, max time.Duration) error {
	if max <= 0 {
		return nil
	}
	d := min
	if max > min {
		d += s.random(max - min)
	}
	return s.sleep(ctx, d)
}

// ScrapeOne normalizes, fetches, extracts, relays and persists one URL.
// Every failure is reported in the result.
func (s *Service) ScrapeOne(ctx context.Context, rawURL string) models.ScrapeResult {
	target, err := urlhandler.Normalize(rawURL)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", rawURL).Msg("Rejected invalid URL")
		return models.FailedResult(rawURL, err)
	}
	targetURL := target.String()
	log := s.logger.With().Str("url", targetURL).Logger()

	if err := s.delayBetween(ctx, s.config.PreFetchDelayMin, s.config.PreFetchDelayMax); err != nil {
		return models.FailedResult(targetURL, models.NewScrapeError(models.ErrTimeout, targetURL, "Scrape cancelled", err))
	}

	outcome, err := s.deps.Fetcher.Fetch(ctx, target)
	if err != nil {
		log.Warn().Err(err).Str("error_code", string(models.CodeOf(err))).Msg("Fetch failed")
		return models.FailedResult(targetURL, err)
	}

	metadata := s.deps.Extractor.Extract(outcome.Body, target)
	scrapedAt := s.now().UTC()
	perf := &models.PerformanceStats{
		ResponseTime:  outcome.ResponseTime.Milliseconds(),
		ContentLength: outcome.ContentLength,
		HTTPStatus:    outcome.StatusCode,
	}
	saved := false
	result := models.ScrapeResult{
		Success:     true,
		URL:         targetURL,
		ScrapedAt:   &scrapedAt,
		Saved:       &saved,
		Performance: perf,
	}

	if s.config.RequireOGImage && !metadata.HasOpenGraphImage() {
		log.Info().Msg("No Open Graph image, skipping relay and persistence")
		result.Metadata = &metadata
		result.Info = noOGImageInfo
		return result
	}

	if s.deps.Relayer != nil {
		metadata = s.deps.Relayer.Process(ctx, metadata)
	}
	result.Metadata = &metadata

	if s.deps.Saver != nil {
		ok, err := s.deps.Saver.SaveMetadata(ctx, targetURL, metadata, scrapedAt, *perf)
		if err != nil {
			log.Error().Err(err).Msg("Failed to save metadata")
		}
		saved = ok && err == nil
	}

	log.Info().
		Int64("response_time_ms", perf.ResponseTime).
		Int64("content_length", perf.ContentLength).
		Bool("saved", saved).
		Msg("Scrape completed")
	return result
}

// ScrapeMany scrapes the distinct URLs of urls in sequential batches of
// maxConcurrency (clamped to [1, 10]). Results follow the order of first
// occurrence. A batch that panics reports BatchProcessingFailed for each of
// its URLs and the remaining batches still run.
func (s *Service) ScrapeMany(ctx context.Context, urls []string, maxConcurrency int) []models.ScrapeResult {
	unique := Deduplicate(urls)
	if len(unique) == 0 {
		return []models.ScrapeResult{}
	}
	concurrency := ClampConcurrency(maxConcurrency)
	results := make([]models.ScrapeResult, len(unique))

	s.logger.Info().
		Int("total_urls", len(urls)).
		Int("unique_urls", len(unique)).
		Int("concurrency", concurrency).
		Msg("Starting bulk scrape")

	processor := common.NewBatchProcessor(common.BatchProcessorConfig{BatchSize: concurrency}, s.logger)
	batchResults := processor.ProcessBatches(ctx, unique,
		func(ctx context.Context, batch []string, batchIndex int) error {
			return s.runBatch(ctx, batch, results[batchIndex*concurrency:])
		},
		func(ctx context.Context, nextBatchIndex int) error {
			return s.delayBetween(ctx, s.config.BatchDelayMin, s.config.BatchDelayMax)
		},
	)

	for _, br := range batchResults {
		if br.Error == nil {
			continue
		}
		for i, u := range br.Items {
			results[br.Start+i] = models.FailedResult(u, models.NewScrapeError(models.ErrBatchProcessingFailed, "", "Batch processing failed", br.Error))
		}
	}

	stats := models.ComputeStatistics(results, 0)
	s.logger.Info().
		Int("successful", stats.Successful).
		Int("failed", stats.Failed).
		Int("saved", stats.Saved).
		Msg("Bulk scrape completed")

	if s.deps.Archiver != nil {
		if path, err := s.deps.Archiver.WriteResults(ctx, results); err != nil {
			s.logger.Error().Err(err).Msg("Failed to archive bulk results")
		} else if path != "" {
			s.logger.Info().Str("path", path).Msg("Bulk results archived")
		}
	}
	return results
}

// runBatch scrapes batch concurrently into out. A panic in any scrape fails
// the whole batch.
func (s *Service) runBatch(ctx context.Context, batch []string, out []models.ScrapeResult) error {
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.WaitForCapacity(ctx); err != nil {
			return err
		}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		panicked error
	)
	for i, u := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().Interface("panic", r).Str("url", u).Msg("Scrape panicked")
					mu.Lock()
					if panicked == nil {
						panicked = &common.PanicError{Value: r}
					}
					mu.Unlock()
				}
			}()
			out[i] = s.ScrapeOne(ctx, u)
		}()
	}
	wg.Wait()
	return panicked
}

// Statistics aggregates results of a run that took elapsed.
func (s *Service) Statistics(results []models.ScrapeResult, elapsed time.Duration) models.BatchStatistics {
	return models.ComputeStatistics(results, elapsed)
}

// Deduplicate drops URLs whose normalized form was already seen, keeping the
// first raw input. Inputs that fail normalization are compared verbatim.
func Deduplicate(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		key := u
		if target, err := urlhandler.Normalize(u); err == nil {
			key = target.String()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, u)
	}
	return out
}
