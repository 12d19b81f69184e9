package common

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BatchProcessorConfig holds configuration for batch processing
type BatchProcessorConfig struct {
	BatchSize int // Max items per batch
}

// BatchResult holds the result of a batch processing
type BatchResult struct {
	BatchIndex int
	Start      int // Offset of the batch's first item in the input
	Items      []string
	Success    bool
	Error      error
	Duration   time.Duration
}

// ProcessFunc processes one batch.
type ProcessFunc func(ctx context.Context, batch []string, batchIndex int) error

// BetweenBatchesFunc runs before every batch except the first.
type BetweenBatchesFunc func(ctx context.Context, nextBatchIndex int) error

// BatchProcessor runs batches strictly one after another.
type BatchProcessor struct {
	config BatchProcessorConfig
	logger zerolog.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(config BatchProcessorConfig, logger zerolog.Logger) *BatchProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	return &BatchProcessor{
		config: config,
		logger: logger.With().Str("component", "BatchProcessor").Logger(),
	}
}

// SplitIntoBatches splits a slice of strings into batches
func (bp *BatchProcessor) SplitIntoBatches(input []string) [][]string {
	var batches [][]string
	for i := 0; i < len(input); i += bp.config.BatchSize {
		end := i + bp.config.BatchSize
		if end > len(input) {
			end = len(input)
		}
		batches = append(batches, input[i:end])
	}
	return batches
}

// ProcessBatches runs processFunc over every batch in order. A failing or
// panicking batch is recorded and the next batch still runs. Once ctx is
// done the remaining batches are reported as failed with ctx.Err().
func (bp *BatchProcessor) ProcessBatches(
	ctx context.Context,
	input []string,
	processFunc ProcessFunc,
	between BetweenBatchesFunc,
) []BatchResult {
	batches := bp.SplitIntoBatches(input)
	results := make([]BatchResult, 0, len(batches))

	bp.logger.Info().
		Int("total_items", len(input)).
		Int("batch_count", len(batches)).
		Int("batch_size", bp.config.BatchSize).
		Msg("Starting batch processing")

	offset := 0
	for i, batch := range batches {
		result := BatchResult{BatchIndex: i, Start: offset, Items: batch}
		offset += len(batch)

		if i > 0 && between != nil && ctx.Err() == nil {
			if err := between(ctx, i); err != nil {
				bp.logger.Warn().Err(err).Int("batch_index", i).Msg("Pre-batch hook failed")
			}
		}

		if err := ctx.Err(); err != nil {
			result.Error = err
			results = append(results, result)
			continue
		}

		bp.logger.Info().
			Int("batch_index", i).
			Int("batch_size", len(batch)).
			Int("progress", i+1).
			Int("total", len(batches)).
			Msg("Processing batch")

		start := time.Now()
		err := bp.runSafely(ctx, batch, i, processFunc)
		result.Duration = time.Since(start)
		result.Success = err == nil
		result.Error = err
		results = append(results, result)

		if err != nil {
			bp.logger.Error().
				Err(err).
				Int("batch_index", i).
				Msg("Batch processing failed")
			continue
		}

		bp.logger.Info().
			Int("batch_index", i).
			Dur("duration", result.Duration).
			Int("processed", len(batch)).
			Msg("Batch processing completed")
	}

	return results
}

func (bp *BatchProcessor) runSafely(ctx context.Context, batch []string, index int, processFunc ProcessFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return processFunc(ctx, batch, index)
}
