package common

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoBatches(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		input     []string
		expected  [][]string
	}{
		{"empty", 3, nil, nil},
		{"exact", 2, []string{"a", "b", "c", "d"}, [][]string{{"a", "b"}, {"c", "d"}}},
		{"remainder", 2, []string{"a", "b", "c"}, [][]string{{"a", "b"}, {"c"}}},
		{"zero size falls back to one", 0, []string{"a", "b"}, [][]string{{"a"}, {"b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := NewBatchProcessor(BatchProcessorConfig{BatchSize: tt.batchSize}, zerolog.Nop())
			assert.Equal(t, tt.expected, bp.SplitIntoBatches(tt.input))
		})
	}
}

func TestProcessBatches_ContinuesAfterFailureAndPanic(t *testing.T) {
	bp := NewBatchProcessor(BatchProcessorConfig{BatchSize: 1}, zerolog.Nop())
	var seen []string
	betweenCalls := 0

	results := bp.ProcessBatches(context.Background(), []string{"ok", "fail", "panic", "last"},
		func(ctx context.Context, batch []string, idx int) error {
			seen = append(seen, batch[0])
			switch batch[0] {
			case "fail":
				return errors.New("failed")
			case "panic":
				panic("unexpected")
			}
			return nil
		},
		func(ctx context.Context, next int) error {
			betweenCalls++
			return nil
		})

	require.Len(t, results, 4)
	assert.Equal(t, []string{"ok", "fail", "panic", "last"}, seen)
	assert.Equal(t, 3, betweenCalls)
	assert.True(t, results[0].Success)
	assert.EqualError(t, results[1].Error, "failed")

	var panicErr *PanicError
	require.ErrorAs(t, results[2].Error, &panicErr)
	assert.Equal(t, "unexpected", panicErr.Value)
	assert.True(t, results[3].Success)
	assert.Equal(t, 3, results[3].Start)
}

func TestProcessBatches_CancelledContextMarksRemaining(t *testing.T) {
	bp := NewBatchProcessor(BatchProcessorConfig{BatchSize: 2}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	results := bp.ProcessBatches(ctx, []string{"a", "b", "c"}, func(ctx context.Context, batch []string, idx int) error {
		calls++
		cancel()
		return nil
	}, nil)

	require.Len(t, results, 2)
	assert.Equal(t, 1, calls)
	assert.True(t, results[0].Success)
	assert.ErrorIs(t, results[1].Error, context.Canceled)
	assert.Equal(t, []string{"c"}, results[1].Items)
}
