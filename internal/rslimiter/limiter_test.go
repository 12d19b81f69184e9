package rslimiter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedProbe(usage Usage, err error) UsageProbe {
	return func() (Usage, error) { return usage, err }
}

func testConfig() Config {
	config := DefaultConfig()
	config.MaxHeapMB = 100
	config.SystemMemThreshold = 0.8
	config.PollInterval = 5 * time.Millisecond
	config.MaxWait = 200 * time.Millisecond
	return config
}

func TestLimiter_UnderPressure(t *testing.T) {
	tests := []struct {
		name     string
		usage    Usage
		err      error
		expected bool
	}{
		{"idle", Usage{HeapAllocMB: 10, SystemMemUsedPercent: 40}, nil, false},
		{"heap over limit", Usage{HeapAllocMB: 150, SystemMemUsedPercent: 40}, nil, true},
		{"system over threshold", Usage{HeapAllocMB: 10, SystemMemUsedPercent: 85}, nil, true},
		{"system unreadable", Usage{HeapAllocMB: 10, SystemMemUsedPercent: 99}, errors.New("no /proc"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(testConfig(), zerolog.Nop()).WithProbe(fixedProbe(tt.usage, tt.err))
			pressured, reason := l.UnderPressure()
			assert.Equal(t, tt.expected, pressured)
			if tt.expected {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestLimiter_WaitForCapacity_ClearsAfterPolls(t *testing.T) {
	var calls int32
	probe := func() (Usage, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return Usage{HeapAllocMB: 500}, nil
		}
		return Usage{HeapAllocMB: 1}, nil
	}
	l := New(testConfig(), zerolog.Nop()).WithProbe(probe)

	require.NoError(t, l.WaitForCapacity(context.Background()))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestLimiter_WaitForCapacity_GivesUpAfterMaxWait(t *testing.T) {
	l := New(testConfig(), zerolog.Nop()).WithProbe(fixedProbe(Usage{HeapAllocMB: 500}, nil))

	start := time.Now()
	require.NoError(t, l.WaitForCapacity(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestLimiter_WaitForCapacity_ContextCancelled(t *testing.T) {
	l := New(testConfig(), zerolog.Nop()).WithProbe(fixedProbe(Usage{HeapAllocMB: 500}, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForCapacity(ctx), context.DeadlineExceeded)
}

func TestLimiter_Disabled(t *testing.T) {
	config := testConfig()
	config.Enabled = false
	l := New(config, zerolog.Nop()).WithProbe(fixedProbe(Usage{HeapAllocMB: 500}, nil))

	pressured, _ := l.UnderPressure()
	assert.False(t, pressured)
	assert.NoError(t, l.WaitForCapacity(context.Background()))

	var nilLimiter *Limiter
	assert.NoError(t, nilLimiter.WaitForCapacity(context.Background()))
}

func TestLimiter_StartAndStop(t *testing.T) {
	config := testConfig()
	config.MonitorInterval = 5 * time.Millisecond
	l := New(config, zerolog.Nop()).WithProbe(fixedProbe(Usage{HeapAllocMB: 1}, nil))

	l.Start()
	l.Start()
	assert.True(t, l.isRunning())
	time.Sleep(20 * time.Millisecond)

	l.Stop()
	l.Stop()
	assert.False(t, l.isRunning())
}

func TestReadUsage(t *testing.T) {
	usage, _ := ReadUsage()
	assert.Positive(t, usage.Goroutines)
}
