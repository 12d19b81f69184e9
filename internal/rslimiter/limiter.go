// Package rslimiter pauses batch work while the host is short of memory.
package rslimiter

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limiter reports memory pressure and lets callers wait for it to clear.
type Limiter struct {
	config Config
	probe  UsageProbe
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(config Config, logger zerolog.Logger) *Limiter {
	return &Limiter{
		config: config.withDefaults(),
		probe:  ReadUsage,
		logger: logger.With().Str("component", "ResourceLimiter").Logger(),
	}
}

// WithProbe replaces the usage source.
func (l *Limiter) WithProbe(probe UsageProbe) *Limiter {
	l.probe = probe
	return l
}

// UnderPressure reports whether a threshold is exceeded and which one.
func (l *Limiter) UnderPressure() (bool, string) {
	if l == nil || !l.config.Enabled {
		return false, ""
	}
	usage, err := l.probe()
	if err != nil {
		l.logger.Debug().Err(err).Msg("Failed to read system memory, using heap only")
	}
	if usage.HeapAllocMB > l.config.MaxHeapMB {
		return true, fmt.Sprintf("heap %dMB above %dMB", usage.HeapAllocMB, l.config.MaxHeapMB)
	}
	if err == nil && usage.SystemMemUsedPercent/100 > l.config.SystemMemThreshold {
		return true, fmt.Sprintf("system memory %.1f%% above %.1f%%", usage.SystemMemUsedPercent, l.config.SystemMemThreshold*100)
	}
	return false, ""
}

// WaitForCapacity blocks while memory pressure is high, polling every
// PollInterval. After MaxWait it gives up waiting and returns nil so work
// proceeds. It returns the context error if ctx ends first.
func (l *Limiter) WaitForCapacity(ctx context.Context) error {
	if l == nil || !l.config.Enabled {
		return nil
	}
	pressured, reason := l.UnderPressure()
	if !pressured {
		return nil
	}

	l.logger.Warn().Str("reason", reason).Dur("max_wait", l.config.MaxWait).Msg("Memory pressure, pausing new work")
	runtime.GC()

	deadline := time.NewTimer(l.config.MaxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			l.logger.Warn().Str("reason", reason).Msg("Memory pressure persisted past max wait, resuming")
			return nil
		case <-ticker.C:
			if pressured, reason = l.UnderPressure(); !pressured {
				l.logger.Info().Msg("Memory pressure cleared, resuming")
				return nil
			}
		}
	}
}

// Start launches a background loop logging usage every MonitorInterval.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || !l.config.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.running = true

	l.wg.Add(1)
	go l.monitor(ctx)

	l.logger.Info().
		Int64("max_heap_mb", l.config.MaxHeapMB).
		Float64("system_mem_threshold", l.config.SystemMemThreshold).
		Dur("monitor_interval", l.config.MonitorInterval).
		Msg("Resource limiter started")
}

// Stop ends the monitor loop and waits for it to exit.
func (l *Limiter) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	l.wg.Wait()
	l.logger.Info().Msg("Resource limiter stopped")
}

func (l *Limiter) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Limiter) monitor(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.config.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			usage, err := l.probe()
			event := l.logger.Debug()
			if pressured, _ := l.UnderPressure(); pressured {
				event = l.logger.Warn()
			}
			event.Err(err).
				Int64("heap_mb", usage.HeapAllocMB).
				Int64("sys_mb", usage.SysMB).
				Int("goroutines", usage.Goroutines).
				Float64("system_mem_percent", usage.SystemMemUsedPercent).
				Msg("Resource usage")
		}
	}
}
