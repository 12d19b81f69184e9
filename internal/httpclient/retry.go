package httpclient

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/rs/zerolog"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RandomDuration returns a uniformly random duration in [0, max).
type RandomDuration func(max time.Duration) time.Duration

// DefaultRandomDuration draws from math/rand/v2.
func DefaultRandomDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

// RetryHandlerConfig configuration for retry handler
type RetryHandlerConfig struct {
	MaxRetries       int           `json:"max_retries"`
	BaseDelay        time.Duration `json:"base_delay"`
	MaxDelay         time.Duration `json:"max_delay"`
	MaxJitter        time.Duration `json:"max_jitter"`
	ExtraDelayMin    time.Duration `json:"extra_delay_min"`
	ExtraDelayMax    time.Duration `json:"extra_delay_max"`
	RetryStatusCodes []int         `json:"retry_status_codes"`
}

// DefaultRetryHandlerConfig retries bot blocks, throttling and gateway errors.
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:       4,
		BaseDelay:        500 * time.Millisecond,
		MaxDelay:         8 * time.Second,
		MaxJitter:        time.Second,
		ExtraDelayMin:    time.Second,
		ExtraDelayMax:    3 * time.Second,
		RetryStatusCodes: []int{403, 408, 429, 500, 502, 503, 504},
	}
}

// RetryHandler decides whether and how long to wait before repeating a request.
type RetryHandler struct {
	config           RetryHandlerConfig
	retryStatusCodes map[int]bool
	sleep            Sleeper
	random           RandomDuration
	logger           zerolog.Logger
}

// NewRetryHandler creates a new retry handler
func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	statusCodeMap := make(map[int]bool, len(config.RetryStatusCodes))
	for _, code := range config.RetryStatusCodes {
		statusCodeMap[code] = true
	}

	return &RetryHandler{
		config:           config,
		retryStatusCodes: statusCodeMap,
		sleep:            ContextSleep,
		random:           DefaultRandomDuration,
		logger:           logger.With().Str("component", "RetryHandler").Logger(),
	}
}

// WithSleeper replaces the wait function.
func (rh *RetryHandler) WithSleeper(sleep Sleeper) *RetryHandler {
	rh.sleep = sleep
	return rh
}

// WithRandom replaces the jitter source.
func (rh *RetryHandler) WithRandom(random RandomDuration) *RetryHandler {
	rh.random = random
	return rh
}

// IsRetryableStatus reports whether statusCode is in the retry set.
func (rh *RetryHandler) IsRetryableStatus(statusCode int) bool {
	return rh.retryStatusCodes[statusCode]
}

// ShouldRetry reports whether another attempt may follow the given failed one.
// retriesDone counts the retries already performed.
func (rh *RetryHandler) ShouldRetry(err error, retriesDone int) bool {
	if retriesDone >= rh.config.MaxRetries {
		return false
	}
	if status := statusOf(err); status != 0 {
		return rh.IsRetryableStatus(status)
	}
	return IsRetryableError(err)
}

// BackoffDelay is the exponential part of the delay before retry number
// retry (1-based): base * 2^(retry-1), capped at MaxDelay.
func (rh *RetryHandler) BackoffDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := rh.config.BaseDelay
	for i := 1; i < retry && delay < rh.config.MaxDelay; i++ {
		delay *= 2
	}
	if delay > rh.config.MaxDelay {
		delay = rh.config.MaxDelay
	}
	return delay
}

// CalculateDelay is the full wait before retry number retry: backoff plus
// jitter plus the randomized pre-retry pause.
func (rh *RetryHandler) CalculateDelay(retry int) time.Duration {
	delay := rh.BackoffDelay(retry) + rh.random(rh.config.MaxJitter)
	return delay + rh.extraDelay()
}

func (rh *RetryHandler) extraDelay() time.Duration {
	spread := rh.config.ExtraDelayMax - rh.config.ExtraDelayMin
	return rh.config.ExtraDelayMin + rh.random(spread)
}

// WaitForRetry waits for the calculated delay before retrying
func (rh *RetryHandler) WaitForRetry(ctx context.Context, retry int, cause error, url string) error {
	delay := rh.CalculateDelay(retry)

	rh.logger.Warn().
		Str("url", url).
		Int("status_code", statusOf(cause)).
		Int("retry", retry).
		Int("max_retries", rh.config.MaxRetries).
		Dur("delay", delay).
		AnErr("cause", cause).
		Msg("Request failed, waiting before retry")

	return rh.sleep(ctx, delay)
}

// Do runs attempt until it succeeds, fails permanently or retries run out.
func (rh *RetryHandler) Do(ctx context.Context, url string, attempt func(ctx context.Context, n int) error) error {
	var err error
	for retries := 0; ; retries++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = attempt(ctx, retries+1)
		if err == nil || !rh.ShouldRetry(err, retries) {
			return err
		}
		if waitErr := rh.WaitForRetry(ctx, retries+1, err, url); waitErr != nil {
			return err
		}
	}
}

func statusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) && fe.ErrCode == models.ErrHTTPStatus {
		return fe.StatusCode
	}
	return 0
}
