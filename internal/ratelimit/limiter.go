// Package ratelimit throttles API clients with one token bucket per client.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config sizes the bucket: Requests tokens refilled evenly over Window.
type Config struct {
	Enabled       bool
	Requests      int
	Window        time.Duration
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Requests:      60,
		Window:        time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// Decision is the outcome of one check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// SetHeaders writes the X-RateLimit-* headers, plus Retry-After when denied.
func (d Decision) SetHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(float64(d.ResetAt.UnixMilli())/1000)), 10))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter tracks clients in memory.
type Limiter struct {
	config Config
	every  rate.Limit
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	clients map[string]*client

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

func New(config Config, logger zerolog.Logger) *Limiter {
	def := DefaultConfig()
	if config.Requests <= 0 {
		config.Requests = def.Requests
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = def.SweepInterval
	}
	return &Limiter{
		config:  config,
		every:   rate.Limit(float64(config.Requests) / config.Window.Seconds()),
		now:     time.Now,
		logger:  logger.With().Str("component", "RateLimiter").Logger(),
		clients: make(map[string]*client),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// ClientID identifies the caller by the first X-Forwarded-For entry, then
// X-Real-Ip, then Cf-Connecting-Ip, else "unknown".
func ClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if cfIP := strings.TrimSpace(r.Header.Get("Cf-Connecting-Ip")); cfIP != "" {
		return cfIP
	}
	return "unknown"
}

// AllowRequest checks the client behind r.
func (l *Limiter) AllowRequest(r *http.Request) Decision {
	return l.Allow(ClientID(r))
}

// Allow takes one token from clientID's bucket.
func (l *Limiter) Allow(clientID string) Decision {
	now := l.now()
	if !l.config.Enabled {
		return Decision{Allowed: true, Limit: l.config.Requests, Remaining: l.config.Requests, ResetAt: now}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[clientID]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.every, l.config.Requests)}
		l.clients[clientID] = c
	}
	c.lastSeen = now

	allowed := c.limiter.AllowN(now, 1)
	tokens := c.limiter.TokensAt(now)

	decision := Decision{
		Allowed:   allowed,
		Limit:     l.config.Requests,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now.Add(l.refillTime(float64(l.config.Requests) - tokens)),
	}
	if !allowed {
		decision.RetryAfter = l.refillTime(1 - tokens)
		l.logger.Debug().Str("client", clientID).Dur("retry_after", decision.RetryAfter).Msg("Rate limit exceeded")
	}
	return decision
}

func (l *Limiter) refillTime(tokens float64) time.Duration {
	if tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(l.every) * float64(time.Second))
}

// Start runs the background sweep until Stop.
func (l *Limiter) Start() {
	l.startOnce.Do(func() {
		l.mu.Lock()
		l.started = true
		l.mu.Unlock()
		go l.sweepLoop()
	})
}

func (l *Limiter) sweepLoop() {
	defer close(l.done)
	ticker := time.NewTicker(l.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			if removed := l.sweep(); removed > 0 {
				l.logger.Debug().Int("removed", removed).Msg("Expired rate limit entries removed")
			}
		}
	}
}

// Stop ends the sweep started by Start.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		started := l.started
		l.mu.Unlock()
		close(l.stop)
		if started {
			<-l.done
		}
	})
}

// sweep drops clients idle for a full window; their bucket is full again.
func (l *Limiter) sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.config.Window {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
