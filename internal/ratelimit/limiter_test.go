package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(requests int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	config := DefaultConfig()
	config.Requests = requests
	l := New(config, zerolog.Nop()).WithClock(clock.now)
	return l, clock
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-Ip": "198.51.100.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-Ip": "198.51.100.1", "Cf-Connecting-Ip": "192.0.2.1"}, "198.51.100.1"},
		{"cloudflare", map[string]string{"Cf-Connecting-Ip": "192.0.2.1"}, "192.0.2.1"},
		{"unknown", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/scrape", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, ClientID(r))
		})
	}
}

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3)

	for i := 0; i < 3; i++ {
		d := l.Allow("client")
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 2-i, d.Remaining)
		assert.Equal(t, 3, d.Limit)
	}

	d := l.Allow("client")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.InDelta(t, 20.0, d.RetryAfter.Seconds(), 0.001)

	other := l.Allow("other")
	assert.True(t, other.Allowed)
}

func TestLimiter_Refills(t *testing.T) {
	l, clock := newTestLimiter(60)

	for i := 0; i < 60; i++ {
		require.True(t, l.Allow("c").Allowed)
	}
	assert.False(t, l.Allow("c").Allowed)

	clock.advance(time.Second)
	assert.True(t, l.Allow("c").Allowed)
	assert.False(t, l.Allow("c").Allowed)

	clock.advance(time.Minute)
	d := l.Allow("c")
	assert.True(t, d.Allowed)
	assert.Equal(t, 59, d.Remaining)
}

func TestLimiter_Disabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false
	config.Requests = 1
	l := New(config, zerolog.Nop())

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("c").Allowed)
	}
	assert.Zero(t, l.size())
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(10)

	l.Allow("a")
	clock.advance(30 * time.Second)
	l.Allow("b")
	clock.advance(30 * time.Second)

	assert.Equal(t, 1, l.sweep())
	assert.Equal(t, 1, l.size())
}

func TestDecision_SetHeaders(t *testing.T) {
	h := http.Header{}
	Decision{Allowed: false, Limit: 60, Remaining: 0, ResetAt: time.UnixMilli(1_700_000_000_500), RetryAfter: 1500 * time.Millisecond}.SetHeaders(h)

	assert.Equal(t, "60", h.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", h.Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000001", h.Get("X-RateLimit-Reset"))
	assert.Equal(t, "2", h.Get("Retry-After"))

	allowed := http.Header{}
	Decision{Allowed: true, Limit: 60, Remaining: 59, ResetAt: time.Unix(10, 0)}.SetHeaders(allowed)
	assert.Empty(t, allowed.Get("Retry-After"))
}

func TestLimiter_StartStop(t *testing.T) {
	l := New(DefaultConfig(), zerolog.Nop())
	l.Start()
	l.Stop()
	l.Stop()

	idle := New(DefaultConfig(), zerolog.Nop())
	idle.Stop()
}
