package ssrfguard

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver map[string][]string

func (s stubResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	raw, ok := s[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	addrs := make([]net.IPAddr, 0, len(raw))
	for _, r := range raw {
		addrs = append(addrs, net.IPAddr{IP: net.ParseIP(r)})
	}
	return addrs, nil
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.20.0.5", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"::1", true},
		{"fe80::1", true},
		{"fc00::1", true},
		{"fd12:3456::1", true},
		{"::ffff:127.0.0.1", true},
		{"93.184.216.34", false},
		{"8.8.8.8", false},
		{"2606:2800:220:1:248:1893:25c8:1946", false},
		{"fe00::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.private, IsPrivateIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestGuard_BlocksPrivateResolutions(t *testing.T) {
	resolver := stubResolver{
		"loopback.test":   {"127.0.0.1"},
		"ten.test":        {"10.1.2.3"},
		"oneseven.test":   {"172.20.0.5"},
		"oneninetwo.test": {"192.168.1.1"},
		"v6loop.test":     {"::1"},
		"linklocal.test":  {"fe80::1"},
		"ula.test":        {"fc00::1"},
		"mixed.test":      {"93.184.216.34", "10.0.0.7"},
		"example.com":     {"93.184.216.34"},
	}
	guard := New(resolver, zerolog.Nop())

	blocked := []string{"loopback.test", "ten.test", "oneseven.test", "oneninetwo.test", "v6loop.test", "linklocal.test", "ula.test", "mixed.test"}
	for _, host := range blocked {
		t.Run(host, func(t *testing.T) {
			err := guard.Check(context.Background(), mustParse(t, "http://"+host+"/"))
			require.Error(t, err)
			assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))
		})
	}

	assert.NoError(t, guard.Check(context.Background(), mustParse(t, "https://example.com/")))
}

func TestGuard_IPLiteralsSkipDNS(t *testing.T) {
	guard := New(stubResolver{}, zerolog.Nop())

	err := guard.Check(context.Background(), mustParse(t, "http://127.0.0.1:8080/admin"))
	assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))

	err = guard.Check(context.Background(), mustParse(t, "http://[::1]/"))
	assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))

	assert.NoError(t, guard.Check(context.Background(), mustParse(t, "http://93.184.216.34/")))
}

func TestGuard_RejectsSchemes(t *testing.T) {
	guard := New(stubResolver{"example.com": {"93.184.216.34"}}, zerolog.Nop())

	for _, raw := range []string{"ftp://example.com/", "file:///etc/passwd", "gopher://example.com/"} {
		t.Run(raw, func(t *testing.T) {
			err := guard.Check(context.Background(), mustParse(t, raw))
			require.Error(t, err)
			assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))
		})
	}
}

func TestGuard_Unresolvable(t *testing.T) {
	guard := New(stubResolver{"empty.test": {}}, zerolog.Nop())

	err := guard.Check(context.Background(), mustParse(t, "https://missing.test/"))
	assert.Equal(t, models.ErrUnresolvableHost, models.CodeOf(err))
	var dnsErr *net.DNSError
	assert.True(t, errors.As(err, &dnsErr))

	err = guard.Check(context.Background(), mustParse(t, "https://empty.test/"))
	assert.Equal(t, models.ErrUnresolvableHost, models.CodeOf(err))
}

func TestGuard_CheckString(t *testing.T) {
	guard := New(stubResolver{"example.com": {"93.184.216.34"}}, zerolog.Nop())
	assert.NoError(t, guard.CheckString(context.Background(), "https://example.com/a"))
	assert.Equal(t, models.ErrInvalidURL, models.CodeOf(guard.CheckString(context.Background(), "http://%zz")))
}

func TestDialControl(t *testing.T) {
	assert.NoError(t, dialControl("tcp", "93.184.216.34:443", nil))

	err := dialControl("tcp", "127.0.0.1:80", nil)
	assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))

	err = dialControl("tcp6", "[fd00::1]:443", nil)
	assert.Equal(t, models.ErrBlockedTarget, models.CodeOf(err))

	assert.Error(t, dialControl("tcp", "no-port", nil))
}

func TestSafeDialer_RefusesLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	dialer := NewSafeDialer(time.Second, 0)
	_, err = dialer.DialContext(context.Background(), "tcp", ln.Addr().String())
	require.Error(t, err)

	var blocked *BlockedError
	assert.ErrorAs(t, err, &blocked)
}
