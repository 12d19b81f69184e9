// Package ssrfguard rejects outbound targets that resolve to private,
// loopback or link-local addresses.
package ssrfguard

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/rs/zerolog"
)

// Resolver looks up every address record of a host.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// BlockedError is returned when a target fails the guard.
type BlockedError struct {
	URL     string
	Host    string
	IP      net.IP
	Reason  string
	code    models.ErrorCode
	wrapped error
}

func (e *BlockedError) Error() string {
	if e.IP != nil {
		return fmt.Sprintf("blocked target %s: %s (%s)", e.URL, e.Reason, e.IP)
	}
	return fmt.Sprintf("blocked target %s: %s", e.URL, e.Reason)
}

func (e *BlockedError) Code() models.ErrorCode { return e.code }
func (e *BlockedError) Unwrap() error { return e.wrapped }

// Guard validates URLs before any connection is made.
type Guard struct {
	resolver Resolver
	logger   zerolog.Logger
}

// New creates a guard. A nil resolver uses net.DefaultResolver.
func New(resolver Resolver, logger zerolog.Logger) *Guard {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Guard{
		resolver: resolver,
		logger:   logger.With().Str("component", "SSRFGuard").Logger(),
	}
}

// Check resolves u's host and rejects it when the scheme is not http(s), the
// host has no addresses, or any resolved address is private.
func (g *Guard) Check(ctx context.Context, u *url.URL) error {
	if u == nil {
		return &BlockedError{Reason: "missing URL", code: models.ErrBlockedTarget}
	}
	target := u.String()

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return &BlockedError{URL: target, Reason: fmt.Sprintf("scheme %q not allowed", u.Scheme), code: models.ErrBlockedTarget}
	}

	host := u.Hostname()
	if host == "" {
		return &BlockedError{URL: target, Reason: "missing host", code: models.ErrBlockedTarget}
	}

	ips, err := g.resolve(ctx, host)
	if err != nil {
		g.logger.Debug().Err(err).Str("host", host).Msg("DNS resolution failed")
		return &BlockedError{URL: target, Host: host, Reason: "host could not be resolved", code: models.ErrUnresolvableHost, wrapped: err}
	}
	if len(ips) == 0 {
		return &BlockedError{URL: target, Host: host, Reason: "host resolved to no addresses", code: models.ErrUnresolvableHost}
	}

	for _, ip := range ips {
		if IsPrivateIP(ip) {
			g.logger.Warn().Str("url", target).Str("host", host).Str("ip", ip.String()).Msg("Blocked private address")
			return &BlockedError{URL: target, Host: host, IP: ip, Reason: "resolves to a private address", code: models.ErrBlockedTarget}
		}
	}
	return nil
}

// CheckString parses rawURL and runs Check.
func (g *Guard) CheckString(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &BlockedError{URL: rawURL, Reason: "unparseable URL", code: models.ErrInvalidURL, wrapped: err}
	}
	return g.Check(ctx, u)
}

func (g *Guard) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		return []net.IP{ip}, nil
	}
	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

// IsPrivateIP reports whether ip is in a loopback, private, link-local or
// unique-local range.
func IsPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		switch {
		case v4[0] == 10:
			return true
		case v4[0] == 172 && v4[1]&0xf0 == 16:
			return true
		case v4[0] == 192 && v4[1] == 168:
			return true
		case v4[0] == 127:
			return true
		case v4[0] == 169 && v4[1] == 254:
			return true
		}
		return false
	}

	v6 := ip.To16()
	if v6 == nil {
		return false
	}
	if ip.Equal(net.IPv6loopback) {
		return true
	}
	// fe80::/10 link-local, matched on the first hextet like the textual "fe80:" prefix
	if v6[0] == 0xfe && v6[1] == 0x80 {
		return true
	}
	firstHextet := uint16(v6[0])<<8 | uint16(v6[1])
	return firstHextet&0xfe00 == 0xfc00
}
