package urlhandler

import (
	"net/url"
	"strings"

	"github.com/aleister1102/ogpreview/internal/models"
)

// ScrapeTarget is a validated absolute http(s) URL with its query cleared
// and any leading "www." removed from the host.
type ScrapeTarget struct {
	u *url.URL
}

// Normalize canonicalizes raw user input into a ScrapeTarget.
func Normalize(input string) (ScrapeTarget, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return ScrapeTarget{}, invalidURL(input, nil)
	}
	if !hasScheme(raw) {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return ScrapeTarget{}, invalidURL(input, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ScrapeTarget{}, invalidURL(input, nil)
	}
	if parsed.Hostname() == "" || parsed.Opaque != "" {
		return ScrapeTarget{}, invalidURL(input, nil)
	}

	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.User = nil

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return ScrapeTarget{}, invalidURL(input, nil)
	}
	if port := parsed.Port(); port != "" {
		parsed.Host = joinHostPort(host, port)
	} else {
		parsed.Host = bracketIPv6(host)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
		parsed.RawPath = ""
	}

	return ScrapeTarget{u: parsed}, nil
}

// MustNormalize is Normalize for inputs known to be valid; it panics otherwise.
func MustNormalize(input string) ScrapeTarget {
	t, err := Normalize(input)
	if err != nil {
		panic(err)
	}
	return t
}

// URL returns a copy of the underlying URL.
func (t ScrapeTarget) URL() *url.URL {
	if t.u == nil {
		return nil
	}
	cp := *t.u
	return &cp
}

func (t ScrapeTarget) String() string {
	if t.u == nil {
		return ""
	}
	return t.u.String()
}

// Hostname returns the host without port.
func (t ScrapeTarget) Hostname() string {
	if t.u == nil {
		return ""
	}
	return t.u.Hostname()
}

// IsZero reports whether t was never produced by Normalize.
func (t ScrapeTarget) IsZero() bool {
	return t.u == nil
}

func hasScheme(raw string) bool {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	// Any other explicit scheme is kept so that it fails validation instead of
	// being silently treated as a hostname.
	if i := strings.Index(lower, "://"); i > 0 && !strings.ContainsAny(lower[:i], "/.?#") {
		return true
	}
	return false
}

func joinHostPort(host, port string) string {
	return bracketIPv6(host) + ":" + port
}

func bracketIPv6(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

func invalidURL(input string, err error) error {
	return models.NewScrapeError(models.ErrInvalidURL, strings.TrimSpace(input), "Invalid URL format", err)
}
