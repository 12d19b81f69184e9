package urlhandler

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ResolveURL resolves href against base. Absolute http(s) URLs are returned
// unchanged, protocol-relative URLs inherit the base scheme, and anything
// that cannot be resolved is returned as given.
func ResolveURL(href string, base *url.URL) string {
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href
	}
	if base == nil {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return base.Scheme + ":" + href
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// ResolveURLs resolves every entry of hrefs against base, skipping blanks.
func ResolveURLs(hrefs []string, base *url.URL) []string {
	out := make([]string, 0, len(hrefs))
	for _, h := range hrefs {
		if r := ResolveURL(strings.TrimSpace(h), base); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// RegistrableDomain returns the eTLD+1 of hostname, falling back to the
// hostname itself for IPs, single labels and unknown suffixes.
func RegistrableDomain(hostname string) string {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// ValidateURLFormat checks that rawURL is an absolute http(s) URL with a host.
func ValidateURLFormat(rawURL string) error {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return fmt.Errorf("URL is empty")
	}

	parsed, err := url.ParseRequestURI(trimmedURL)
	if err != nil {
		return fmt.Errorf("invalid URL format '%s': %w", trimmedURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL format '%s': unsupported scheme %q", trimmedURL, parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("invalid URL format '%s': missing host", trimmedURL)
	}
	return nil
}
