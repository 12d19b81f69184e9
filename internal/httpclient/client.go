package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/ogpreview/internal/ssrfguard"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// newHTTPClient builds one client of the fetcher pool. Redirects are never
// followed automatically so every hop goes through the guard, keep-alives are
// off so that no connection outlives a fetch, and the dialer refuses private
// addresses.
func newHTTPClient(config FetcherConfig, logger zerolog.Logger) (*http.Client, error) {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if config.Transport != nil {
		client.Transport = config.Transport
		return client, nil
	}

	transport := &http.Transport{
		DialContext:           ssrfguard.NewSafeDialer(config.DialTimeout, 30*time.Second).DialContext,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.Timeout,
		ExpectContinueTimeout: time.Second,
		DisableKeepAlives:     true,
		DisableCompression:    true,
		MaxIdleConns:          0,
	}

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		// The proxy itself may live on a private network; targets are still
		// checked by the guard before each hop.
		transport.DialContext = (&net.Dialer{Timeout: config.DialTimeout, KeepAlive: 30 * time.Second}).DialContext
		logger.Info().Str("proxy", config.Proxy).Msg("Fetcher configured with proxy")
	}

	if config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	client.Transport = transport
	return client, nil
}
