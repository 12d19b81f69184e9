package httpclient

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/rs/zerolog"
)

// Guard checks a URL before it is requested.
type Guard interface {
	Check(ctx context.Context, u *url.URL) error
}

// FetchOutcome is a successfully fetched HTML document.
type FetchOutcome struct {
	Body          string
	ResponseTime  time.Duration
	ContentLength int64
	StatusCode    int
	FinalURL      string
	Attempts      int
	UsedFallback  bool
}

// HTMLFetcher performs guarded GETs of user supplied URLs.
type HTMLFetcher struct {
	config  FetcherConfig
	guard   Guard
	clients []*http.Client
	retry   *RetryHandler
	sleep   Sleeper
	random  RandomDuration
	logger  zerolog.Logger
}

// NewHTMLFetcher builds a fetcher with a small pool of pre-built clients.
func NewHTMLFetcher(config FetcherConfig, guard Guard, logger zerolog.Logger) (*HTMLFetcher, error) {
	if guard == nil {
		return nil, models.NewScrapeError(models.ErrFetchFailed, "", "fetcher requires a guard", nil)
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = DefaultUserAgents()
	}
	if config.ClientPoolSize <= 0 {
		config.ClientPoolSize = 1
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}

	fetcherLogger := logger.With().Str("component", "HTMLFetcher").Logger()
	clients := make([]*http.Client, 0, config.ClientPoolSize)
	for i := 0; i < config.ClientPoolSize; i++ {
		client, err := newHTTPClient(config, fetcherLogger)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	fetcherLogger.Debug().
		Dur("timeout", config.Timeout).
		Int("max_redirects", config.MaxRedirects).
		Int64("max_body_bytes", config.MaxBodyBytes).
		Int("client_pool_size", len(clients)).
		Msg("HTML fetcher created")

	return &HTMLFetcher{
		config:  config,
		guard:   guard,
		clients: clients,
		retry:   NewRetryHandler(config.Retry, logger),
		sleep:   ContextSleep,
		random:  DefaultRandomDuration,
		logger:  fetcherLogger,
	}, nil
}

// WithSleeper replaces every wait performed by the fetcher.
func (f *HTMLFetcher) WithSleeper(sleep Sleeper) *HTMLFetcher {
	f.sleep = sleep
	f.retry.WithSleeper(sleep)
	return f
}

// WithRandom replaces the jitter source.
func (f *HTMLFetcher) WithRandom(random RandomDuration) *HTMLFetcher {
	f.random = random
	f.retry.WithRandom(random)
	return f
}

// Fetch retrieves target as HTML. Retryable failures are repeated with
// backoff; a persistent 403 gets one last attempt with minimal headers.
func (f *HTMLFetcher) Fetch(ctx context.Context, target urlhandler.ScrapeTarget) (*FetchOutcome, error) {
	start := target.URL()
	if start == nil {
		return nil, models.NewScrapeError(models.ErrInvalidURL, "", "Invalid URL format", nil)
	}
	rawURL := start.String()

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	begin := time.Now()
	attempts := 0
	var outcome *FetchOutcome

	err := f.retry.Do(ctx, rawURL, func(ctx context.Context, n int) error {
		attempts = n
		result, attemptErr := f.fetchOnce(ctx, start, BrowserHeaders, f.randomUserAgent())
		outcome = result
		return attemptErr
	})

	usedFallback := false
	if statusOf(err) == http.StatusForbidden {
		fallback, tried, fallbackErr := f.fallback(ctx, start)
		if tried {
			attempts++
		}
		switch {
		case fallbackErr == nil && fallback != nil:
			outcome, err, usedFallback = fallback, nil, true
		case fallbackErr != nil && models.CodeOf(fallbackErr) != models.ErrFetchFailed:
			err = fallbackErr
		}
	}

	if err != nil {
		classified := classify(ctx, rawURL, err)
		f.logger.Warn().
			Str("url", rawURL).
			Int("attempts", attempts).
			Str("error_code", string(models.CodeOf(classified))).
			Err(classified).
			Msg("Fetch failed")
		return nil, classified
	}

	outcome.ResponseTime = time.Since(begin)
	outcome.Attempts = attempts
	outcome.UsedFallback = usedFallback

	f.logger.Debug().
		Str("url", rawURL).
		Str("final_url", outcome.FinalURL).
		Int("status_code", outcome.StatusCode).
		Int64("content_length", outcome.ContentLength).
		Dur("response_time", outcome.ResponseTime).
		Int("attempts", attempts).
		Msg("Fetch completed")

	return outcome, nil
}

// fallback waits the longer bot-block delay and retries with minimal headers.
func (f *HTMLFetcher) fallback(ctx context.Context, start *url.URL) (*FetchOutcome, bool, error) {
	spread := f.config.FallbackDelayMax - f.config.FallbackDelayMin
	delay := f.config.FallbackDelayMin + f.random(spread)

	f.logger.Info().
		Str("url", start.String()).
		Dur("delay", delay).
		Msg("Got 403, trying with minimal headers")

	if err := f.sleep(ctx, delay); err != nil {
		return nil, false, err
	}
	outcome, err := f.fetchOnce(ctx, start, MinimalHeaders, "")
	if err != nil {
		f.logger.Debug().Err(err).Str("url", start.String()).Msg("Fallback attempt failed")
	}
	return outcome, true, err
}

// fetchOnce performs one attempt, following redirects manually and running
// the guard before every hop.
func (f *HTMLFetcher) fetchOnce(ctx context.Context, start *url.URL, profile HeaderProfile, userAgent string) (*FetchOutcome, error) {
	client := f.clients[rand.IntN(len(f.clients))]
	current := start

	for hop := 0; ; hop++ {
		if err := f.guard.Check(ctx, current); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrInvalidURL, current.String(), "Invalid URL format", err)
		}
		req.Header = profile(userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return nil, classify(ctx, current.String(), err)
		}

		if !isRedirect(resp.StatusCode) {
			return f.readResponse(resp, current)
		}

		location := resp.Header.Get("Location")
		drainAndClose(resp.Body)

		if location == "" {
			return nil, &FetchError{ErrCode: models.ErrHTTPStatus, URL: current.String(), StatusCode: resp.StatusCode, Message: "upstream error", Err: errMissingLocation}
		}
		if hop >= f.config.MaxRedirects {
			return nil, &FetchError{ErrCode: models.ErrHTTPStatus, URL: current.String(), StatusCode: resp.StatusCode, Message: "upstream error", Err: errTooManyRedirects}
		}

		next, err := current.Parse(location)
		if err != nil {
			return nil, &FetchError{ErrCode: models.ErrHTTPStatus, URL: current.String(), StatusCode: resp.StatusCode, Message: "invalid redirect location", Err: err}
		}

		f.logger.Debug().
			Str("from", current.String()).
			Str("to", next.String()).
			Int("status_code", resp.StatusCode).
			Int("hop", hop+1).
			Msg("Following redirect")
		current = next
	}
}

func (f *HTMLFetcher) readResponse(resp *http.Response, current *url.URL) (*FetchOutcome, error) {
	defer resp.Body.Close()
	rawURL := current.String()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, NewHTTPStatusError(resp.StatusCode, rawURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		if contentType == "" {
			contentType = "unknown"
		}
		return nil, &FetchError{ErrCode: models.ErrUnsupportedContentType, URL: rawURL, Message: "unsupported content-type: " + contentType}
	}

	body, length, err := readHTMLBody(resp, f.config.MaxBodyBytes, rawURL)
	if err != nil {
		return nil, err
	}

	return &FetchOutcome{
		Body:          body,
		ContentLength: length,
		StatusCode:    resp.StatusCode,
		FinalURL:      rawURL,
	}, nil
}

func (f *HTMLFetcher) randomUserAgent() string {
	return f.config.UserAgents[rand.IntN(len(f.config.UserAgents))]
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// drain discards a bounded amount of body so the connection can be closed cleanly.
func drain(body io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
}

func drainAndClose(body io.ReadCloser) {
	drain(body)
	_ = body.Close()
}
