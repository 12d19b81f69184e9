// Package imagerelay copies the images referenced by scraped metadata to an
// object store and rewrites the metadata to point at the stored copies.
package imagerelay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/httpclient"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/ssrfguard"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Guard checks a URL before it is requested.
type Guard interface {
	Check(ctx context.Context, u *url.URL) error
}

var (
	errNotAnImage    = errors.New("not an image")
	errImageTooLarge = errors.New("image too large")
)

// Relay downloads images and re-hosts them through an ObjectStore.
type Relay struct {
	config Config
	store  ObjectStore
	guard  Guard
	client *http.Client
	now    func() time.Time
	logger zerolog.Logger
}

func NewRelay(config Config, store ObjectStore, guard Guard, logger zerolog.Logger) (*Relay, error) {
	if store == nil {
		return nil, common.NewConfigurationError("relay", "store", "object store is required")
	}
	if guard == nil {
		return nil, common.NewConfigurationError("relay", "guard", "guard is required")
	}
	config = config.withDefaults()

	r := &Relay{
		config: config,
		store:  store,
		guard:  guard,
		now:    time.Now,
		logger: logger.With().Str("component", "ImageRelay").Logger(),
	}

	transport := config.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:         ssrfguard.NewSafeDialer(10*time.Second, 30*time.Second).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			DisableKeepAlives:   true,
		}
	}
	r.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds every request already sent, so MaxRedirects hops are followed.
			if len(via) > config.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", config.MaxRedirects)
			}
			return guard.Check(req.Context(), req.URL)
		},
	}
	return r, nil
}

// WithClock replaces the time source used for object names.
func (r *Relay) WithClock(now func() time.Time) *Relay {
	r.now = now
	return r
}

// Process relays every og:image, og:image:secure_url, twitter:image and the
// favicon. Images that fail keep their original URL. The input is not
// modified and Process never fails.
func (r *Relay) Process(ctx context.Context, metadata models.ScrapedMetadata) models.ScrapedMetadata {
	var sources []string
	if og := metadata.OpenGraph; og != nil {
		sources = append(sources, og.Images...)
		sources = append(sources, og.ImageSecureURL...)
	}
	if tw := metadata.Twitter; tw != nil {
		sources = append(sources, tw.Images...)
	}
	if metadata.Basic != nil && metadata.Basic.Favicon != "" {
		sources = append(sources, metadata.Basic.Favicon)
	}
	sources = uniqueStrings(sources)
	if len(sources) == 0 {
		return metadata
	}

	relayed := r.relayAll(ctx, sources)

	out := metadata
	if og := metadata.OpenGraph; og != nil {
		copied := *og
		copied.Images = substitute(og.Images, relayed)
		copied.ImageSecureURL = substitute(og.ImageSecureURL, relayed)
		out.OpenGraph = &copied
	}
	if tw := metadata.Twitter; tw != nil {
		copied := *tw
		copied.Images = substitute(tw.Images, relayed)
		out.Twitter = &copied
	}
	if b := metadata.Basic; b != nil {
		copied := *b
		if cdn, ok := relayed[b.Favicon]; ok {
			copied.Favicon = cdn
		}
		out.Basic = &copied
	}

	r.logger.Info().Int("images", len(sources)).Int("relayed", len(relayed)).Msg("Image relay completed")
	return out
}

// relayAll processes sources with bounded concurrency and returns the
// successful source to public URL mapping.
func (r *Relay) relayAll(ctx context.Context, sources []string) map[string]string {
	var (
		mu      sync.Mutex
		relayed = make(map[string]string, len(sources))
		g       errgroup.Group
	)
	g.SetLimit(r.config.Concurrency)

	for _, source := range sources {
		g.Go(func() error {
			publicURL, err := r.relayOne(ctx, source)
			if err != nil {
				r.logger.Warn().Err(err).Str("image_url", source).Msg("Failed to relay image, keeping original")
				return nil
			}
			mu.Lock()
			relayed[source] = publicURL
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return relayed
}

func (r *Relay) relayOne(ctx context.Context, source string) (string, error) {
	if err := urlhandler.ValidateURLFormat(source); err != nil {
		return "", err
	}
	target, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	if err := r.guard.Check(ctx, target); err != nil {
		return "", err
	}

	data, contentType, err := r.download(ctx, target)
	if err != nil {
		return "", err
	}
	name := ObjectName(source, contentType, r.now())
	return r.store.Put(ctx, name, contentType, data)
}

func (r *Relay) download(ctx context.Context, target *url.URL) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", r.config.UserAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("failed to fetch image: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, "", fmt.Errorf("%w: %s", errNotAnImage, contentType)
	}
	if resp.ContentLength > r.config.MaxImageBytes {
		return nil, "", errImageTooLarge
	}

	var buf bytes.Buffer
	capped := &httpclient.CappedReader{R: resp.Body, Limit: r.config.MaxImageBytes}
	if _, err := io.Copy(&buf, capped); err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return nil, "", errImageTooLarge
		}
		return nil, "", err
	}
	return buf.Bytes(), contentType, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func substitute(values []string, relayed map[string]string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		if cdn, ok := relayed[v]; ok {
			out[i] = cdn
		} else {
			out[i] = v
		}
	}
	return out
}
