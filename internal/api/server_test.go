package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

type stubScraper struct {
	mu          sync.Mutex
	one         models.ScrapeResult
	lastURLs    []string
	lastConc    int
	scrapeCalls int
}

func (s *stubScraper) ScrapeOne(_ context.Context, rawURL string) models.ScrapeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrapeCalls++
	r := s.one
	if r.URL == "" {
		r.URL = rawURL
	}
	return r
}

func (s *stubScraper) ScrapeMany(_ context.Context, urls []string, maxConcurrency int) []models.ScrapeResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrapeCalls++
	s.lastURLs = urls
	s.lastConc = maxConcurrency
	seen := map[string]bool{}
	var results []models.ScrapeResult
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		results = append(results, models.ScrapeResult{Success: true, URL: u})
	}
	return results
}

func (s *stubScraper) Statistics(results []models.ScrapeResult, elapsed time.Duration) models.BatchStatistics {
	return models.ComputeStatistics(results, elapsed)
}

// stubSites serves fixed classification values and fails every other call.
type stubSites struct {
	values datastore.ClassificationValues
	err    error
}

func (c stubSites) GetExistingClassificationValues(context.Context) (datastore.ClassificationValues, error) {
	return c.values, c.err
}

func (c stubSites) LatestMetadata(context.Context, string) (*datastore.MetadataVersion, error) {
	return nil, c.err
}

func (c stubSites) ListVersions(context.Context, string) ([]datastore.MetadataVersion, error) {
	return nil, c.err
}

func (c stubSites) UpdateClassification(context.Context, string, datastore.Classification) error {
	return c.err
}

func newTestServer(scraper Scraper, limiter *ratelimit.Limiter, sites SiteStore) *Server {
	config := DefaultConfig()
	config.ScrapeSecret = testSecret
	config.DefaultConcurrency = 3
	return NewServer(config, scraper, sites, limiter, zerolog.Nop())
}

func do(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleScrape(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		result     models.ScrapeResult
		wantStatus int
		wantError  string
		wantCalls  int
	}{
		{
			name:       "success",
			body:       `{"key":"s3cret","url":"example.com"}`,
			result:     models.ScrapeResult{Success: true, URL: "https://example.com/"},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "missing url",
			body:       `{"key":"s3cret"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "url is required",
		},
		{
			name:       "malformed body",
			body:       `{"key":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "wrong key",
			body:       `{"key":"nope","url":"example.com"}`,
			wantStatus: http.StatusForbidden,
			wantError:  "Invalid key",
		},
		{
			name: "scrape failure uses result status",
			body: `{"key":"s3cret","url":"example.com"}`,
			result: models.ScrapeResult{
				URL: "https://example.com/", Error: "blocked", ErrorCode: models.ErrBlockedTarget, StatusCode: http.StatusBadRequest,
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "blocked",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := &stubScraper{one: tt.result}
			rec := do(t, newTestServer(scraper, nil, nil), http.MethodPost, "/api/scrape", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantCalls, scraper.scrapeCalls)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, true, body["success"])
			}
		})
	}
}

func TestHandleBulkScrape(t *testing.T) {
	scraper := &stubScraper{}
	s := newTestServer(scraper, nil, nil)

	rec := do(t, s, http.MethodPost, "/api/scrape/bulk",
		`{"key":"s3cret","urls":["https://a.com","https://b.com","https://a.com"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp BulkScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.TotalURLs)
	assert.Equal(t, 2, resp.UniqueURLs)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Statistics.Successful)
	assert.Equal(t, 3, scraper.lastConc)
}

func TestHandleBulkScrape_Validation(t *testing.T) {
	many := make([]string, 101)
	for i := range many {
		many[i] = `"https://example.com"`
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"empty urls", `{"key":"s3cret","urls":[]}`, http.StatusBadRequest, "urls must contain at least 1 entries"},
		{"missing urls", `{"key":"s3cret"}`, http.StatusBadRequest, "urls is required"},
		{"too many urls", `{"key":"s3cret","urls":[` + strings.Join(many, ",") + `]}`, http.StatusBadRequest, "urls must contain at most 100 entries"},
		{"urls not an array", `{"key":"s3cret","urls":"https://a.com"}`, http.StatusBadRequest, "invalid request body"},
		{"wrong key", `{"key":"x","urls":["https://a.com"]}`, http.StatusForbidden, "Invalid key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := &stubScraper{}
			rec := do(t, newTestServer(scraper, nil, nil), http.MethodPost, "/api/scrape/bulk", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.Zero(t, scraper.scrapeCalls)
		})
	}
}

func TestRateLimitCheckedFirst(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{Enabled: true, Requests: 2, Window: time.Minute}, zerolog.Nop())
	scraper := &stubScraper{one: models.ScrapeResult{Success: true}}
	s := newTestServer(scraper, limiter, nil)

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/scrape", `{"key":"s3cret","url":"example.com"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}

	rec := do(t, s, http.MethodPost, "/api/scrape", `{"key":"wrong"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, scraper.scrapeCalls)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&stubScraper{}, nil, nil)
	rec := do(t, s, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(t, s, http.MethodPost, "/healthz", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleFilters(t *testing.T) {
	values := datastore.ClassificationValues{Industries: []string{"Fintech"}, Countries: []string{"US"}}

	rec := do(t, newTestServer(&stubScraper{}, nil, stubSites{values: values}), http.MethodGet, "/api/sites/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"existingIndustries":["Fintech"]`)

	rec = do(t, newTestServer(&stubScraper{}, nil, stubSites{err: errors.New("db down")}), http.MethodGet, "/api/sites/filters", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(t, newTestServer(&stubScraper{}, nil, nil), http.MethodGet, "/api/sites/filters", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	scraper := &stubScraper{}
	s := NewServer(DefaultConfig(), scraper, nil, nil, zerolog.Nop())

	rec := do(t, s, http.MethodPost, "/api/scrape", `{"key":"anything","url":"example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, scraper.scrapeCalls)
}

func TestSetScrapeSecret(t *testing.T) {
	scraper := &stubScraper{one: models.ScrapeResult{Success: true}}
	s := newTestServer(scraper, nil, nil)

	s.SetScrapeSecret("rotated")

	rec := do(t, s, http.MethodPost, "/api/scrape", `{"key":"s3cret","url":"example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/scrape", `{"key":"rotated","url":"example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc_1.png"), []byte("png-bytes"), 0o644))

	s := newTestServer(&stubScraper{}, nil, nil)
	s.ServeFiles("/images", dir)

	rec := do(t, s, http.MethodGet, "/images/abc_1.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}
