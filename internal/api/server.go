// Package api exposes the scraper over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/ratelimit"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Scraper is the part of the orchestrator the API drives.
type Scraper interface {
	ScrapeOne(ctx context.Context, rawURL string) models.ScrapeResult
	ScrapeMany(ctx context.Context, urls []string, maxConcurrency int) []models.ScrapeResult
	Statistics(results []models.ScrapeResult, elapsed time.Duration) models.BatchStatistics
}

// BulkScrapeResponse is the body returned by POST /api/scrape/bulk.
type BulkScrapeResponse struct {
	Success    bool                   `json:"success"`
	TotalURLs  int                    `json:"totalUrls"`
	UniqueURLs int                    `json:"uniqueUrls"`
	Results    []models.ScrapeResult  `json:"results"`
	Statistics models.BatchStatistics `json:"statistics"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server routes API requests to the scraper.
type Server struct {
	config   Config
	scraper  Scraper
	sites    SiteStore
	limiter  *ratelimit.Limiter
	validate *validator.Validate
	mux      *http.ServeMux
	secretMu sync.RWMutex
	now      func() time.Time
	logger   zerolog.Logger
}

// NewServer wires handlers onto a mux. sites and limiter may be nil.
func NewServer(config Config, scraper Scraper, sites SiteStore, limiter *ratelimit.Limiter, logger zerolog.Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	s := &Server{
		config:   config,
		scraper:  scraper,
		sites:    sites,
		limiter:  limiter,
		validate: newRequestValidator(),
		mux:      http.NewServeMux(),
		now:      time.Now,
		logger:   logger.With().Str("component", "APIServer").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/scrape", s.rateLimited(s.handleScrape))
	s.mux.HandleFunc("POST /api/scrape/bulk", s.rateLimited(s.handleBulkScrape))
	s.mux.HandleFunc("GET /api/sites/filters", s.handleFilters)
	s.mux.HandleFunc("GET /api/sites/{site...}", s.handleSite)
	s.mux.HandleFunc("PUT /api/sites/classify", s.handleClassify)
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("duration", time.Since(start)).
		Msg("Handled request")
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	if s.limiter != nil {
		s.limiter.Start()
		defer s.limiter.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}
		decision := s.limiter.AllowRequest(r)
		decision.SetHeaders(w.Header())
		if !decision.Allowed {
			s.logger.Warn().Str("client", ratelimit.ClientID(r)).Msg("Rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests"})
			return
		}
		next(w, r)
	}
}

// SetScrapeSecret replaces the key clients must send.
func (s *Server) SetScrapeSecret(secret string) {
	s.secretMu.Lock()
	s.config.ScrapeSecret = secret
	s.secretMu.Unlock()
}

func (s *Server) authorized(key string) bool {
	s.secretMu.RLock()
	secret := s.config.ScrapeSecret
	s.secretMu.RUnlock()
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(secret)) == 1
}

// ServeFiles exposes dir under prefix, used for locally stored images.
func (s *Server) ServeFiles(prefix, dir string) {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	s.mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(dir))))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC(),
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, s.validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if !s.authorized(req.Key) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid key"})
		return
	}

	result := s.scraper.ScrapeOne(r.Context(), req.URL)
	status := http.StatusOK
	if !result.Success {
		status = result.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, result)
}

func (s *Server) handleBulkScrape(w http.ResponseWriter, r *http.Request) {
	var req BulkScrapeRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, s.validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if !s.authorized(req.Key) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Invalid key"})
		return
	}

	concurrency := req.MaxConcurrency
	if concurrency == 0 {
		concurrency = s.config.DefaultConcurrency
	}

	start := time.Now()
	results := s.scraper.ScrapeMany(r.Context(), req.URLs, concurrency)
	writeJSON(w, http.StatusOK, BulkScrapeResponse{
		Success:    true,
		TotalURLs:  len(req.URLs),
		UniqueURLs: len(results),
		Results:    results,
		Statistics: s.scraper.Statistics(results, time.Since(start)),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
