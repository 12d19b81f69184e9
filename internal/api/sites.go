package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
)

// SiteStore is the read and classification side of the metadata store.
type SiteStore interface {
	LatestMetadata(ctx context.Context, url string) (*datastore.MetadataVersion, error)
	ListVersions(ctx context.Context, url string) ([]datastore.MetadataVersion, error)
	UpdateClassification(ctx context.Context, url string, c datastore.Classification) error
	GetExistingClassificationValues(ctx context.Context) (datastore.ClassificationValues, error)
}

// SiteResponse is the body returned by GET /api/sites/{site}.
type SiteResponse struct {
	Success        bool                        `json:"success"`
	URL            string                      `json:"url"`
	IncludeHistory bool                        `json:"includeHistory"`
	Data           *datastore.MetadataVersion  `json:"data"`
	History        []datastore.MetadataVersion `json:"history,omitempty"`
}

// ClassifyRequest is the body of PUT /api/sites/classify.
type ClassifyRequest struct {
	Key            string                   `json:"key" validate:"required"`
	URL            string                   `json:"url" validate:"required"`
	Classification datastore.Classification `json:"classification"`
}

var errStoreDisabled = errorResponse{Error: "Metadata store is disabled"}

// siteKey maps a path value or raw URL to the key sites are stored under.
func siteKey(raw string) (string, bool) {
	target, err := urlhandler.Normalize(raw)
	if err != nil {
		return "", false
	}
	return target.String(), true
}

// handleSite serves the latest stored version of a site. The site is the
// rest of the path, either host/path or a percent-encoded absolute URL.
// includeHistory=true adds the older versions, newest first.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	if s.sites == nil {
		writeJSON(w, http.StatusNotFound, errStoreDisabled)
		return
	}
	key, ok := siteKey(r.PathValue("site"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid URL format"})
		return
	}
	includeHistory := r.URL.Query().Get("includeHistory") == "true"

	latest, err := s.sites.LatestMetadata(r.Context(), key)
	if errors.Is(err, common.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Site not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("url", key).Msg("Failed to load site metadata")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load site"})
		return
	}

	resp := SiteResponse{Success: true, URL: key, IncludeHistory: includeHistory, Data: latest}
	if includeHistory {
		versions, err := s.sites.ListVersions(r.Context(), key)
		if err != nil {
			s.logger.Error().Err(err).Str("url", key).Msg("Failed to load site history")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load site history"})
			return
		}
		for _, v := range versions {
			if !v.IsLatest {
				resp.History = append(resp.History, v)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeBody(w, r, s.config.MaxBodyBytes, s.validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if !s.authorized(req.Key) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return
	}
	if s.sites == nil {
		writeJSON(w, http.StatusNotFound, errStoreDisabled)
		return
	}
	key, ok := siteKey(req.URL)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid URL format"})
		return
	}

	err := s.sites.UpdateClassification(r.Context(), key, req.Classification)
	if errors.Is(err, common.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Site not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("url", key).Msg("Failed to update classification")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update classification"})
		return
	}

	s.logger.Info().Str("url", key).Msg("Site classification updated")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"url":            key,
		"classification": req.Classification,
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if s.sites == nil {
		writeJSON(w, http.StatusNotFound, errStoreDisabled)
		return
	}
	values, err := s.sites.GetExistingClassificationValues(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load classification values")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load filters"})
		return
	}
	writeJSON(w, http.StatusOK, values)
}
