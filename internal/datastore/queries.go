package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/models"
)

// MetadataVersion is one stored snapshot of a page's metadata.
type MetadataVersion struct {
	ID             string                 `json:"id"`
	SiteID         string                 `json:"siteId"`
	Version        int                    `json:"version"`
	Metadata       models.ScrapedMetadata `json:"metadata"`
	ScrapedAt      time.Time              `json:"scrapedAt"`
	ResponseTimeMs int64                  `json:"responseTimeMs"`
	ContentLength  int64                  `json:"contentLength"`
	HTTPStatus     int                    `json:"httpStatus"`
	IsLatest       bool                   `json:"isLatest"`
	ChangeSummary  string                 `json:"changeSummary"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// Classification holds the manually or externally assigned site labels.
type Classification struct {
	Industry    string `json:"industry,omitempty"`
	Category    string `json:"category,omitempty"`
	Country     string `json:"country,omitempty"`
	Language    string `json:"language,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
}

// ClassificationValues lists the distinct labels already in use.
type ClassificationValues struct {
	Industries   []string `json:"existingIndustries"`
	Categories   []string `json:"existingCategories"`
	Countries    []string `json:"existingCountries"`
	Languages    []string `json:"existingLanguages"`
	CompanySizes []string `json:"existingCompanySizes"`
}

const versionColumns = `m.id, m.site_id, m.version, m.metadata, m.scraped_at, m.response_time_ms,
	m.content_length, m.http_status, m.is_latest, m.change_summary, m.created_at`

// LatestMetadata returns the latest version stored for url.
func (s *Store) LatestMetadata(ctx context.Context, url string) (*MetadataVersion, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+versionColumns+`
		FROM site_metadata m JOIN sites st ON st.id = m.site_id
		WHERE st.url = ? AND m.is_latest = ?`), url, true)

	version, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapErrorf(common.ErrNotFound, "no metadata stored for %s", url)
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to load latest metadata")
	}
	return version, nil
}

// ListVersions returns every version of url, newest first.
func (s *Store) ListVersions(ctx context.Context, url string) ([]MetadataVersion, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+versionColumns+`
		FROM site_metadata m JOIN sites st ON st.id = m.site_id
		WHERE st.url = ? ORDER BY m.version DESC`), url)
	if err != nil {
		return nil, common.WrapError(err, "failed to list metadata versions")
	}
	defer rows.Close()

	var versions []MetadataVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, common.WrapError(err, "failed to read metadata version")
		}
		versions = append(versions, *version)
	}
	return versions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*MetadataVersion, error) {
	var (
		v         MetadataVersion
		document  string
		scrapedAt dbTime
		createdAt dbTime
	)
	if err := row.Scan(&v.ID, &v.SiteID, &v.Version, &document, &scrapedAt, &v.ResponseTimeMs,
		&v.ContentLength, &v.HTTPStatus, &v.IsLatest, &v.ChangeSummary, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(document), &v.Metadata); err != nil {
		return nil, common.WrapErrorf(err, "corrupt metadata document for version %d", v.Version)
	}
	v.ScrapedAt = scrapedAt.Time
	v.CreatedAt = createdAt.Time
	return &v, nil
}

// UpdateClassification sets the classification labels of a stored site.
// Blank fields clear the label.
func (s *Store) UpdateClassification(ctx context.Context, url string, c Classification) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE sites SET industry = ?, category = ?, country = ?,
		language = ?, company_size = ?, updated_at = ? WHERE url = ?`),
		nullable(c.Industry), nullable(c.Category), nullable(c.Country), nullable(c.Language),
		nullable(c.CompanySize), s.now().UTC(), url)
	if err != nil {
		return common.WrapError(err, "failed to update classification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.WrapErrorf(common.ErrNotFound, "site %s", url)
	}
	return nil
}

// GetExistingClassificationValues returns the distinct non-empty labels of
// every classification column, sorted.
func (s *Store) GetExistingClassificationValues(ctx context.Context) (ClassificationValues, error) {
	var values ClassificationValues
	targets := []struct {
		column string
		dest   *[]string
	}{
		{"industry", &values.Industries},
		{"category", &values.Categories},
		{"country", &values.Countries},
		{"language", &values.Languages},
		{"company_size", &values.CompanySizes},
	}

	for _, target := range targets {
		distinct, err := s.distinctValues(ctx, target.column)
		if err != nil {
			return ClassificationValues{}, err
		}
		*target.dest = distinct
	}
	return values, nil
}

// distinctValues reads one classification column; column is never user input.
func (s *Store) distinctValues(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT `+column+` FROM sites
		WHERE `+column+` IS NOT NULL AND `+column+` <> '' ORDER BY `+column)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read %s values", column)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, common.WrapErrorf(err, "failed to scan %s value", column)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func nullable(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
