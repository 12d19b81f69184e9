// Package datastore persists scraped metadata in a versioned SQL schema and
// archives bulk runs as Parquet files.
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/differ"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/aleister1102/ogpreview/internal/urlhandler"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store is the SQL backed metadata store.
type Store struct {
	db     *sql.DB
	driver string
	differ *differ.MetadataDiffer
	locks  *urlLocks
	now    func() time.Time
	logger zerolog.Logger
}

// NewStore opens the database and creates the schema when missing.
func NewStore(ctx context.Context, config StoreConfig, logger zerolog.Logger) (*Store, error) {
	dsn, err := config.dataSourceName()
	if err != nil {
		return nil, common.NewConfigurationError("storage", "dsn", err.Error())
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to open %s database", config.Driver)
	}
	if config.Driver == DriverSQLite {
		// SQLite has a single writer.
		db.SetMaxOpenConns(1)
	} else if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	store := &Store{
		db:     db,
		driver: config.Driver,
		differ: differ.NewMetadataDiffer(differ.DefaultDiffConfig()),
		locks:  newURLLocks(),
		now:    time.Now,
		logger: logger.With().Str("component", "MetadataStore").Str("driver", config.Driver).Logger(),
	}

	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Info().Msg("Metadata store ready")
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return common.WrapError(err, "failed to connect to database")
	}
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return common.WrapError(err, "failed to apply schema")
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return rebind(s.driver, query)
}

// SaveMetadata records a new metadata version for targetURL. Saving the same
// document as the latest version again is a successful no-op.
func (s *Store) SaveMetadata(ctx context.Context, targetURL string, metadata models.ScrapedMetadata, scrapedAt time.Time, perf models.PerformanceStats) (bool, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Hostname() == "" {
		return false, common.NewValidationError("url", targetURL, "target URL must be absolute")
	}

	document, err := json.Marshal(metadata)
	if err != nil {
		return false, common.WrapError(err, "failed to serialize metadata")
	}

	unlock := s.locks.Lock(targetURL)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, common.WrapError(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()

	domainID, err := s.upsertDomain(ctx, tx, parsed.Hostname(), now)
	if err != nil {
		return false, err
	}
	siteID, err := s.upsertSite(ctx, tx, domainID, parsed, metadata, scrapedAt, now)
	if err != nil {
		return false, err
	}

	version, summary, changed, err := s.nextVersion(ctx, tx, siteID, document)
	if err != nil {
		return false, err
	}
	if !changed {
		if err := tx.Commit(); err != nil {
			return false, common.WrapError(err, "failed to commit transaction")
		}
		s.logger.Debug().Str("url", targetURL).Int("version", version).Msg("Metadata unchanged, keeping latest version")
		return true, nil
	}

	if _, err := tx.ExecContext(ctx, s.q(`UPDATE site_metadata SET is_latest = ? WHERE site_id = ? AND is_latest = ?`), false, siteID, true); err != nil {
		return false, common.WrapError(err, "failed to demote previous versions")
	}

	_, err = tx.ExecContext(ctx, s.q(`INSERT INTO site_metadata
		(id, site_id, version, metadata, scraped_at, response_time_ms, content_length, http_status, is_latest, change_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), siteID, version, string(document), scrapedAt.UTC(),
		perf.ResponseTime, perf.ContentLength, perf.HTTPStatus, true, summary, now)
	if err != nil {
		return false, common.WrapError(err, "failed to insert metadata version")
	}

	if err := tx.Commit(); err != nil {
		return false, common.WrapError(err, "failed to commit transaction")
	}

	s.logger.Info().Str("url", targetURL).Int("version", version).Str("changes", summary).Msg("Metadata saved")
	return true, nil
}

func (s *Store) upsertDomain(ctx context.Context, tx *sql.Tx, hostname string, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, s.q(`INSERT INTO domains (id, hostname, registrable_domain, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (hostname) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id`),
		uuid.NewString(), hostname, urlhandler.RegistrableDomain(hostname), now, now).Scan(&id)
	if err != nil {
		return "", common.WrapErrorf(err, "failed to upsert domain %s", hostname)
	}
	return id, nil
}

func (s *Store) upsertSite(ctx context.Context, tx *sql.Tx, domainID string, target *url.URL, metadata models.ScrapedMetadata, scrapedAt, now time.Time) (string, error) {
	path := target.EscapedPath()
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	if target.Fragment != "" {
		path += "#" + target.EscapedFragment()
	}

	var favicon, ogImage string
	if metadata.Basic != nil {
		favicon = metadata.Basic.Favicon
	}
	if metadata.HasOpenGraphImage() {
		ogImage = metadata.OpenGraph.Images[0]
	}

	var id string
	err := tx.QueryRowContext(ctx, s.q(`INSERT INTO sites
		(id, domain_id, url, path, title, description, favicon, og_image, created_at, updated_at, last_scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			domain_id = excluded.domain_id,
			title = excluded.title,
			description = excluded.description,
			favicon = excluded.favicon,
			og_image = excluded.og_image,
			updated_at = excluded.updated_at,
			last_scraped_at = excluded.last_scraped_at
		RETURNING id`),
		uuid.NewString(), domainID, target.String(), path,
		metadata.DisplayTitle(), metadata.DisplayDescription(), favicon, ogImage,
		now, now, scrapedAt.UTC()).Scan(&id)
	if err != nil {
		return "", common.WrapErrorf(err, "failed to upsert site %s", target.String())
	}
	return id, nil
}

// nextVersion compares document with the latest stored version. It returns
// the version number to write (or the current one when unchanged) and the
// change summary.
func (s *Store) nextVersion(ctx context.Context, tx *sql.Tx, siteID string, document []byte) (int, string, bool, error) {
	var (
		latest   int
		previous string
	)
	err := tx.QueryRowContext(ctx, s.q(`SELECT version, metadata FROM site_metadata
		WHERE site_id = ? ORDER BY version DESC LIMIT 1`), siteID).Scan(&latest, &previous)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 1, "initial version", true, nil
	case err != nil:
		return 0, "", false, common.WrapError(err, "failed to load latest version")
	}

	if previous == string(document) {
		return latest, "", false, nil
	}

	summary, err := s.differ.Compare([]byte(previous), document)
	if err != nil {
		s.logger.Warn().Err(err).Str("site_id", siteID).Msg("Failed to diff metadata versions")
		return latest + 1, "changed", true, nil
	}
	return latest + 1, summary.String(), true, nil
}
