package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/models"
	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ArchiveConfig controls where and how bulk runs are archived.
type ArchiveConfig struct {
	Dir         string
	Compression string
}

func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{Dir: "data/archive", Compression: "zstd"}
}

// ArchiveRow is the Parquet row written for one scrape result.
type ArchiveRow struct {
	URL            string `parquet:"url" json:"url"`
	Success        bool   `parquet:"success" json:"success"`
	ErrorCode      string `parquet:"error_code" json:"error_code"`
	Error          string `parquet:"error" json:"error"`
	StatusCode     int32  `parquet:"status_code" json:"status_code"`
	Info           string `parquet:"info" json:"info"`
	Saved          bool   `parquet:"saved" json:"saved"`
	Title          string `parquet:"title" json:"title"`
	Description    string `parquet:"description" json:"description"`
	OGImage        string `parquet:"og_image" json:"og_image"`
	ImageCount     int32  `parquet:"image_count" json:"image_count"`
	ResponseTimeMs int64  `parquet:"response_time_ms" json:"response_time_ms"`
	ContentLength  int64  `parquet:"content_length" json:"content_length"`
	HTTPStatus     int32  `parquet:"http_status" json:"http_status"`
	ScrapedAtMs    int64  `parquet:"scraped_at_ms" json:"scraped_at_ms"`
	MetadataJSON   string `parquet:"metadata_json" json:"metadata_json"`
}

// ParquetArchive writes bulk scrape results to Parquet files.
type ParquetArchive struct {
	config ArchiveConfig
	now    func() time.Time
	logger zerolog.Logger
}

func NewParquetArchive(config ArchiveConfig, logger zerolog.Logger) (*ParquetArchive, error) {
	if strings.TrimSpace(config.Dir) == "" {
		return nil, common.NewConfigurationError("archive", "dir", "archive directory is required")
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create archive directory %s", config.Dir)
	}
	return &ParquetArchive{
		config: config,
		now:    time.Now,
		logger: logger.With().Str("component", "ParquetArchive").Logger(),
	}, nil
}

// WriteResults writes one file holding a row per result and returns its path.
func (a *ParquetArchive) WriteResults(ctx context.Context, results []models.ScrapeResult) (string, error) {
	if len(results) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rows := make([]ArchiveRow, 0, len(results))
	for _, result := range results {
		row, err := toArchiveRow(result)
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}

	started := a.now()
	name := fmt.Sprintf("results_%s_%s.parquet", started.UTC().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(a.config.Dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", common.WrapErrorf(err, "failed to create archive file %s", path)
	}

	writer := parquet.NewGenericWriter[ArchiveRow](file, a.compression())
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", common.WrapError(err, "failed to write archive rows")
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", common.WrapError(err, "failed to finalize archive")
	}
	if err := file.Close(); err != nil {
		return "", common.WrapError(err, "failed to close archive file")
	}

	a.logger.Info().Str("path", path).Int("rows", len(rows)).Dur("duration", time.Since(started)).Msg("Bulk results archived")
	return path, nil
}

func (a *ParquetArchive) compression() parquet.WriterOption {
	switch strings.ToLower(a.config.Compression) {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "none", "uncompressed":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// ReadArchive loads every row of an archive file.
func ReadArchive(path string) ([]ArchiveRow, error) {
	rows, err := parquet.ReadFile[ArchiveRow](path)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read archive %s", path)
	}
	return rows, nil
}

func toArchiveRow(result models.ScrapeResult) (ArchiveRow, error) {
	row := ArchiveRow{
		URL:        result.URL,
		Success:    result.Success,
		ErrorCode:  string(result.ErrorCode),
		Error:      result.Error,
		StatusCode: int32(result.StatusCode),
		Info:       result.Info,
		Saved:      result.IsSaved(),
	}
	if result.ScrapedAt != nil {
		row.ScrapedAtMs = result.ScrapedAt.UnixMilli()
	}
	if p := result.Performance; p != nil {
		row.ResponseTimeMs = p.ResponseTime
		row.ContentLength = p.ContentLength
		row.HTTPStatus = int32(p.HTTPStatus)
	}
	if md := result.Metadata; md != nil {
		row.Title = md.DisplayTitle()
		row.Description = md.DisplayDescription()
		row.ImageCount = int32(len(md.Images))
		if md.HasOpenGraphImage() {
			row.OGImage = md.OpenGraph.Images[0]
		}
		document, err := json.Marshal(md)
		if err != nil {
			return ArchiveRow{}, common.WrapErrorf(err, "failed to serialize metadata of %s", result.URL)
		}
		row.MetadataJSON = string(document)
	}
	return row, nil
}
