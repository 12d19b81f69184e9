package config

import (
	"time"

	"github.com/aleister1102/ogpreview/internal/datastore"
)

// StorageConfig selects the metadata store backend.
type StorageConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	Driver        string `json:"driver,omitempty" yaml:"driver,omitempty" validate:"omitempty,storagedriver"`
	DSN           string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	SQLitePath    string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	MaxOpenConns  int    `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty" validate:"omitempty,min=1,max=100"`
	BusyTimeoutMs int    `json:"busy_timeout_ms,omitempty" yaml:"busy_timeout_ms,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	def := datastore.DefaultStoreConfig()
	return StorageConfig{
		Enabled:       true,
		Driver:        StorageDriverSQLite,
		SQLitePath:    DefaultStorageSQLitePath,
		MaxOpenConns:  def.MaxOpenConns,
		BusyTimeoutMs: int(def.BusyTimeout / time.Millisecond),
	}
}

// StoreConfig converts the storage section.
func (c StorageConfig) StoreConfig() datastore.StoreConfig {
	def := datastore.DefaultStoreConfig()
	out := def
	if c.Driver != "" {
		out.Driver = c.Driver
	}
	out.DSN = c.DSN
	if c.SQLitePath != "" {
		out.Path = c.SQLitePath
	}
	if c.MaxOpenConns > 0 {
		out.MaxOpenConns = c.MaxOpenConns
	}
	out.BusyTimeout = millis(c.BusyTimeoutMs, def.BusyTimeout)
	return out
}

// ArchiveConfig controls Parquet export of bulk runs.
type ArchiveConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	Dir              string `json:"dir,omitempty" yaml:"dir,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,oneof=zstd gzip snappy none"`
}

// NewDefaultArchiveConfig creates default archive configuration
func NewDefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled:          false,
		Dir:              DefaultArchiveDir,
		CompressionCodec: DefaultArchiveCompressionCodec,
	}
}

// ParquetArchiveConfig converts the archive section.
func (c ArchiveConfig) ParquetArchiveConfig() datastore.ArchiveConfig {
	out := datastore.DefaultArchiveConfig()
	if c.Dir != "" {
		out.Dir = c.Dir
	}
	if c.CompressionCodec != "" {
		out.Compression = c.CompressionCodec
	}
	return out
}
