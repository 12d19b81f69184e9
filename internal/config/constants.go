package config

const (
	// ConfigPathEnv points at a config file when no flag is given.
	ConfigPathEnv = "OGPREVIEW_CONFIG_PATH"

	// Secrets read from the environment override the file.
	ScrapeSecretEnv   = "SCRAPE_SECRET"
	BunnyAccessKeyEnv = "BUNNY_ACCESS_KEY"

	// Object stores
	ObjectStoreBunny = "bunny"
	ObjectStoreFile  = "file"

	// Storage drivers
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"

	// Storage Defaults
	DefaultStorageSQLitePath       = "data/ogpreview.db"
	DefaultArchiveDir              = "data/archive"
	DefaultArchiveCompressionCodec = "zstd"

	// Relay Defaults
	DefaultRelayFileDir       = "data/images"
	DefaultRelayPublicBaseURL = "http://localhost:8080/images"

	// Server Defaults
	DefaultServerAddr = ":8080"

	// maxConfigFileSize bounds how much of a config file is read.
	maxConfigFileSize = 10 * 1024 * 1024
)
