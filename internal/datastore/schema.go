package datastore

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS domains (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL UNIQUE,
		registrable_domain TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		domain_id TEXT NOT NULL REFERENCES domains(id),
		url TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		favicon TEXT NOT NULL DEFAULT '',
		og_image TEXT NOT NULL DEFAULT '',
		industry TEXT,
		category TEXT,
		country TEXT,
		language TEXT,
		company_size TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		last_scraped_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS site_metadata (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL REFERENCES sites(id),
		version INTEGER NOT NULL,
		metadata TEXT NOT NULL,
		scraped_at TIMESTAMP NOT NULL,
		response_time_ms INTEGER NOT NULL DEFAULT 0,
		content_length INTEGER NOT NULL DEFAULT 0,
		http_status INTEGER NOT NULL DEFAULT 0,
		is_latest INTEGER NOT NULL DEFAULT 0,
		change_summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (site_id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_site_metadata_latest ON site_metadata (site_id, is_latest)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS domains (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL UNIQUE,
		registrable_domain TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		domain_id TEXT NOT NULL REFERENCES domains(id),
		url TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		favicon TEXT NOT NULL DEFAULT '',
		og_image TEXT NOT NULL DEFAULT '',
		industry TEXT,
		category TEXT,
		country TEXT,
		language TEXT,
		company_size TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		last_scraped_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS site_metadata (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL REFERENCES sites(id),
		version INTEGER NOT NULL,
		metadata TEXT NOT NULL,
		scraped_at TIMESTAMPTZ NOT NULL,
		response_time_ms BIGINT NOT NULL DEFAULT 0,
		content_length BIGINT NOT NULL DEFAULT 0,
		http_status INTEGER NOT NULL DEFAULT 0,
		is_latest BOOLEAN NOT NULL DEFAULT FALSE,
		change_summary TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (site_id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_site_metadata_latest ON site_metadata (site_id, is_latest)`,
}

func schemaFor(driver string) []string {
	if driver == DriverPostgres {
		return postgresSchema
	}
	return sqliteSchema
}
