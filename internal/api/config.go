package api

import "time"

// Config holds the HTTP server settings.
type Config struct {
	Addr               string
	ScrapeSecret       string
	DefaultConcurrency int
	MaxBodyBytes       int64
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		DefaultConcurrency: 1,
		MaxBodyBytes:       1 << 20,
		ReadTimeout:        15 * time.Second,
		// Bulk requests can run for many minutes.
		WriteTimeout:    30 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}
