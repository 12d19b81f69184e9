// Package logger builds the process-wide zerolog logger.
package logger

import "github.com/rs/zerolog"

// New creates a logger from file-level settings.
func New(cfg FileLogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
