package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config  LoggerConfig
	console io.Writer
}

func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  DefaultLoggerConfig(),
		console: os.Stderr,
	}
}

// WithConfig applies file-level settings.
func (lb *LoggerBuilder) WithConfig(cfg FileLogConfig) *LoggerBuilder {
	lb.config = FromFileConfig(cfg)
	return lb
}

// WithConsoleOutput redirects console output, mostly for tests.
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.console = w
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if err := lb.validateConfig(); err != nil {
		return zerolog.Nop(), err
	}

	var writers []io.Writer
	if lb.config.EnableConsole && lb.console != nil {
		writers = append(writers, formatWriter(lb.console, lb.config.Format, lb.console == os.Stderr))
	}
	if lb.config.EnableFile {
		fw, err := newFileWriter(lb.config)
		if err != nil {
			return zerolog.Nop(), common.WrapErrorf(err, "failed to open log file %s", lb.config.FilePath)
		}
		writers = append(writers, fw)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), common.NewError("no output writers configured")
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()

	// The level is process-wide so a config reload can change it.
	zerolog.SetGlobalLevel(lb.config.Level)
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)
	return logger, nil
}

func (lb *LoggerBuilder) validateConfig() error {
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return common.NewValidationError("file_path", lb.config.FilePath, "file path required when file logging enabled")
	}
	if lb.config.MaxSizeMB <= 0 {
		return common.NewValidationError("max_size_mb", lb.config.MaxSizeMB, "max size must be positive")
	}
	return nil
}
