package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/go-playground/validator/v10"
)

func newConfigValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("storagedriver", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", StorageDriverSQLite, StorageDriverPostgres:
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("objectstore", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", ObjectStoreBunny, ObjectStoreFile:
			return true
		default:
			return false
		}
	})

	return validate
}

// ValidateConfig checks field rules and the settings that depend on each other.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", nil, "configuration is nil")
	}

	if err := newConfigValidator().Struct(cfg); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", strings.TrimPrefix(e.Namespace(), "GlobalConfig."), e.Tag())
				if e.Param() != "" {
					msg += fmt.Sprintf(" (expected: %s)", e.Param())
				}
				if e.Value() != nil && e.Value() != "" {
					msg += fmt.Sprintf(", actual: '%v'", e.Value())
				}
				messages = append(messages, msg)
			}
			return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("configuration validation error: %w", err)
	}

	return validateDependencies(cfg)
}

func validateDependencies(cfg *GlobalConfig) error {
	var errs []error

	if cfg.StorageConfig.Enabled && cfg.StorageConfig.Driver == StorageDriverPostgres && cfg.StorageConfig.DSN == "" {
		errs = append(errs, common.NewConfigurationError("storage", "dsn", "postgres driver requires a DSN"))
	}

	relay := cfg.RelayConfig
	if relay.Enabled {
		switch relay.ObjectStore {
		case ObjectStoreFile:
			if relay.File.Dir == "" || relay.File.PublicBaseURL == "" {
				errs = append(errs, common.NewConfigurationError("relay.file", "dir", "file store requires dir and public_base_url"))
			}
		default:
			if relay.Bunny.AccessKey == "" {
				errs = append(errs, common.NewConfigurationError("relay.bunny", "access_key", "bunny store requires an access key (or "+BunnyAccessKeyEnv+")"))
			}
		}
	}

	if cfg.FetcherConfig.FallbackDelayMaxMs < cfg.FetcherConfig.FallbackDelayMinMs {
		errs = append(errs, common.NewConfigurationError("fetcher", "fallback_delay_max_ms", "must not be below fallback_delay_min_ms"))
	}
	if cfg.RetryConfig.ExtraDelayMaxMs < cfg.RetryConfig.ExtraDelayMinMs {
		errs = append(errs, common.NewConfigurationError("retry", "extra_delay_max_ms", "must not be below extra_delay_min_ms"))
	}

	return common.CombineErrors(errs)
}
