package config

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/logger"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	LogConfig             logger.FileLogConfig  `json:"log,omitempty" yaml:"log,omitempty"`
	FetcherConfig         FetcherConfig         `json:"fetcher,omitempty" yaml:"fetcher,omitempty"`
	RetryConfig           RetryConfig           `json:"retry,omitempty" yaml:"retry,omitempty"`
	RelayConfig           RelayConfig           `json:"relay,omitempty" yaml:"relay,omitempty"`
	StorageConfig         StorageConfig         `json:"storage,omitempty" yaml:"storage,omitempty"`
	ScraperConfig         ScraperConfig         `json:"scraper,omitempty" yaml:"scraper,omitempty"`
	RateLimitConfig       RateLimitConfig       `json:"ratelimit,omitempty" yaml:"ratelimit,omitempty"`
	ServerConfig          ServerConfig          `json:"server,omitempty" yaml:"server,omitempty"`
	ResourceLimiterConfig ResourceLimiterConfig `json:"resource_limiter,omitempty" yaml:"resource_limiter,omitempty"`
	ArchiveConfig         ArchiveConfig         `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:             logger.NewDefaultFileLogConfig(),
		FetcherConfig:         NewDefaultFetcherConfig(),
		RetryConfig:           NewDefaultRetryConfig(),
		RelayConfig:           NewDefaultRelayConfig(),
		StorageConfig:         NewDefaultStorageConfig(),
		ScraperConfig:         NewDefaultScraperConfig(),
		RateLimitConfig:       NewDefaultRateLimitConfig(),
		ServerConfig:          NewDefaultServerConfig(),
		ResourceLimiterConfig: NewDefaultResourceLimiterConfig(),
		ArchiveConfig:         NewDefaultArchiveConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations
// on top of the defaults, then applies environment overrides. YAML is used
// for .yaml and .yml files, JSON otherwise.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !fileExists(providedPath) {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath != "" {
		data, err := readConfigFile(filePath)
		if err != nil {
			return nil, common.WrapError(err, "failed to load config file content")
		}
		if err := parseConfigContent(data, filePath, cfg); err != nil {
			return nil, common.WrapError(err, "failed to parse config content")
		}
		logger.Debug().Str("path", filePath).Msg("Loaded configuration file")
	}

	applyEnvOverrides(cfg, os.Getenv)
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", filePath, "config file exceeds 10MB")
	}
	return data, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

func isYAMLFile(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".yaml" || ext == ".yml"
}

func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

// applyEnvOverrides replaces secrets with values from the environment when set.
func applyEnvOverrides(cfg *GlobalConfig, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(ScrapeSecretEnv)); v != "" {
		cfg.ServerConfig.ScrapeSecret = v
	}
	if v := strings.TrimSpace(getenv(BunnyAccessKeyEnv)); v != "" {
		cfg.RelayConfig.Bunny.AccessKey = v
	}
}
