package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadFunc is called with the new configuration after a successful reload.
type ReloadFunc func(cfg *GlobalConfig)

// ConfigManager holds the current configuration and reloads it when the
// file changes on disk.
type ConfigManager struct {
	mu           sync.RWMutex
	config       *GlobalConfig
	configPath   string
	logger       zerolog.Logger
	watcher      *fsnotify.Watcher
	reloadDelay  time.Duration
	lastModified time.Time
	listeners    []ReloadFunc
	stopOnce     sync.Once
	stopChan     chan struct{}
}

// NewConfigManager loads and validates the configuration found from configPath.
func NewConfigManager(configPath string, reloadDelay time.Duration, logger zerolog.Logger) (*ConfigManager, error) {
	if reloadDelay <= 0 {
		reloadDelay = 2 * time.Second
	}
	if configPath != "" && !fileExists(configPath) {
		return nil, fmt.Errorf("config file %q does not exist", configPath)
	}
	cm := &ConfigManager{
		configPath:  GetConfigPath(configPath),
		logger:      logger.With().Str("component", "ConfigManager").Logger(),
		reloadDelay: reloadDelay,
		stopChan:    make(chan struct{}),
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}
	cm.config = cfg
	return cm, nil
}

// GetConfig returns the current configuration. Callers must not modify it.
func (cm *ConfigManager) GetConfig() *GlobalConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// GetConfigPath returns the resolved file path, or "" when running on defaults.
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// OnReload registers fn to run after each successful reload.
func (cm *ConfigManager) OnReload(fn ReloadFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.listeners = append(cm.listeners, fn)
}

// ReloadConfig re-reads the file. The previous configuration is kept when
// the new one fails to parse or validate.
func (cm *ConfigManager) ReloadConfig() error {
	cfg, err := cm.load()
	if err != nil {
		return err
	}

	cm.mu.Lock()
	cm.config = cfg
	listeners := append([]ReloadFunc(nil), cm.listeners...)
	cm.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
	cm.logger.Info().Str("path", cm.configPath).Msg("Configuration reloaded")
	return nil
}

func (cm *ConfigManager) load() (*GlobalConfig, error) {
	cfg, err := LoadGlobalConfig(cm.configPath, cm.logger)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cm.configPath != "" {
		if stat, err := os.Stat(cm.configPath); err == nil {
			cm.mu.Lock()
			cm.lastModified = stat.ModTime()
			cm.mu.Unlock()
		}
	}
	return cfg, nil
}

// StartHotReload watches the config file until ctx is done or Close is
// called. It is a no-op when no file is in use.
func (cm *ConfigManager) StartHotReload(ctx context.Context) error {
	if cm.configPath == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors often replace the file, so the directory is watched.
	dir := filepath.Dir(cm.configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch config directory '%s': %w", dir, err)
	}
	cm.watcher = watcher
	cm.logger.Info().Str("directory", dir).Msg("Watching configuration for changes")

	go cm.hotReloadLoop(ctx)
	return nil
}

// Close stops the watcher.
func (cm *ConfigManager) Close() error {
	var err error
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
		if cm.watcher != nil {
			err = cm.watcher.Close()
		}
	})
	return err
}

func (cm *ConfigManager) hotReloadLoop(ctx context.Context) {
	target := filepath.Clean(cm.configPath)
	reloadTimer := time.NewTimer(cm.reloadDelay)
	reloadTimer.Stop()
	defer reloadTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cm.stopChan:
			return
		case event, ok := <-cm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == target && event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cm.logger.Debug().Str("op", event.Op.String()).Msg("Config file change detected")
				reloadTimer.Reset(cm.reloadDelay)
			}
		case err, ok := <-cm.watcher.Errors:
			if !ok {
				return
			}
			cm.logger.Error().Err(err).Msg("File watcher error")
		case <-reloadTimer.C:
			if !cm.modifiedSinceLoad() {
				continue
			}
			if err := cm.ReloadConfig(); err != nil {
				cm.logger.Error().Err(err).Msg("Failed to reload configuration, keeping previous")
			}
		}
	}
}

func (cm *ConfigManager) modifiedSinceLoad() bool {
	stat, err := os.Stat(cm.configPath)
	if err != nil {
		return false
	}
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return stat.ModTime().After(cm.lastModified)
}
