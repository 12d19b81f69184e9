package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigManager_ReloadConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log:\n  log_level: info\n")
	cm, err := NewConfigManager(path, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer cm.Close()

	assert.Equal(t, "info", cm.GetConfig().LogConfig.LogLevel)

	reloaded := make(chan string, 1)
	cm.OnReload(func(cfg *GlobalConfig) { reloaded <- cfg.LogConfig.LogLevel })

	require.NoError(t, os.WriteFile(path, []byte("log:\n  log_level: debug\n"), 0o644))
	require.NoError(t, cm.ReloadConfig())

	assert.Equal(t, "debug", <-reloaded)
	assert.Equal(t, "debug", cm.GetConfig().LogConfig.LogLevel)
}

func TestConfigManager_InvalidReloadKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log:\n  log_level: warn\n")
	cm, err := NewConfigManager(path, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer cm.Close()

	require.NoError(t, os.WriteFile(path, []byte("log:\n  log_level: shouting\n"), 0o644))
	assert.Error(t, cm.ReloadConfig())
	assert.Equal(t, "warn", cm.GetConfig().LogConfig.LogLevel)
}

func TestConfigManager_MissingFile(t *testing.T) {
	_, err := NewConfigManager("/nonexistent/config.yaml", 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestConfigManager_HotReload(t *testing.T) {
	path := writeConfig(t, "config.yaml", "ratelimit:\n  requests: 10\n")
	cm, err := NewConfigManager(path, 20*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer cm.Close()

	reloaded := make(chan int, 4)
	cm.OnReload(func(cfg *GlobalConfig) { reloaded <- cfg.RateLimitConfig.Requests })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, cm.StartHotReload(ctx))

	// Make sure the new mtime is strictly later than the loaded one.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte("ratelimit:\n  requests: 25\n"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case got := <-reloaded:
		assert.Equal(t, 25, got)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
}
