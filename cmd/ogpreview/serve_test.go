package main

import (
	"testing"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestApplyReload_LogLevel(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	server := api.NewServer(api.DefaultConfig(), nil, nil, nil, zerolog.Nop())
	cfg := config.NewDefaultGlobalConfig()
	cfg.LogConfig.LogLevel = "debug"

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	applyReload(cfg, true, server)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel(), "--loglevel must survive a reload")

	applyReload(cfg, false, server)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestServeCmd_LogLevelFlagIsVisible(t *testing.T) {
	root := newRootCmd()
	serve, _, err := root.Find([]string{"serve"})
	assert.NoError(t, err)
	assert.NoError(t, serve.ParseFlags([]string{"--loglevel", "warn"}))
	assert.True(t, serve.Flags().Changed("loglevel"))
}
