package main

import (
	"os/signal"
	"syscall"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/config"
	"github.com/aleister1102/ogpreview/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, log, err := opts.buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			a.ResourceLimiter.Start()
			defer a.ResourceLimiter.Stop()

			server := a.APIServer()
			if a.Config.ServerConfig.ScrapeSecret == "" {
				log.Warn().Msg("No scrape secret configured, every scrape request will be rejected")
			}

			if watch {
				manager, err := config.NewConfigManager(opts.configPath, 0, log)
				if err != nil {
					return err
				}
				defer manager.Close()
				levelPinned := cmd.Flags().Changed("loglevel")
				manager.OnReload(func(cfg *config.GlobalConfig) {
					applyReload(cfg, levelPinned, server)
				})
				if err := manager.StartHotReload(ctx); err != nil {
					log.Warn().Err(err).Msg("Hot reload disabled")
				}
			}

			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch-config", false, "reload log level and scrape secret when the config file changes")
	return cmd
}


// applyReload pushes the reloadable settings of cfg into the running server.
// The file's log level is ignored when --loglevel was given.
func applyReload(cfg *config.GlobalConfig, levelPinned bool, server *api.Server) {
	if !levelPinned {
		if level, err := logger.ParseLevel(cfg.LogConfig.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
	server.SetScrapeSecret(cfg.ServerConfig.ScrapeSecret)
}
