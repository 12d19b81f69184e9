package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/aleister1102/ogpreview/internal/app"
	"github.com/aleister1102/ogpreview/internal/config"
	"github.com/aleister1102/ogpreview/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "ogpreview",
		Short: "Scrape Open Graph and page metadata behind an SSRF guard.",
		Long: `ogpreview fetches web pages through a guarded HTTP client, extracts
Open Graph, Twitter, JSON-LD and favicon metadata, optionally re-hosts the
images on a CDN, and stores versioned results.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $"+config.ConfigPathEnv+", then ./config.yaml or ./config.json)")
	cmd.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(newScrapeCmd(opts), newBulkCmd(opts), newServeCmd(opts), newSiteCmd(opts), newArchiveCmd())
	return cmd
}

// load reads and validates the configuration and builds the logger.
func (o *rootOptions) load() (*config.GlobalConfig, zerolog.Logger, error) {
	cfg, err := config.LoadGlobalConfig(o.configPath, zerolog.Nop())
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.LogConfig.LogLevel = o.logLevel
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

func (o *rootOptions) buildApp(ctx context.Context) (*app.App, zerolog.Logger, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, log, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
