// Package app assembles the scraper components from configuration.
package app

import (
	"context"
	"net/url"
	"strings"

	"github.com/aleister1102/ogpreview/internal/api"
	"github.com/aleister1102/ogpreview/internal/common"
	"github.com/aleister1102/ogpreview/internal/config"
	"github.com/aleister1102/ogpreview/internal/datastore"
	"github.com/aleister1102/ogpreview/internal/extractor"
	"github.com/aleister1102/ogpreview/internal/httpclient"
	"github.com/aleister1102/ogpreview/internal/imagerelay"
	"github.com/aleister1102/ogpreview/internal/orchestrator"
	"github.com/aleister1102/ogpreview/internal/ratelimit"
	"github.com/aleister1102/ogpreview/internal/rslimiter"
	"github.com/aleister1102/ogpreview/internal/ssrfguard"
	"github.com/rs/zerolog"
)

// App owns the long-lived components of one process.
type App struct {
	Config          *config.GlobalConfig
	Service         *orchestrator.Service
	Store           *datastore.Store
	RateLimiter     *ratelimit.Limiter
	ResourceLimiter *rslimiter.Limiter
	// FileImageDir is set when images are relayed to local disk.
	FileImageDir string

	logger zerolog.Logger
}

// New builds every component enabled in cfg. The caller must Close the App.
func New(ctx context.Context, cfg *config.GlobalConfig, logger zerolog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		logger: logger,
	}

	guard := ssrfguard.New(nil, logger)
	fetcher, err := httpclient.NewHTMLFetcher(cfg.HTTPClientConfig(), guard, logger)
	if err != nil {
		return nil, common.WrapError(err, "failed to create fetcher")
	}

	deps := orchestrator.Dependencies{
		Fetcher:   fetcher,
		Extractor: extractor.NewExtractor(logger),
	}

	if cfg.RelayConfig.Enabled {
		store, dir, err := newObjectStore(cfg.RelayConfig, logger)
		if err != nil {
			return nil, err
		}
		relay, err := imagerelay.NewRelay(cfg.RelayConfig.ImageRelayConfig(), store, guard, logger)
		if err != nil {
			return nil, common.WrapError(err, "failed to create image relay")
		}
		deps.Relayer = relay
		a.FileImageDir = dir
	}

	if cfg.StorageConfig.Enabled {
		store, err := datastore.NewStore(ctx, cfg.StorageConfig.StoreConfig(), logger)
		if err != nil {
			return nil, common.WrapError(err, "failed to open metadata store")
		}
		a.Store = store
		deps.Saver = store
	}

	if cfg.ArchiveConfig.Enabled {
		archive, err := datastore.NewParquetArchive(cfg.ArchiveConfig.ParquetArchiveConfig(), logger)
		if err != nil {
			a.Close()
			return nil, common.WrapError(err, "failed to create result archive")
		}
		deps.Archiver = archive
	}

	a.ResourceLimiter = rslimiter.New(cfg.ResourceLimiterConfig.LimiterConfig(), logger)
	deps.Limiter = a.ResourceLimiter

	service, err := orchestrator.NewService(cfg.ScraperConfig.OrchestratorConfig(), deps, logger)
	if err != nil {
		a.Close()
		return nil, common.WrapError(err, "failed to create scrape service")
	}
	a.Service = service
	a.RateLimiter = ratelimit.New(cfg.RateLimitConfig.LimiterConfig(), logger)

	a.logger.Info().
		Str("component", "App").
		Bool("relay", cfg.RelayConfig.Enabled).
		Bool("storage", cfg.StorageConfig.Enabled).
		Bool("archive", cfg.ArchiveConfig.Enabled).
		Msg("Components initialized")
	return a, nil
}

func newObjectStore(cfg config.RelayConfig, logger zerolog.Logger) (imagerelay.ObjectStore, string, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreFile:
		store, err := imagerelay.NewFileStore(cfg.File.Dir, cfg.File.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, cfg.File.Dir, nil
	default:
		store, err := imagerelay.NewBunnyStore(cfg.BunnyStoreConfig(), logger)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	}
}

// APIServer builds the HTTP server over the App's components.
func (a *App) APIServer() *api.Server {
	var sites api.SiteStore
	if a.Store != nil {
		sites = a.Store
	}
	server := api.NewServer(a.Config.APIConfig(), a.Service, sites, a.RateLimiter, a.logger)
	if a.FileImageDir != "" {
		if prefix := publicPath(a.Config.RelayConfig.File.PublicBaseURL); prefix != "" {
			server.ServeFiles(prefix, a.FileImageDir)
		}
	}
	return server
}

// publicPath returns the path of base when it is served by this process.
func publicPath(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
