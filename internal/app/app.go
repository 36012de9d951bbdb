// Package app wires configuration, storage, clients, and services into
// the shared core used by cmd/marketpulse-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/marketpulse/internal/clients/quoteapi"
	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/services/analytics"
	"github.com/bobmcallan/marketpulse/internal/services/snapshot"
	"github.com/bobmcallan/marketpulse/internal/storage"
)

// App holds all initialized services, clients, and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.SnapshotStore
	QuoteClient      interfaces.QuoteClient
	SnapshotService  interfaces.SnapshotService
	AnalyticsService interfaces.AnalyticsService
	RefreshTracker   *RefreshTracker
	StartupTime      time.Time

	scheduler       *cron.Cron
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients, and storage.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: flag, MARKETPULSE_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("MARKETPULSE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "marketpulse.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/marketpulse.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := storage.NewSnapshotStore(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	clientOpts := []quoteapi.ClientOption{
		quoteapi.WithLogger(logger),
		quoteapi.WithTimeout(config.Client.GetTimeout()),
	}
	if config.Client.BaseURL != "" {
		clientOpts = append(clientOpts, quoteapi.WithBaseURL(config.Client.BaseURL))
	}
	if config.Client.RateLimit > 0 {
		clientOpts = append(clientOpts, quoteapi.WithRateLimit(config.Client.RateLimit))
	}
	quoteClient := quoteapi.NewClient(config.Client.APIKey, clientOpts...)

	snapshotService := snapshot.NewService(store, quoteClient, &config.Refresh, logger)
	analyticsService := analytics.NewService(snapshotService, &config.Universes, logger)
	tracker := NewRefreshTracker(snapshotService, logger)

	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Str("storage", config.Storage.Backend).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")

	return &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		QuoteClient:      quoteClient,
		SnapshotService:  snapshotService,
		AnalyticsService: analyticsService,
		RefreshTracker:   tracker,
		StartupTime:      startupStart,
	}, nil
}

// StartBackground launches the warm-cache pass and the cron refresh
// scheduler. Both are optional per configuration.
func (a *App) StartBackground(ctx context.Context) error {
	if a.Config.Refresh.WarmCache {
		warmCtx, cancel := context.WithCancel(ctx)
		a.warmCacheCancel = cancel
		go warmCache(warmCtx, a.SnapshotService, &a.Config.Universes, a.Logger)
	}

	if schedule := a.Config.Refresh.Schedule; schedule != "" {
		scheduler, err := startScheduler(ctx, a.RefreshTracker, &a.Config.Universes, schedule, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to start refresh scheduler: %w", err)
		}
		a.scheduler = scheduler
	}

	return nil
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
	}
	if a.scheduler != nil {
		stopCtx := a.scheduler.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			a.Logger.Warn().Msg("Refresh scheduler did not stop cleanly")
		}
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
