package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// warmCache pre-fetches the primary universe on startup so the first
// user query is fast. Stale-only: tickers already fresh in the store
// are skipped by the snapshot service.
func warmCache(ctx context.Context, snapshots interfaces.SnapshotService, universes *common.UniversesConfig, logger *common.Logger) {
	if os.Getenv("MARKETPULSE_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via MARKETPULSE_WARM_CACHE=off")
		return
	}

	tickers := universes.Primary
	if len(tickers) == 0 {
		logger.Info().Msg("Warm cache: no primary universe configured, skipping")
		return
	}

	start := time.Now()
	logger.Info().Int("tickers", len(tickers)).Msg("Warm cache: starting")

	result, err := snapshots.RefreshMany(ctx, tickers, false, models.RefreshModeBatched)
	if err != nil {
		logger.Warn().Err(err).Msg("Warm cache: refresh failed")
		return
	}

	logger.Info().
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
