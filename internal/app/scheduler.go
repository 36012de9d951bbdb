package app

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// startScheduler runs a full expanded-universe refresh on the configured
// cron schedule. Sequential mode keeps the background load gentle on the
// provider while user requests are being served.
func startScheduler(ctx context.Context, tracker *RefreshTracker, universes *common.UniversesConfig, schedule string, logger *common.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		tickers := universes.All()
		logger.Info().Str("schedule", schedule).Int("tickers", len(tickers)).Msg("Scheduled refresh starting")
		tracker.Start(ctx, tickers, false, models.RefreshModeSequential)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("Refresh scheduler started")
	return c, nil
}
