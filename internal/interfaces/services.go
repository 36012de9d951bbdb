// Package interfaces defines service contracts for marketpulse
package interfaces

import (
	"context"

	"github.com/bobmcallan/marketpulse/internal/models"
)

// SnapshotService coordinates the snapshot cache: freshness decisions,
// provider fetches, metric computation, and write-back.
type SnapshotService interface {
	// GetOrRefresh returns the snapshot for a ticker, fetching from the
	// provider when the cache misses or is stale. A provider miss falls
	// back to the last cached value; (nil, nil) means no data exists
	// anywhere for the ticker.
	GetOrRefresh(ctx context.Context, ticker string, force bool) (*models.Snapshot, error)

	// GetCached returns the stored snapshot without any provider call.
	GetCached(ctx context.Context, ticker string) (*models.Snapshot, error)

	// ListCached returns all stored snapshots.
	ListCached(ctx context.Context) ([]*models.Snapshot, error)

	// RefreshMany refreshes a list of tickers under the pacing rules of
	// the given mode. Failed tickers are counted, not returned.
	RefreshMany(ctx context.Context, tickers []string, force bool, mode models.RefreshMode) (*models.RefreshResult, error)
}

// AnalyticsService derives comparative analytics over ticker universes.
type AnalyticsService interface {
	// SectorPerformance groups a universe's snapshots by sector and ranks
	// sectors by average 30-day change. An empty universe uses the
	// configured expanded universe.
	SectorPerformance(ctx context.Context, universe []string) ([]*models.SectorPerformance, error)

	// SectorChart renders the sector performance ranking as a PNG bar chart.
	SectorChart(ctx context.Context, universe []string) ([]byte, error)

	// DeepPullbacks screens the expanded universe for tickers trading 50%
	// or more below their rolling high for the timeframe.
	DeepPullbacks(ctx context.Context, timeframe models.Timeframe) ([]*models.DeepPullback, error)

	// IPOPerformance ranks the IPO universe by 90-day change.
	IPOPerformance(ctx context.Context) ([]*models.IPOPerformance, error)
}
