// Package analytics derives comparative analytics over ticker universes.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// unknownSector buckets snapshots whose provider supplied no sector.
const unknownSector = "Unknown"

// topStocksPerSector caps the best-performer list within each sector.
const topStocksPerSector = 5

// Service implements the AnalyticsService interface
type Service struct {
	snapshots interfaces.SnapshotService
	universes *common.UniversesConfig
	logger    *common.Logger
}

// NewService creates a new analytics service
func NewService(snapshots interfaces.SnapshotService, universes *common.UniversesConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		snapshots: snapshots,
		universes: universes,
		logger:    logger,
	}
}

// collect gathers cache-aware snapshots for a universe, refreshing stale
// entries in batches. Tickers with no data anywhere are skipped.
func (s *Service) collect(ctx context.Context, universe []string) ([]*models.Snapshot, error) {
	result, err := s.snapshots.RefreshMany(ctx, universe, false, models.RefreshModeBatched)
	if err != nil {
		return nil, fmt.Errorf("failed to collect snapshots: %w", err)
	}
	return result.Snapshots, nil
}

// SectorPerformance groups a universe's snapshots by sector and ranks
// sectors by average 30-day change, best first. Snapshots with an
// undefined change are excluded from that average's sum and count.
func (s *Service) SectorPerformance(ctx context.Context, universe []string) ([]*models.SectorPerformance, error) {
	if len(universe) == 0 {
		universe = s.universes.Expanded
	}

	snapshots, err := s.collect(ctx, universe)
	if err != nil {
		return nil, err
	}

	bySector := make(map[string][]*models.Snapshot)
	for _, snap := range snapshots {
		sector := snap.Sector
		if sector == "" {
			sector = unknownSector
		}
		bySector[sector] = append(bySector[sector], snap)
	}

	result := make([]*models.SectorPerformance, 0, len(bySector))
	for sector, members := range bySector {
		perf := &models.SectorPerformance{
			Sector:       sector,
			StockCount:   len(members),
			AvgChange7D:  average(members, func(s *models.Snapshot) *float64 { return s.Change7D }),
			AvgChange30D: average(members, func(s *models.Snapshot) *float64 { return s.Change30D }),
			AvgChange90D: average(members, func(s *models.Snapshot) *float64 { return s.Change90D }),
			TopStocks:    topStocks(members),
		}
		result = append(result, perf)
	}

	// Rank by average 30-day change, best first; sectors with no defined
	// average sink to the bottom.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].AvgChange30D, result[j].AvgChange30D
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a > *b
	})

	s.logger.Debug().Int("sectors", len(result)).Int("snapshots", len(snapshots)).Msg("Sector performance computed")
	return result, nil
}

// average computes the mean of a change field over snapshots that define
// it. Returns nil when no snapshot defines the field.
func average(snapshots []*models.Snapshot, field func(*models.Snapshot) *float64) *float64 {
	var sum float64
	var count int
	for _, snap := range snapshots {
		if v := field(snap); v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// topStocks returns the sector's best performers by 30-day change.
// Snapshots with an undefined change are excluded.
func topStocks(snapshots []*models.Snapshot) []models.SectorTopStock {
	candidates := make([]models.SectorTopStock, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.Change30D == nil {
			continue
		}
		candidates = append(candidates, models.SectorTopStock{
			Ticker:      snap.Ticker,
			CompanyName: snap.CompanyName,
			Change30D:   *snap.Change30D,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Change30D > candidates[j].Change30D
	})
	if len(candidates) > topStocksPerSector {
		candidates = candidates[:topStocksPerSector]
	}
	return candidates
}

// DeepPullbacks screens the expanded universe for tickers trading 50% or
// more below their rolling high for the timeframe, worst first.
func (s *Service) DeepPullbacks(ctx context.Context, timeframe models.Timeframe) ([]*models.DeepPullback, error) {
	snapshots, err := s.collect(ctx, s.universes.Expanded)
	if err != nil {
		return nil, err
	}

	result := make([]*models.DeepPullback, 0)
	for _, snap := range snapshots {
		if snap.CurrentPrice == nil || *snap.CurrentPrice <= 0 {
			continue
		}
		high := timeframeHigh(snap, timeframe)
		if high == nil || *high <= 0 {
			continue
		}

		percentFromHigh := (*snap.CurrentPrice - *high) / *high * 100
		if percentFromHigh > -50 {
			continue
		}

		pullback := &models.DeepPullback{
			Ticker:          snap.Ticker,
			CompanyName:     snap.CompanyName,
			CurrentPrice:    *snap.CurrentPrice,
			High:            *high,
			PercentFromHigh: percentFromHigh,
			Timeframe:       timeframe,
		}
		if snap.MarketCap != nil {
			pullback.MarketCap = *snap.MarketCap
		}
		result = append(result, pullback)
	}

	// Deepest pullback first
	sort.Slice(result, func(i, j int) bool {
		return result[i].PercentFromHigh < result[j].PercentFromHigh
	})

	return result, nil
}

// timeframeHigh selects the rolling high matching the pullback timeframe.
func timeframeHigh(snap *models.Snapshot, timeframe models.Timeframe) *float64 {
	switch timeframe {
	case models.Timeframe3Mo:
		return snap.High3Mo
	case models.Timeframe1Yr:
		return snap.High1Yr
	default:
		return snap.High6Mo
	}
}

// IPOPerformance ranks the IPO universe by 90-day change, best first.
// True listing prices are not tracked; the 90-day change is the proxy.
func (s *Service) IPOPerformance(ctx context.Context) ([]*models.IPOPerformance, error) {
	snapshots, err := s.collect(ctx, s.universes.IPOs)
	if err != nil {
		return nil, err
	}

	result := make([]*models.IPOPerformance, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.CurrentPrice == nil || snap.Change90D == nil {
			continue
		}
		result = append(result, &models.IPOPerformance{
			Ticker:        snap.Ticker,
			CompanyName:   snap.CompanyName,
			CurrentPrice:  *snap.CurrentPrice,
			PercentChange: *snap.Change90D,
			MarketCap:     snap.MarketCap,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PercentChange > result[j].PercentChange
	})

	return result, nil
}

// Ensure Service implements AnalyticsService
var _ interfaces.AnalyticsService = (*Service)(nil)
