// Package snapshot coordinates the snapshot cache: freshness checks,
// provider fetches, metric computation, and write-back.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/metrics"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// inflight tracks a refresh in progress so concurrent requests for the
// same ticker share one provider round-trip.
type inflight struct {
	done     chan struct{}
	snapshot *models.Snapshot
	err      error
}

// Service implements the SnapshotService interface
type Service struct {
	store  interfaces.SnapshotStore
	client interfaces.QuoteClient
	config *common.RefreshConfig
	logger *common.Logger

	mu      sync.Mutex
	pending map[string]*inflight

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewService creates a new snapshot service
func NewService(store interfaces.SnapshotStore, client interfaces.QuoteClient, config *common.RefreshConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		store:   store,
		client:  client,
		config:  config,
		logger:  logger,
		pending: make(map[string]*inflight),
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// GetOrRefresh returns the snapshot for a ticker, fetching from the
// provider when the cache misses or is stale. A provider miss falls back
// to the last cached value; (nil, nil) means no data exists anywhere.
func (s *Service) GetOrRefresh(ctx context.Context, ticker string, force bool) (*models.Snapshot, error) {
	normalized, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	ttl := s.config.GetSnapshotTTL()

	if !force {
		stale, err := s.store.IsStale(ctx, normalized, ttl)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("failed to check staleness for %s: %w", normalized, err)
		}
		if err == nil && !stale {
			cached, err := s.store.Get(ctx, normalized)
			if err == nil {
				s.logger.Debug().Str("ticker", normalized).Msg("Snapshot cache hit")
				return cached, nil
			}
			if !errors.Is(err, interfaces.ErrNotFound) {
				return nil, fmt.Errorf("failed to load snapshot for %s: %w", normalized, err)
			}
		}
	}

	return s.refresh(ctx, normalized)
}

// GetCached returns the stored snapshot without any provider call.
func (s *Service) GetCached(ctx context.Context, ticker string) (*models.Snapshot, error) {
	normalized, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.Get(ctx, normalized)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", normalized, err)
	}
	return snapshot, nil
}

// ListCached returns all stored snapshots.
func (s *Service) ListCached(ctx context.Context) ([]*models.Snapshot, error) {
	return s.store.List(ctx)
}

// refresh fetches fresh data for a ticker, deduplicating concurrent
// requests for the same ticker onto one provider round-trip.
func (s *Service) refresh(ctx context.Context, ticker string) (*models.Snapshot, error) {
	s.mu.Lock()
	if call, ok := s.pending[ticker]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.snapshot, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflight{done: make(chan struct{})}
	s.pending[ticker] = call
	s.mu.Unlock()

	call.snapshot, call.err = s.fetch(ctx, ticker)

	s.mu.Lock()
	delete(s.pending, ticker)
	s.mu.Unlock()
	close(call.done)

	return call.snapshot, call.err
}

// fetch performs the full provider round-trip for one ticker: quote,
// fundamentals, and all historical windows, then computes metrics and
// writes the snapshot back to the store.
func (s *Service) fetch(ctx context.Context, ticker string) (*models.Snapshot, error) {
	s.logger.Info().Str("ticker", ticker).Msg("Refreshing snapshot")

	quote, err := s.client.GetQuote(ctx, ticker)
	if err != nil {
		// Provider miss: serve the last cached value if one exists
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Quote fetch failed, falling back to cache")
		cached, cacheErr := s.store.Get(ctx, ticker)
		if cacheErr == nil {
			return cached, nil
		}
		if errors.Is(cacheErr, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load fallback snapshot for %s: %w", ticker, cacheErr)
	}

	var (
		wg           sync.WaitGroup
		seriesMu     sync.Mutex
		series       = make(map[models.Window][]models.Bar)
		fundamentals *models.Fundamentals
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		f, err := s.client.GetFundamentals(ctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Fundamentals fetch failed")
			return
		}
		fundamentals = f
	}()

	for _, window := range models.Windows() {
		wg.Add(1)
		go func(w models.Window) {
			defer wg.Done()
			bars, err := s.client.GetHistory(ctx, ticker, w)
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Str("window", string(w)).Msg("History fetch failed")
				return
			}
			seriesMu.Lock()
			series[w] = bars
			seriesMu.Unlock()
		}(window)
	}

	wg.Wait()

	snapshot := &models.Snapshot{
		Ticker:       ticker,
		CompanyName:  quote.Name,
		Sector:       quote.Sector,
		CurrentPrice: &quote.Price,
		MarketCap:    quote.MarketCap,
		Metrics:      metrics.Compute(quote.Price, series),
		LastUpdated:  s.now(),
	}
	if fundamentals != nil {
		snapshot.Fundamentals = *fundamentals
	}

	if err := s.store.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot for %s: %w", ticker, err)
	}

	s.logger.Debug().Str("ticker", ticker).Msg("Snapshot refreshed")
	return snapshot, nil
}

// Ensure Service implements SnapshotService
var _ interfaces.SnapshotService = (*Service)(nil)
