package snapshot

import (
	"context"
	"sync"

	"github.com/bobmcallan/marketpulse/internal/models"
)

// RefreshMany refreshes a list of tickers under the pacing rules of the
// given mode. Batched mode runs fixed-size concurrent batches with a
// pause between batches; sequential mode runs one ticker at a time with
// a fixed delay. Failed tickers are counted, not returned.
func (s *Service) RefreshMany(ctx context.Context, tickers []string, force bool, mode models.RefreshMode) (*models.RefreshResult, error) {
	start := s.now()

	var result *models.RefreshResult
	var err error

	switch mode {
	case models.RefreshModeSequential:
		result, err = s.refreshSequential(ctx, tickers, force)
	default:
		result, err = s.refreshBatched(ctx, tickers, force)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = s.now().Sub(start)

	s.logger.Info().
		Str("mode", string(result.Mode)).
		Int("requested", len(tickers)).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Dur("duration", result.Duration).
		Msg("Multi-ticker refresh complete")

	return result, nil
}

// refreshBatched fetches tickers in concurrent batches, pausing between
// batches to stay under provider rate limits.
func (s *Service) refreshBatched(ctx context.Context, tickers []string, force bool) (*models.RefreshResult, error) {
	batchSize := s.config.GetBatchSize()
	batchDelay := s.config.GetBatchDelay()

	result := &models.RefreshResult{Mode: models.RefreshModeBatched}

	for offset := 0; offset < len(tickers); offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := offset + batchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[offset:end]

		var wg sync.WaitGroup
		var mu sync.Mutex

		for _, ticker := range batch {
			wg.Add(1)
			go func(t string) {
				defer wg.Done()
				snap, err := s.GetOrRefresh(ctx, t, force)
				mu.Lock()
				defer mu.Unlock()
				if err != nil || snap == nil {
					result.FailedCount++
					return
				}
				result.SuccessCount++
				result.Snapshots = append(result.Snapshots, snap)
			}(ticker)
		}
		wg.Wait()

		// Pause between batches, not after the last one
		if end < len(tickers) {
			s.sleep(batchDelay)
		}
	}

	return result, nil
}

// refreshSequential fetches tickers one at a time with a fixed delay
// between each, for background jobs where latency does not matter.
func (s *Service) refreshSequential(ctx context.Context, tickers []string, force bool) (*models.RefreshResult, error) {
	tickerDelay := s.config.GetTickerDelay()

	result := &models.RefreshResult{Mode: models.RefreshModeSequential}

	for i, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := s.GetOrRefresh(ctx, ticker, force)
		if err != nil || snap == nil {
			if err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Sequential refresh failed for ticker")
			}
			result.FailedCount++
		} else {
			result.SuccessCount++
			result.Snapshots = append(result.Snapshots, snap)
		}

		if i < len(tickers)-1 {
			s.sleep(tickerDelay)
		}
	}

	return result, nil
}
