// Package interfaces defines service contracts for marketpulse
package interfaces

import (
	"context"

	"github.com/bobmcallan/marketpulse/internal/models"
)

// QuoteClient provides access to the upstream market-data provider.
// All calls may fail or time out; callers treat an error as "metric
// unavailable", never as fatal.
type QuoteClient interface {
	// GetQuote retrieves the current quote for a ticker
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)

	// GetFundamentals retrieves extended financial figures for a ticker
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)

	// GetHistory retrieves the daily bar series covering the trailing
	// window, ordered ascending by date (oldest first)
	GetHistory(ctx context.Context, ticker string, window models.Window) ([]models.Bar, error)
}
