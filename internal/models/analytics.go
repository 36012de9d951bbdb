package models

import (
	"errors"
	"time"
)

// ErrInvalidTimeframe is returned when a pullback timeframe fails validation.
var ErrInvalidTimeframe = errors.New("invalid timeframe")

// Timeframe selects which rolling high the pullback screen compares against.
type Timeframe string

const (
	Timeframe3Mo Timeframe = "3mo"
	Timeframe6Mo Timeframe = "6mo"
	Timeframe1Yr Timeframe = "1yr"
)

// ParseTimeframe validates a timeframe argument. Empty defaults to 6mo.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return Timeframe6Mo, nil
	case Timeframe3Mo, Timeframe6Mo, Timeframe1Yr:
		return Timeframe(s), nil
	}
	return "", ErrInvalidTimeframe
}

// RefreshMode selects the pacing strategy for multi-ticker refreshes.
type RefreshMode string

const (
	// RefreshModeBatched runs fixed-size concurrent batches with a pause
	// between batches. Lower latency; used for interactive reads.
	RefreshModeBatched RefreshMode = "batched"

	// RefreshModeSequential runs one ticker at a time with a fixed delay
	// between each. Lower peak request rate; used for full-universe jobs.
	RefreshModeSequential RefreshMode = "sequential"
)

// RefreshResult is the outcome of a multi-ticker refresh. Snapshots contains
// only tickers that produced data; failures are counted, not listed.
type RefreshResult struct {
	Snapshots    []*Snapshot   `json:"snapshots"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Mode         RefreshMode   `json:"mode"`
	Duration     time.Duration `json:"duration"`
}

// SectorTopStock is one of the best performers within a sector.
type SectorTopStock struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	Change30D   float64 `json:"change_30d"`
}

// SectorPerformance aggregates snapshot changes for one sector.
// Average fields are nil when no snapshot in the sector defines the
// underlying change; snapshots with an undefined change are excluded
// from both sum and count.
type SectorPerformance struct {
	Sector       string           `json:"sector"`
	StockCount   int              `json:"stock_count"`
	AvgChange7D  *float64         `json:"avg_change_7d,omitempty"`
	AvgChange30D *float64         `json:"avg_change_30d,omitempty"`
	AvgChange90D *float64         `json:"avg_change_90d,omitempty"`
	TopStocks    []SectorTopStock `json:"top_stocks"`
}

// DeepPullback is a snapshot trading at least 50% below its rolling high.
type DeepPullback struct {
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	CurrentPrice    float64   `json:"current_price"`
	High            float64   `json:"high"`
	PercentFromHigh float64   `json:"percent_from_high"`
	MarketCap       int64     `json:"market_cap"`
	Timeframe       Timeframe `json:"timeframe"`
}

// IPOPerformance approximates since-IPO performance for a recently listed
// ticker. True IPO prices are not tracked; the 90-day change is the proxy.
type IPOPerformance struct {
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	CurrentPrice  float64 `json:"current_price"`
	PercentChange float64 `json:"percent_change"`
	MarketCap     *int64  `json:"market_cap,omitempty"`
}
