// Package models defines data structures for marketpulse
package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTicker is returned when a ticker symbol fails validation.
var ErrInvalidTicker = errors.New("invalid ticker symbol")

// Window identifies a trailing historical period used for derived metrics.
type Window string

const (
	Window7D  Window = "7d"
	Window1Mo Window = "1mo"
	Window3Mo Window = "3mo"
	Window6Mo Window = "6mo"
	Window1Y  Window = "1y"
)

// Windows returns all historical windows fetched on a refresh, shortest first.
func Windows() []Window {
	return []Window{Window7D, Window1Mo, Window3Mo, Window6Mo, Window1Y}
}

// Start returns the beginning of the window relative to now.
func (w Window) Start(now time.Time) time.Time {
	switch w {
	case Window7D:
		return now.AddDate(0, 0, -7)
	case Window1Mo:
		return now.AddDate(0, -1, 0)
	case Window3Mo:
		return now.AddDate(0, -3, 0)
	case Window6Mo:
		return now.AddDate(0, -6, 0)
	case Window1Y:
		return now.AddDate(-1, 0, 0)
	}
	return now
}

// Bar represents a single day's price data from the historical endpoint.
// Series are ordered ascending by date (oldest first).
type Bar struct {
	Date  time.Time `json:"date"`
	High  float64   `json:"high"`
	Close float64   `json:"close"`
}

// Quote holds a live quote from the provider.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector,omitempty"`
	Price     float64 `json:"price"`
	MarketCap *int64  `json:"market_cap,omitempty"`
}

// Fundamentals holds the extended financial figures for a ticker.
// Pointer fields distinguish "provider did not supply" from zero.
type Fundamentals struct {
	PE              *float64   `json:"pe,omitempty"`
	PEG             *float64   `json:"peg,omitempty"`
	EPS             *float64   `json:"eps,omitempty"`
	DividendYield   *float64   `json:"dividend_yield,omitempty"`
	ROE             *float64   `json:"roe,omitempty"`
	NetMargin       *float64   `json:"net_margin,omitempty"`
	OperatingMargin *float64   `json:"operating_margin,omitempty"`
	Cash            *float64   `json:"cash,omitempty"`
	TotalDebt       *float64   `json:"total_debt,omitempty"`
	TargetPrice     *float64   `json:"target_price,omitempty"`
	EarningsDate    *time.Time `json:"earnings_date,omitempty"`
	ExDividendDate  *time.Time `json:"ex_dividend_date,omitempty"`
	Recommendation  string     `json:"recommendation,omitempty"`
}

// Metrics holds the derived fields computed from historical series.
// Nil means the metric is undefined for this refresh (series empty or
// first close unavailable), never zero.
type Metrics struct {
	High30D   *float64 `json:"high_30d,omitempty"`
	High3Mo   *float64 `json:"high_3mo,omitempty"`
	High6Mo   *float64 `json:"high_6mo,omitempty"`
	High1Yr   *float64 `json:"high_1yr,omitempty"`
	Change7D  *float64 `json:"change_7d,omitempty"`
	Change30D *float64 `json:"change_30d,omitempty"`
	Change90D *float64 `json:"change_90d,omitempty"`
	Change1Y  *float64 `json:"change_1y,omitempty"`
}

// Snapshot is the cached, derived record of one ticker's current price and
// computed metrics. Ticker is the natural key, always stored uppercase.
type Snapshot struct {
	Ticker      string `json:"ticker" badgerhold:"key"`
	CompanyName string `json:"company_name,omitempty"`
	Sector      string `json:"sector,omitempty"`

	CurrentPrice *float64 `json:"current_price,omitempty"`
	MarketCap    *int64   `json:"market_cap,omitempty"`

	Metrics

	Fundamentals

	LastUpdated time.Time `json:"last_updated"`
}

// Stale reports whether the snapshot must be refreshed as of now.
// A snapshot is stale when it has never been fetched, when any required
// fundamental is missing (forces re-fetch after schema additions), or
// when it is older than maxAge.
func (s *Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if s == nil || s.LastUpdated.IsZero() {
		return true
	}
	if s.MissingFundamentals() {
		return true
	}
	return now.Sub(s.LastUpdated) > maxAge
}

// MissingFundamentals reports whether any required fundamental field is unset.
func (s *Snapshot) MissingFundamentals() bool {
	if s.PE == nil || s.PEG == nil || s.EPS == nil || s.DividendYield == nil ||
		s.ROE == nil || s.NetMargin == nil || s.OperatingMargin == nil ||
		s.Cash == nil || s.TotalDebt == nil || s.TargetPrice == nil {
		return true
	}
	return s.EarningsDate == nil || s.ExDividendDate == nil
}

// NormalizeTicker canonicalizes a ticker symbol to uppercase and validates it.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" || len(t) > 12 {
		return "", ErrInvalidTicker
	}
	for _, r := range t {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '^' || r == '=':
		default:
			return "", ErrInvalidTicker
		}
	}
	return t, nil
}

// Float64 returns a pointer to v. Helper for optional metric fields.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
