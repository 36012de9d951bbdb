// Package metrics computes derived price metrics from historical bar series.
package metrics

import (
	"github.com/bobmcallan/marketpulse/internal/models"
)

// Compute derives period highs and percentage changes from the given
// window series. Changes compare the current price against the first
// close of each window. Series are expected ascending by date (oldest
// first). Metrics whose inputs are unavailable stay nil rather than
// zero, so a missing series never reads as a 0% change downstream.
func Compute(currentPrice float64, series map[models.Window][]models.Bar) models.Metrics {
	return models.Metrics{
		High30D:   periodHigh(series[models.Window1Mo]),
		High3Mo:   periodHigh(series[models.Window3Mo]),
		High6Mo:   periodHigh(series[models.Window6Mo]),
		High1Yr:   periodHigh(series[models.Window1Y]),
		Change7D:  percentChange(currentPrice, series[models.Window7D]),
		Change30D: percentChange(currentPrice, series[models.Window1Mo]),
		Change90D: percentChange(currentPrice, series[models.Window3Mo]),
		Change1Y:  percentChange(currentPrice, series[models.Window1Y]),
	}
}

// periodHigh returns the maximum daily high over the series, or nil for
// an empty series.
func periodHigh(bars []models.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	high := bars[0].High
	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}
	}
	return &high
}

// percentChange returns (current - first close) / first close * 100.
// An empty series or a zero first close yields nil.
func percentChange(currentPrice float64, bars []models.Bar) *float64 {
	if len(bars) == 0 {
		return nil
	}
	first := bars[0].Close
	if first == 0 {
		return nil
	}
	change := (currentPrice - first) / first * 100
	return &change
}
