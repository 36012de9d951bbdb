package analytics

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// SectorChart renders the sector performance ranking as a PNG bar chart
// of average 30-day change per sector.
func (s *Service) SectorChart(ctx context.Context, universe []string) ([]byte, error) {
	sectors, err := s.SectorPerformance(ctx, universe)
	if err != nil {
		return nil, err
	}
	if len(sectors) == 0 {
		return nil, fmt.Errorf("no sector data to chart")
	}

	bars := make([]chart.Value, 0, len(sectors))
	for _, sector := range sectors {
		if sector.AvgChange30D == nil {
			continue
		}
		value := *sector.AvgChange30D
		bar := chart.Value{
			Label: sector.Sector,
			Value: value,
			Style: chart.Style{
				FillColor:   barColor(value),
				StrokeColor: barColor(value),
			},
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no sector has a defined 30-day change")
	}

	graph := chart.BarChart{
		Title:    "Sector Performance (30d avg change %)",
		Width:    1024,
		Height:   512,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render sector chart: %w", err)
	}
	return buf.Bytes(), nil
}

// barColor maps gains to green and losses to red.
func barColor(value float64) drawing.Color {
	if value < 0 {
		return drawing.Color{R: 192, G: 57, B: 43, A: 255}
	}
	return drawing.Color{R: 39, G: 174, B: 96, A: 255}
}
