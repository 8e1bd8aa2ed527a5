package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

// ChartPoint is one day of a normalized price line.
type ChartPoint struct {
	Date      time.Time `json:"date"`
	Percent   float64   `json:"percent"` // close as % of the base close
	HoverText string    `json:"hover_text"`
}

// ChartSeries is a price line rebased to 100 at the first bar on or after the window start.
type ChartSeries struct {
	Ticker   string       `json:"ticker"`
	BaseDate time.Time    `json:"base_date"`
	Points   []ChartPoint `json:"points"`
}

// NormalizeSeries rebases closes in [start, end] to percent of the first close on or after start.
// Points are ordered oldest first.
func NormalizeSeries(series *contracts.PriceSeries, start, end time.Time) (ChartSeries, error) {
	bars := make([]contracts.PriceBar, 0, len(series.Bars))
	for _, bar := range series.Bars {
		if !bar.Close.Valid || bar.Close.Float64 == 0 {
			continue
		}
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return ChartSeries{}, fmt.Errorf("%s: no closes between %s and %s",
			series.Ticker, start.Format(contracts.DateLayout), end.Format(contracts.DateLayout))
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	baseClose := bars[0].Close.Float64
	out := ChartSeries{
		Ticker:   series.Ticker,
		BaseDate: bars[0].Date,
		Points:   make([]ChartPoint, 0, len(bars)),
	}
	for _, bar := range bars {
		out.Points = append(out.Points, ChartPoint{
			Date:      bar.Date,
			Percent:   100 * bar.Close.Float64 / baseClose,
			HoverText: hoverText(bar),
		})
	}
	return out, nil
}

func hoverText(bar contracts.PriceBar) string {
	parts := make([]string, 0, 3)
	if bar.Volume.Valid {
		parts = append(parts, fmt.Sprintf("Volume: %.0f", bar.Volume.Float64))
	}
	if bar.Open.Valid {
		parts = append(parts, fmt.Sprintf("Open: $%.2f", bar.Open.Float64))
	}
	parts = append(parts, fmt.Sprintf("Close: $%.2f", bar.Close.Float64))
	return strings.Join(parts, ",\n")
}

// AxisBounds returns the y-axis range covering every point, floored/ceiled to multiples of 5.
// The range always contains 100, the common base of all lines.
func AxisBounds(charts []ChartSeries) (float64, float64) {
	lo, hi := 100.0, 100.0
	for _, c := range charts {
		for _, p := range c.Points {
			lo = math.Min(lo, p.Percent)
			hi = math.Max(hi, p.Percent)
		}
	}
	return math.Floor(lo/5) * 5, math.Ceil(hi/5) * 5
}

// BuildCharts fetches and normalizes the given tickers. Tickers whose data could not be
// retrieved are returned in blocked, in input order.
func BuildCharts(ctx context.Context, quotes contracts.QuoteProvider, tickers []string, start, end time.Time, log *logger.Logger) ([]ChartSeries, []string) {
	charts := make([]ChartSeries, 0, len(tickers))
	blocked := make([]string, 0)

	for _, ticker := range tickers {
		series, err := quotes.Fetch(ctx, ticker, start, end)
		if err == nil {
			var chart ChartSeries
			chart, err = NormalizeSeries(series, start, end)
			if err == nil {
				charts = append(charts, chart)
				continue
			}
		}
		log.WithError(err).WithField("ticker", ticker).Warn("Chart data unavailable")
		blocked = append(blocked, ticker)
	}
	return charts, blocked
}

// BlockedMessage is the operator notice for recommended tickers whose chart data was blocked.
// Empty when nothing was blocked.
func BlockedMessage(tickers []string) string {
	if len(tickers) == 0 {
		return ""
	}
	return "The following stocks would be recommended, but data retrieval was blocked for: " +
		strings.Join(tickers, ", ")
}
