package returns

import (
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pullback/internal/contracts"
)

var base = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

func bar(i int, open, close float64) contracts.PriceBar {
	return contracts.PriceBar{
		Date:  base.AddDate(0, 0, -i),
		Open:  null.FloatFrom(open),
		Close: null.FloatFrom(close),
	}
}

func TestRate(t *testing.T) {
	assert.InDelta(t, 10.0, Rate(90, 100), 1e-12)
	assert.InDelta(t, -25.0, Rate(100, 80), 1e-12)
	assert.Equal(t, 0.0, Rate(50, 50))
}

func TestBuild_DropsIncompleteBars(t *testing.T) {
	series := &contracts.PriceSeries{Ticker: "AAA", Bars: []contracts.PriceBar{
		bar(0, 90, 100),
		{Date: base.AddDate(0, 0, -1), Open: null.FloatFrom(10)},
		bar(2, 100, 80),
		bar(3, 10, 0),
	}}

	got := Build(series)

	require.Len(t, got, 2)
	assert.Equal(t, base, got[0].Date)
	assert.InDelta(t, 10.0, got[0].Return, 1e-12)
	assert.InDelta(t, -25.0, got[1].Return, 1e-12)
}

func TestBuild_Idempotent(t *testing.T) {
	series := &contracts.PriceSeries{Bars: []contracts.PriceBar{bar(0, 1, 2), bar(1, 2, 3)}}
	assert.Equal(t, Build(series), Build(series))
	assert.Nil(t, Build(nil))
}

func TestBuild_FlatSeriesIsZero(t *testing.T) {
	series := &contracts.PriceSeries{}
	for i := 0; i < 10; i++ {
		series.Bars = append(series.Bars, bar(i, 50, 50))
	}
	for _, r := range Build(series) {
		assert.Equal(t, 0.0, r.Return)
	}
}

func TestWindowReturns(t *testing.T) {
	// closes 110 (latest) .. 100 (oldest), open = close - 1
	closes := []float64{110, 108, 106, 104, 102, 100}
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = bar(i, c-1, c)
	}

	hist, err := HistoricalReturn(bars, 2)
	require.NoError(t, err)
	assert.InDelta(t, Rate(99, 106), hist, 1e-12)

	recent, err := RecentReturn(bars, 2)
	require.NoError(t, err)
	assert.InDelta(t, Rate(107, 110), recent, 1e-12)
}

func TestWindowReturns_InsufficientHistory(t *testing.T) {
	bars := []contracts.PriceBar{bar(0, 1, 2), bar(1, 1, 2), bar(2, 1, 2)}

	tests := []struct {
		name   string
		window int
	}{
		{"window equals length", 3},
		{"window beyond length", 10},
		{"zero window", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HistoricalReturn(bars, tt.window)
			assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
			_, err = RecentReturn(bars, tt.window)
			assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
		})
	}

	_, err := RecentReturn(bars, 2)
	assert.NoError(t, err, "len == window+1 is enough")
}

func TestFilterByPairs(t *testing.T) {
	bars := []contracts.PriceBar{bar(0, 1, 2), bar(1, 1, 2), bar(2, 1, 2)}
	pairs := []contracts.AlignedPair{{Date: bars[2].Date}, {Date: bars[0].Date}}

	got := FilterByPairs(bars, pairs)

	require.Len(t, got, 2)
	assert.Equal(t, bars[0].Date, got[0].Date)
	assert.Equal(t, bars[2].Date, got[1].Date)
}
