package contracts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, open, close float64) PriceBar {
	return PriceBar{Date: day(d), Open: null.FloatFrom(open), Close: null.FloatFrom(close)}
}

func TestPriceSeries_Normalize(t *testing.T) {
	s := &PriceSeries{Ticker: "AAA", Bars: []PriceBar{
		bar(1, 10, 11),
		bar(3, 12, 13),
		bar(2, 11, 12),
		bar(3, 99, 99), // duplicate date
	}}

	s.Normalize()

	require.Len(t, s.Bars, 3)
	assert.Equal(t, day(3), s.Bars[0].Date)
	assert.Equal(t, 13.0, s.Bars[0].Close.Float64, "first seen duplicate wins")
	assert.Equal(t, day(2), s.Bars[1].Date)
	assert.Equal(t, day(1), s.Bars[2].Date)
}

func TestPriceBar_Complete(t *testing.T) {
	tests := []struct {
		name string
		bar  PriceBar
		want bool
	}{
		{"complete", bar(1, 10, 11), true},
		{"missing open", PriceBar{Date: day(1), Close: null.FloatFrom(10)}, false},
		{"missing close", PriceBar{Date: day(1), Open: null.FloatFrom(10)}, false},
		{"zero close", bar(1, 10, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bar.Complete())
		})
	}
}

func TestPriceSeries_IsDegenerate(t *testing.T) {
	var nilSeries *PriceSeries
	assert.True(t, nilSeries.IsDegenerate())
	assert.True(t, (&PriceSeries{Bars: []PriceBar{{Date: day(1)}}}).IsDegenerate())
	assert.False(t, (&PriceSeries{Bars: []PriceBar{bar(1, 1, 2)}}).IsDegenerate())
}

func TestNewUniverse_DedupesInOrder(t *testing.T) {
	u := NewUniverse("MSFT", "AAPL", "MSFT", "", "GOOG")
	assert.Equal(t, []string{"MSFT", "AAPL", "GOOG"}, u.Tickers)
	assert.True(t, u.Contains("AAPL"))
	assert.Equal(t, 3, u.Count())
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, ReasonInsufficientHistory, SkipReason(fmt.Errorf("window: %w", ErrInsufficientHistory)))
	assert.Equal(t, ReasonNoOverlap, SkipReason(ErrNoOverlap))
	assert.Equal(t, ReasonDegenerateRegression, SkipReason(ErrDegenerateRegression))
	assert.Empty(t, SkipReason(errors.New("other")))
}

func TestFetchError_UnwrapsAttempts(t *testing.T) {
	err := &FetchError{Ticker: "AAA", Attempts: []ProviderAttempt{
		{Provider: "yahoo", Err: context.DeadlineExceeded},
		{Provider: "stooq", Err: ErrEmptySeries},
	}}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrEmptySeries)
	assert.Contains(t, err.Error(), "yahoo")
	assert.Contains(t, err.Error(), "stooq")
}

func TestRunResult_SortedLists(t *testing.T) {
	r := &RunResult{
		Skipped: map[string]string{"ZZZ": "x", "AAA": "y"},
		Failed:  map[string]string{"MMM": "boom"},
		Ranked:  []MetricRecord{{Ticker: "A"}, {Ticker: "B"}, {Ticker: "C"}},
	}
	assert.Equal(t, []string{"AAA", "ZZZ"}, r.SkippedTickers())
	assert.Equal(t, []string{"MMM"}, r.FailedTickers())
	assert.Len(t, r.Top(2), 2)
	assert.Len(t, r.Top(0), 3)
}
