package returns

import (
	"fmt"

	"github.com/wonny/pullback/internal/contracts"
)

// Bars passed to the window functions are complete and ordered most-recent-first.
// Position 0 is the latest bar.

func checkWindow(bars []contracts.PriceBar, window int) error {
	if window < 1 {
		return fmt.Errorf("recent window %d: %w", window, contracts.ErrInsufficientHistory)
	}
	if len(bars) < window+1 {
		return fmt.Errorf("%d bars for window %d: %w", len(bars), window, contracts.ErrInsufficientHistory)
	}
	return nil
}

// HistoricalReturn measures from the open of the oldest bar to the close at position window,
// i.e. the lookback up to the start of the recent window.
func HistoricalReturn(bars []contracts.PriceBar, window int) (float64, error) {
	if err := checkWindow(bars, window); err != nil {
		return 0, err
	}
	open := bars[len(bars)-1].Open.Float64
	close := bars[window].Close.Float64
	return Rate(open, close), nil
}

// RecentReturn measures from the open at position window-1 to the latest close.
func RecentReturn(bars []contracts.PriceBar, window int) (float64, error) {
	if err := checkWindow(bars, window); err != nil {
		return 0, err
	}
	open := bars[window-1].Open.Float64
	close := bars[0].Close.Float64
	return Rate(open, close), nil
}

// FilterByPairs keeps only bars whose date appears in pairs, preserving bar order.
func FilterByPairs(bars []contracts.PriceBar, pairs []contracts.AlignedPair) []contracts.PriceBar {
	keep := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		keep[contracts.DateKey(p.Date)] = struct{}{}
	}

	out := make([]contracts.PriceBar, 0, len(pairs))
	for _, bar := range bars {
		if _, ok := keep[contracts.DateKey(bar.Date)]; ok {
			out = append(out, bar)
		}
	}
	return out
}
