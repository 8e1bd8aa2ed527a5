package risk

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/pullback/internal/contracts"
)

// =============================================================================
// Beta
// =============================================================================

// Beta is the least-squares slope of ticker returns on benchmark returns.
// Needs at least two pairs and non-constant benchmark returns.
func Beta(pairs []contracts.AlignedPair) (float64, error) {
	if len(pairs) < 2 {
		return 0, fmt.Errorf("beta over %d pairs: %w", len(pairs), contracts.ErrInsufficientHistory)
	}

	x := make([]float64, len(pairs))
	y := make([]float64, len(pairs))
	for i, p := range pairs {
		x[i] = p.Benchmark
		y[i] = p.Ticker
	}

	// 벤치마크 분산이 0이면 기울기가 정의되지 않음
	if stat.Variance(x, nil) == 0 {
		return 0, contracts.ErrDegenerateRegression
	}

	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta, nil
}

// =============================================================================
// Summary statistics
// =============================================================================

// Summary is the mean and sample standard deviation of daily returns, in percent.
type Summary struct {
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
}

// SummaryStats drops the excludeMostRecent latest returns (by date) and summarizes the rest.
// At least two returns must remain.
func SummaryStats(returns []contracts.ReturnBar, excludeMostRecent int) (Summary, error) {
	sorted := make([]contracts.ReturnBar, len(returns))
	copy(sorted, returns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	if excludeMostRecent > 0 {
		if excludeMostRecent >= len(sorted) {
			sorted = nil
		} else {
			sorted = sorted[excludeMostRecent:]
		}
	}

	if len(sorted) < 2 {
		return Summary{}, fmt.Errorf("summary over %d returns: %w", len(sorted), contracts.ErrInsufficientHistory)
	}

	values := make([]float64, len(sorted))
	for i, r := range sorted {
		values[i] = r.Return
	}

	mean, std := stat.MeanStdDev(values, nil)
	return Summary{Mean: mean, Stdev: std}, nil
}
