// Package risk is a pure calculator for benchmark-relative statistics.
// ⭐ SSOT: 데이터 수집/스크리닝 판단은 상위 레이어(pipeline)에서 조립
// internal/risk는 순수 계산만 담당
package risk

import (
	"sort"

	"github.com/wonny/pullback/internal/contracts"
)

// =============================================================================
// Alignment
// =============================================================================

// Align inner-joins two return series on calendar date.
// Output order follows a. Empty when the series share no dates.
func Align(a, b []contracts.ReturnBar) []contracts.AlignedPair {
	index := make(map[string]float64, len(b))
	for _, r := range b {
		key := contracts.DateKey(r.Date)
		if _, dup := index[key]; !dup {
			index[key] = r.Return
		}
	}

	out := make([]contracts.AlignedPair, 0, min(len(a), len(b)))
	for _, r := range a {
		bench, ok := index[contracts.DateKey(r.Date)]
		if !ok {
			continue
		}
		out = append(out, contracts.AlignedPair{
			Date:      r.Date,
			Ticker:    r.Return,
			Benchmark: bench,
		})
	}
	return out
}

// ExcludeRecent drops the n most recent pairs. The result is ordered most-recent-first.
func ExcludeRecent(pairs []contracts.AlignedPair, n int) []contracts.AlignedPair {
	sorted := make([]contracts.AlignedPair, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})

	if n <= 0 {
		return sorted
	}
	if n >= len(sorted) {
		return []contracts.AlignedPair{}
	}
	return sorted[n:]
}

// TickerReturns projects the ticker side of aligned pairs back to a return series.
func TickerReturns(pairs []contracts.AlignedPair) []contracts.ReturnBar {
	out := make([]contracts.ReturnBar, len(pairs))
	for i, p := range pairs {
		out[i] = contracts.ReturnBar{Date: p.Date, Return: p.Ticker}
	}
	return out
}
