package contracts

import (
	"sort"
	"time"

	"github.com/guregu/null/v5"
)

// DateLayout is the calendar-date key used for joining series.
const DateLayout = "2006-01-02"

// DateKey returns the calendar date of t in UTC as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// PriceBar is one trading day for one ticker.
// Cells missing or non-numeric at the source are invalid (null) values.
type PriceBar struct {
	Date   time.Time  `json:"date"`
	Open   null.Float `json:"open"`
	Close  null.Float `json:"close"`
	Volume null.Float `json:"volume"`
}

// Complete reports whether the bar has usable open and close prices.
// close가 0이면 수익률 계산이 불가능하므로 불완전으로 본다.
func (b PriceBar) Complete() bool {
	return b.Open.Valid && b.Close.Valid && b.Close.Float64 != 0
}

// PriceSeries is an ordered daily series for one ticker.
// ⭐ SSOT: Normalize 이후 최신 → 과거 순서, 날짜 중복 없음
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	Source string     `json:"source,omitempty"`
	Bars   []PriceBar `json:"bars"`
}

// Normalize sorts bars most-recent-first and drops duplicate dates, keeping the first seen.
func (s *PriceSeries) Normalize() {
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.After(s.Bars[j].Date)
	})

	seen := make(map[string]struct{}, len(s.Bars))
	out := s.Bars[:0]
	for _, bar := range s.Bars {
		key := DateKey(bar.Date)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, bar)
	}
	s.Bars = out
}

// CompleteBars returns the bars with valid open and close, in series order.
func (s *PriceSeries) CompleteBars() []PriceBar {
	out := make([]PriceBar, 0, len(s.Bars))
	for _, bar := range s.Bars {
		if bar.Complete() {
			out = append(out, bar)
		}
	}
	return out
}

// IsDegenerate reports a series with no usable bar at all.
func (s *PriceSeries) IsDegenerate() bool {
	if s == nil {
		return true
	}
	for _, bar := range s.Bars {
		if bar.Complete() {
			return false
		}
	}
	return true
}
