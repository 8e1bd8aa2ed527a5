package contracts

import (
	"sort"
	"time"
)

// RunParams are the audit parameters of one screening run.
type RunParams struct {
	Benchmark    string    `json:"benchmark"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	RecentWindow int       `json:"recent_window"`
}

// RunResult is the outcome of one screening run.
// ⭐ SSOT: 실행 단위 결과 (전역 누적 없음)
type RunResult struct {
	RunID     string            `json:"run_id"`
	Params    RunParams         `json:"params"`
	Ranked    []MetricRecord    `json:"ranked"`
	Skipped   map[string]string `json:"skipped"` // ticker → reason
	Failed    map[string]string `json:"failed"`  // ticker → fetch error
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
}

// SkippedTickers returns skipped tickers in sorted order.
func (r *RunResult) SkippedTickers() []string {
	return sortedKeys(r.Skipped)
}

// FailedTickers returns tickers whose retrieval failed, in sorted order.
func (r *RunResult) FailedTickers() []string {
	return sortedKeys(r.Failed)
}

// Top returns at most n ranked records.
func (r *RunResult) Top(n int) []MetricRecord {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
