package strategyconfig

import (
	"fmt"
	"regexp"

	"github.com/wonny/pullback/internal/quote"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Universe ===
	if cfg.Universe.MaxTickers < 0 {
		return ValidationError{"universe.max_tickers", "must be >= 0"}
	}
	for i, src := range cfg.Universe.Sources {
		if src.Location == "" {
			return ValidationError{fmt.Sprintf("universe.sources[%d].location", i), "required"}
		}
	}
	for i, p := range cfg.Universe.ExcludePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return ValidationError{fmt.Sprintf("universe.exclude_patterns[%d]", i), err.Error()}
		}
	}

	// === Data ===
	d := cfg.Data
	if d.Benchmark == "" {
		return ValidationError{"data.benchmark", "required"}
	}
	if d.RecentWindow < 1 {
		return ValidationError{"data.recent_window", "must be >= 1"}
	}
	// 최근 구간 + 통계 구간이 확보되어야 함
	if d.HistoryDays <= d.RecentWindow {
		return ValidationError{"data.history_days", fmt.Sprintf("must exceed recent_window=%d", d.RecentWindow)}
	}
	if d.MinHistory != "double" && d.MinHistory != "lenient" {
		return ValidationError{"data.min_history", "must be double or lenient"}
	}
	if d.WindowSource != "aligned" && d.WindowSource != "raw" {
		return ValidationError{"data.window_source", "must be aligned or raw"}
	}
	if len(d.Providers) == 0 {
		return ValidationError{"data.providers", "required"}
	}
	seen := make(map[string]bool)
	for i, p := range d.Providers {
		if !quote.KnownProvider(p) {
			return ValidationError{fmt.Sprintf("data.providers[%d]", i), fmt.Sprintf("unknown provider %q", p)}
		}
		if seen[p] {
			return ValidationError{fmt.Sprintf("data.providers[%d]", i), fmt.Sprintf("duplicate provider %q", p)}
		}
		seen[p] = true
	}
	if d.FetchTimeout <= 0 {
		return ValidationError{"data.fetch_timeout", "must be > 0"}
	}
	if d.Concurrency < 1 {
		return ValidationError{"data.concurrency", "must be >= 1"}
	}

	// === Screening ===
	if len(cfg.Screening.Rules) == 0 {
		return ValidationError{"screening.rules", "at least one rule is required"}
	}
	if _, err := cfg.RuleSet(); err != nil {
		return err
	}

	// === Ranking ===
	if cfg.Ranking.TopN < 0 {
		return ValidationError{"ranking.top_n", "must be >= 0"}
	}

	return nil
}
