package strategyconfig

import "time"

// Config는 스크리닝 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Data      Data      `yaml:"data" json:"data"`
	Screening Screening `yaml:"screening" json:"screening"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Universe 스크리닝 대상 종목 풀
type Universe struct {
	Sources         []Source `yaml:"sources" json:"sources"`
	MaxTickers      int      `yaml:"max_tickers" json:"max_tickers"`
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"`
}

// Source is a CSV symbol list, local path or URL.
type Source struct {
	Location     string `yaml:"location" json:"location"`
	SymbolColumn string `yaml:"symbol_column" json:"symbol_column"`
}

// Data 시세 조회 및 윈도우 설정
type Data struct {
	Benchmark    string        `yaml:"benchmark" json:"benchmark"`
	HistoryDays  int           `yaml:"history_days" json:"history_days"`   // 달력 기준 조회 기간
	RecentWindow int           `yaml:"recent_window" json:"recent_window"` // 최근 구간 (거래일 수)
	MinHistory   string        `yaml:"min_history" json:"min_history"`     // double | lenient
	WindowSource string        `yaml:"window_source" json:"window_source"` // aligned | raw
	Providers    []string      `yaml:"providers" json:"providers"`         // 우선순위 순서
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
}

// Screening 스크리닝 규칙
type Screening struct {
	RuleSet string     `yaml:"rule_set" json:"rule_set"`
	Rules   []RuleSpec `yaml:"rules" json:"rules"`
}

// RuleSpec is a rule as written in YAML: metric, operator ("<", ">", "lt", "gt") and threshold.
type RuleSpec struct {
	Metric string  `yaml:"metric" json:"metric"`
	Op     string  `yaml:"op" json:"op"`
	Value  float64 `yaml:"value" json:"value"`
}

// Ranking 점수 가중치
type Ranking struct {
	Weights Weights `yaml:"weights" json:"weights"`
	TopN    int     `yaml:"top_n" json:"top_n"`
}

// Weights are the linear score coefficients. Recent return and stdev are subtracted.
type Weights struct {
	Beta             float64 `yaml:"beta" json:"beta"`
	HistoricalReturn float64 `yaml:"historical_return" json:"historical_return"`
	RecentReturn     float64 `yaml:"recent_return" json:"recent_return"`
	Stdev            float64 `yaml:"stdev" json:"stdev"`
	Mean             float64 `yaml:"mean" json:"mean"`
}

// Default returns the baseline strategy. Fields absent from a YAML file keep these values.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "pullback_default",
			Version:    "1",
		},
		Universe: Universe{
			MaxTickers: 7000,
		},
		Data: Data{
			Benchmark:    "^GSPC",
			HistoryDays:  240,
			RecentWindow: 3,
			MinHistory:   "double",
			WindowSource: "aligned",
			Providers:    []string{"yahoo", "stooq", "html"},
			FetchTimeout: 5 * time.Second,
			Concurrency:  8,
		},
		Screening: Screening{
			RuleSet: "pullback_default",
			Rules: []RuleSpec{
				{Metric: "beta", Op: "<", Value: 1},
				{Metric: "historical_return", Op: ">", Value: -5},
				{Metric: "recent_return", Op: "<", Value: -5},
				{Metric: "stdev", Op: "<", Value: 2.5},
				{Metric: "mean", Op: ">", Value: 0.05},
			},
		},
		Ranking: Ranking{
			Weights: Weights{
				Beta:             2.50,
				HistoricalReturn: 0.09,
				RecentReturn:     0.30,
				Stdev:            0.78,
				Mean:             1.15,
			},
			TopN: 5,
		},
	}
}
