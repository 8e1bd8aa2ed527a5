package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/pipeline"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/internal/universe"
	"github.com/wonny/pullback/pkg/httputil"
)

// Load reads a YAML strategy file on top of Default() and validates it.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML bytes on top of Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// RuleSet compiles the screening rules.
func (c *Config) RuleSet() (selection.RuleSet, error) {
	rs := selection.RuleSet{Name: c.Screening.RuleSet, Rules: make([]selection.Rule, 0, len(c.Screening.Rules))}
	for i, spec := range c.Screening.Rules {
		metric, err := selection.ParseMetric(spec.Metric)
		if err != nil {
			return selection.RuleSet{}, ValidationError{fmt.Sprintf("screening.rules[%d].metric", i), err.Error()}
		}
		pred, err := selection.ParsePredicate(spec.Op, spec.Value)
		if err != nil {
			return selection.RuleSet{}, ValidationError{fmt.Sprintf("screening.rules[%d].op", i), err.Error()}
		}
		rs.Rules = append(rs.Rules, selection.Rule{Metric: metric, Predicate: pred})
	}
	return rs, nil
}

// ScoreWeights converts the ranking weights.
func (c *Config) ScoreWeights() selection.ScoreWeights {
	w := c.Ranking.Weights
	return selection.ScoreWeights{
		Beta:             w.Beta,
		HistoricalReturn: w.HistoricalReturn,
		RecentReturn:     w.RecentReturn,
		Stdev:            w.Stdev,
		Mean:             w.Mean,
	}
}

// RunParams builds the run parameters for a run ending on now's calendar day.
func (c *Config) RunParams(now time.Time) contracts.RunParams {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return contracts.RunParams{
		Benchmark:    c.Data.Benchmark,
		Start:        end.AddDate(0, 0, -c.Data.HistoryDays),
		End:          end,
		RecentWindow: c.Data.RecentWindow,
	}
}

// PipelineOptions converts the data section into pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Concurrency:  c.Data.Concurrency,
		FetchTimeout: c.Data.FetchTimeout,
		MinHistory:   pipeline.MinHistory(c.Data.MinHistory),
		WindowSource: pipeline.WindowSource(c.Data.WindowSource),
	}
}

// UniverseSource concatenates the configured symbol lists in order.
// Local locations resolve against the working directory.
func (c *Config) UniverseSource(client *httputil.Client) universe.MultiSource {
	sources := make(universe.MultiSource, 0, len(c.Universe.Sources))
	for _, src := range c.Universe.Sources {
		sources = append(sources, universe.NewCSVSource(src.Location, src.SymbolColumn, client))
	}
	return sources
}

// UniverseConfig returns the universe filter criteria.
func (c *Config) UniverseConfig() universe.Config {
	return universe.Config{
		MaxTickers:      c.Universe.MaxTickers,
		ExcludePatterns: c.Universe.ExcludePatterns,
	}
}
