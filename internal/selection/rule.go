package selection

import (
	"fmt"
	"strings"

	"github.com/wonny/pullback/internal/contracts"
)

// Metric names a field of MetricRecord that a rule can test.
type Metric int

const (
	MetricBeta Metric = iota
	MetricHistoricalReturn
	MetricRecentReturn
	MetricStdev
	MetricMean
)

var metricNames = map[Metric]string{
	MetricBeta:             "beta",
	MetricHistoricalReturn: "historical_return",
	MetricRecentReturn:     "recent_return",
	MetricStdev:            "stdev",
	MetricMean:             "mean",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric resolves a metric name as written in strategy files.
func ParseMetric(name string) (Metric, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for m, n := range metricNames {
		if n == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// Value reads the metric from a record.
func (m Metric) Value(rec *contracts.MetricRecord) float64 {
	switch m {
	case MetricBeta:
		return rec.Beta
	case MetricHistoricalReturn:
		return rec.HistoricalReturn
	case MetricRecentReturn:
		return rec.RecentReturn
	case MetricStdev:
		return rec.Stdev
	case MetricMean:
		return rec.Mean
	default:
		panic(fmt.Sprintf("selection: unhandled metric %d", int(m)))
	}
}

// Predicate is a closed set of comparisons: LessThan or GreaterThan.
type Predicate interface {
	isPredicate()
	String() string
}

// LessThan passes values strictly below the threshold.
type LessThan float64

// GreaterThan passes values strictly above the threshold.
type GreaterThan float64

func (LessThan) isPredicate()    {}
func (GreaterThan) isPredicate() {}

func (p LessThan) String() string    { return fmt.Sprintf("< %g", float64(p)) }
func (p GreaterThan) String() string { return fmt.Sprintf("> %g", float64(p)) }

// ParsePredicate builds a predicate from an operator token ("<", "lt", ">", "gt").
func ParsePredicate(op string, value float64) (Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "<", "lt":
		return LessThan(value), nil
	case ">", "gt":
		return GreaterThan(value), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

func holds(p Predicate, v float64) bool {
	switch p := p.(type) {
	case LessThan:
		return v < float64(p)
	case GreaterThan:
		return v > float64(p)
	default:
		panic(fmt.Sprintf("selection: unhandled predicate %T", p))
	}
}

// Rule is a single threshold test on one metric.
type Rule struct {
	Metric    Metric
	Predicate Predicate
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s", r.Metric, r.Predicate)
}

// Passes evaluates the rule against a record.
func (r Rule) Passes(rec *contracts.MetricRecord) bool {
	return holds(r.Predicate, r.Metric.Value(rec))
}

// RuleSet is a named conjunction of rules.
// ⭐ SSOT: 스크리닝 조건은 RuleSet으로만 표현
type RuleSet struct {
	Name  string
	Rules []Rule
}

// Evaluate returns true when every rule passes.
// Otherwise it returns the first failing rule; later rules are not evaluated.
func (rs RuleSet) Evaluate(rec *contracts.MetricRecord) (bool, *Rule) {
	for i := range rs.Rules {
		if !rs.Rules[i].Passes(rec) {
			return false, &rs.Rules[i]
		}
	}
	return true, nil
}

// DefaultRuleSet is the baseline pullback screen: low beta, positive drift,
// a recent dip, and calm day-to-day volatility.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Name: "pullback_default",
		Rules: []Rule{
			{Metric: MetricBeta, Predicate: LessThan(1)},
			{Metric: MetricHistoricalReturn, Predicate: GreaterThan(-5)},
			{Metric: MetricRecentReturn, Predicate: LessThan(-5)},
			{Metric: MetricStdev, Predicate: LessThan(2.5)},
			{Metric: MetricMean, Predicate: GreaterThan(0.05)},
		},
	}
}
