package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

func passingRecord(ticker string) contracts.MetricRecord {
	return contracts.MetricRecord{
		Ticker:           ticker,
		Beta:             0.8,
		HistoricalReturn: 5,
		RecentReturn:     -6,
		Stdev:            1.2,
		Mean:             0.1,
	}
}

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		op      string
		want    Predicate
		wantErr bool
	}{
		{"<", LessThan(1), false},
		{"lt", LessThan(1), false},
		{">", GreaterThan(1), false},
		{"GT", GreaterThan(1), false},
		{"<=", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := ParsePredicate(tt.op, 1)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" Historical_Return ")
	require.NoError(t, err)
	assert.Equal(t, MetricHistoricalReturn, m)

	_, err = ParseMetric("alpha")
	assert.Error(t, err)
}

func TestRule_StrictComparison(t *testing.T) {
	rec := contracts.MetricRecord{Beta: 1}
	assert.False(t, Rule{MetricBeta, LessThan(1)}.Passes(&rec))
	assert.False(t, Rule{MetricBeta, GreaterThan(1)}.Passes(&rec))
	assert.True(t, Rule{MetricBeta, LessThan(1.01)}.Passes(&rec))
}

func TestRuleSet_EvaluateShortCircuits(t *testing.T) {
	rec := passingRecord("AAA")
	rec.RecentReturn = 2
	rec.Stdev = 9

	ok, failing := DefaultRuleSet().Evaluate(&rec)

	assert.False(t, ok)
	require.NotNil(t, failing)
	assert.Equal(t, MetricRecentReturn, failing.Metric, "first failing rule is reported")
}

func TestRuleSet_TighteningIsMonotonic(t *testing.T) {
	records := []contracts.MetricRecord{
		passingRecord("A"),
		{Ticker: "B", Beta: 0.95, HistoricalReturn: 0, RecentReturn: -5.5, Stdev: 2.4, Mean: 0.06},
		{Ticker: "C", Beta: 0.2, HistoricalReturn: 20, RecentReturn: -10, Stdev: 0.5, Mean: 0.3},
	}

	loose := DefaultRuleSet()
	tight := DefaultRuleSet()
	tight.Rules[0].Predicate = LessThan(0.5)
	tight.Rules[3].Predicate = LessThan(1.0)

	for _, rec := range records {
		rec := rec
		tightOK, _ := tight.Evaluate(&rec)
		looseOK, _ := loose.Evaluate(&rec)
		if tightOK {
			assert.True(t, looseOK, "%s passes the tight set but not the loose one", rec.Ticker)
		}
	}
}

func TestScreener_Screen(t *testing.T) {
	records := []contracts.MetricRecord{
		passingRecord("AAA"),
		{Ticker: "FLAT"},
		passingRecord("BBB"),
	}

	passed, rejected := NewScreener(DefaultRuleSet(), logger.Nop()).Screen(records)

	require.Len(t, passed, 2)
	assert.Equal(t, "AAA", passed[0].Ticker)
	assert.Equal(t, "BBB", passed[1].Ticker)
	assert.True(t, passed[0].Flag)
	assert.False(t, records[1].Flag)
	assert.Equal(t, map[string]string{"FLAT": "screened_out:historical_return"}, rejected)
}

func TestScoreWeights_Score(t *testing.T) {
	rec := contracts.MetricRecord{Beta: 0.8, HistoricalReturn: 5, RecentReturn: -3, Stdev: 1.2, Mean: 0.1}
	assert.InDelta(t, 2.529, DefaultScoreWeights().Score(&rec), 1e-9)
}

func TestRanker_RankStableDescending(t *testing.T) {
	low := passingRecord("LOW")
	low.Beta = 0.1
	records := []contracts.MetricRecord{
		passingRecord("TIE1"),
		low,
		passingRecord("TIE2"),
	}

	ranked := NewRanker(DefaultScoreWeights(), logger.Nop()).Rank(records)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"TIE1", "TIE2", "LOW"}, []string{ranked[0].Ticker, ranked[1].Ticker, ranked[2].Ticker})
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.Equal(t, ranked[0].Score, ranked[1].Score)
	assert.Zero(t, records[0].Score, "input is not mutated")
}

func TestRanker_Empty(t *testing.T) {
	assert.Empty(t, NewRanker(DefaultScoreWeights(), logger.Nop()).Rank(nil))
}

func TestLatestStore(t *testing.T) {
	store := NewLatestStore()

	_, ok := store.Get()
	assert.False(t, ok)

	first := &contracts.RunResult{RunID: "a"}
	second := &contracts.RunResult{RunID: "b"}
	store.Set(first)
	store.Set(second)

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "b", got.RunID)
}
