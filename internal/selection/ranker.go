package selection

import (
	"sort"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

// ScoreWeights are the coefficients of the linear ranking score.
// Score = beta·Beta + hist·HistoricalReturn − recent·RecentReturn − stdev·Stdev + mean·Mean
// The defaults are a hand-fit preference model, not a fitted predictor.
type ScoreWeights struct {
	Beta             float64 `json:"beta" yaml:"beta"`
	HistoricalReturn float64 `json:"historical_return" yaml:"historical_return"`
	RecentReturn     float64 `json:"recent_return" yaml:"recent_return"`
	Stdev            float64 `json:"stdev" yaml:"stdev"`
	Mean             float64 `json:"mean" yaml:"mean"`
}

// DefaultScoreWeights returns the baseline coefficients.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Beta:             2.50,
		HistoricalReturn: 0.09,
		RecentReturn:     0.30,
		Stdev:            0.78,
		Mean:             1.15,
	}
}

// Score computes the linear score of one record.
// 최근 하락폭(음수)이 클수록, 변동성이 낮을수록 점수가 높다.
func (w ScoreWeights) Score(rec *contracts.MetricRecord) float64 {
	return rec.Beta*w.Beta +
		rec.HistoricalReturn*w.HistoricalReturn -
		rec.RecentReturn*w.RecentReturn -
		rec.Stdev*w.Stdev +
		rec.Mean*w.Mean
}

// Ranker orders screened records by score
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct {
	weights ScoreWeights
	logger  *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(weights ScoreWeights, logger *logger.Logger) *Ranker {
	return &Ranker{
		weights: weights,
		logger:  logger,
	}
}

// Rank scores records and sorts them by descending score.
// The sort is stable: equal scores keep their input (universe) order.
func (r *Ranker) Rank(records []contracts.MetricRecord) []contracts.MetricRecord {
	ranked := make([]contracts.MetricRecord, len(records))
	copy(ranked, records)

	for i := range ranked {
		ranked[i].Score = r.weights.Score(&ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total_stocks": len(ranked),
			"top_score":    ranked[0].Score,
			"top_ticker":   ranked[0].Ticker,
		}).Info("Ranking completed")
	}

	return ranked
}
