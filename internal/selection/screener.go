package selection

import (
	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

// Screener applies a RuleSet to metric records
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	rules  RuleSet
	logger *logger.Logger
}

// NewScreener creates a new screener
func NewScreener(rules RuleSet, logger *logger.Logger) *Screener {
	return &Screener{
		rules:  rules,
		logger: logger,
	}
}

// Screen sets Flag on every record and splits them into passing records (input order kept)
// and rejections keyed by ticker with a "screened_out:<metric>" reason.
func (s *Screener) Screen(records []contracts.MetricRecord) ([]contracts.MetricRecord, map[string]string) {
	passed := make([]contracts.MetricRecord, 0, len(records))
	rejected := make(map[string]string)
	filtered := make(map[string]int) // metric -> count

	for i := range records {
		rec := &records[i]
		ok, failing := s.rules.Evaluate(rec)
		rec.Flag = ok
		if ok {
			passed = append(passed, *rec)
			continue
		}
		name := failing.Metric.String()
		rejected[rec.Ticker] = contracts.ReasonScreenedOutPrefix + name
		filtered[name]++
	}

	s.logger.WithFields(map[string]interface{}{
		"rule_set":     s.rules.Name,
		"total_input":  len(records),
		"passed":       len(passed),
		"filtered_out": len(records) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return passed, rejected
}
