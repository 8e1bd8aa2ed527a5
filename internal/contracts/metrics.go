package contracts

// MetricRecord holds the per-ticker statistics produced by a screening run.
// ⭐ SSOT: 스크리닝 결과 레코드
type MetricRecord struct {
	Ticker           string  `json:"ticker"`
	Beta             float64 `json:"beta"`
	HistoricalReturn float64 `json:"historical_return"`
	RecentReturn     float64 `json:"recent_return"`
	Mean             float64 `json:"mean"`
	Stdev            float64 `json:"stdev"`
	Flag             bool    `json:"flag"`
	Score            float64 `json:"score"`
	Rank             int     `json:"rank,omitempty"`
	Bars             int     `json:"bars"` // complete bars used
}
