package contracts

import "time"

// ReturnBar is the intraday percentage return of one bar.
// Return = 100 × (close − open) / close
type ReturnBar struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// AlignedPair joins a ticker return and a benchmark return on the same calendar date.
type AlignedPair struct {
	Date      time.Time `json:"date"`
	Ticker    float64   `json:"ticker"`
	Benchmark float64   `json:"benchmark"`
}
