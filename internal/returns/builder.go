// Package returns turns daily price bars into intraday returns and window returns.
package returns

import (
	"github.com/wonny/pullback/internal/contracts"
)

// Rate is the percentage move from open to close, measured against close.
// ⭐ SSOT: 수익률 정의는 여기서만
func Rate(open, close float64) float64 {
	return 100 * (close - open) / close
}

// Build derives one ReturnBar per complete bar, preserving input order.
// Bars with a missing open or close (or close == 0) produce no return.
func Build(series *contracts.PriceSeries) []contracts.ReturnBar {
	if series == nil {
		return nil
	}

	out := make([]contracts.ReturnBar, 0, len(series.Bars))
	for _, bar := range series.Bars {
		if !bar.Complete() {
			continue
		}
		out = append(out, contracts.ReturnBar{
			Date:   bar.Date,
			Return: Rate(bar.Open.Float64, bar.Close.Float64),
		})
	}
	return out
}
