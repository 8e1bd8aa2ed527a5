package contracts

import "time"

// Universe is the ordered, de-duplicated ticker list for one run
// ⭐ SSOT: 스크리닝 대상 종목 전달
type Universe struct {
	Date       time.Time         `json:"date"`
	Tickers    []string          `json:"tickers"`
	Excluded   map[string]string `json:"excluded,omitempty"` // 제외 종목: 사유
	TotalCount int               `json:"total_count,omitempty"`
}

// NewUniverse builds a universe from an explicit list, dropping duplicates but keeping order.
func NewUniverse(tickers ...string) *Universe {
	u := &Universe{
		Date:     time.Now(),
		Excluded: make(map[string]string),
	}
	seen := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		u.Tickers = append(u.Tickers, t)
	}
	u.TotalCount = len(tickers)
	return u
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// IsExcluded checks if a ticker was excluded and why
func (u *Universe) IsExcluded(ticker string) (bool, string) {
	reason, exists := u.Excluded[ticker]
	return exists, reason
}

// Count returns the number of tickers to screen
func (u *Universe) Count() int {
	return len(u.Tickers)
}
