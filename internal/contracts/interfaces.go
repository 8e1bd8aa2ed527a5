package contracts

import (
	"context"
	"time"
)

// QuoteProvider returns daily bars for a ticker over [start, end]
// ⭐ SSOT: 시세 조회 인터페이스
type QuoteProvider interface {
	Name() string
	Fetch(ctx context.Context, ticker string, start, end time.Time) (*PriceSeries, error)
}

// UniverseSource supplies raw ticker symbols before filtering.
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// RunStore persists screening runs.
type RunStore interface {
	SaveRun(ctx context.Context, result *RunResult, strategyHash string) error
}
