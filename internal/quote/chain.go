package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

// Chain tries providers in priority order and returns the first usable series.
// ⭐ SSOT: 시세 소스 우선순위/대체 로직은 여기서만
type Chain struct {
	providers      []contracts.QuoteProvider
	attemptTimeout time.Duration // 0: 상위 deadline만 분할
	logger         *logger.Logger
}

// NewChain creates a fallback chain. Order is priority.
func NewChain(log *logger.Logger, providers ...contracts.QuoteProvider) *Chain {
	return &Chain{
		providers: providers,
		logger:    log.WithField("module", "quote_chain"),
	}
}

func (c *Chain) Name() string { return "chain" }

// WithAttemptTimeout caps each provider attempt at d, whether or not the caller set a deadline.
func (c *Chain) WithAttemptTimeout(d time.Duration) *Chain {
	c.attemptTimeout = d
	return c
}

// attemptContext bounds one provider attempt. With a caller deadline, the remaining time is split
// evenly over the providers not yet tried, so a hung provider cannot starve the ones after it.
func (c *Chain) attemptContext(ctx context.Context, remaining int) (context.Context, context.CancelFunc) {
	budget := c.attemptTimeout
	if deadline, ok := ctx.Deadline(); ok {
		share := time.Until(deadline) / time.Duration(remaining)
		if budget <= 0 || share < budget {
			budget = share
		}
	}
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}

// Providers returns the configured providers in priority order.
func (c *Chain) Providers() []contracts.QuoteProvider {
	return c.providers
}

// Fetch returns the first series that has at least one complete bar.
// A provider error or an empty/degenerate series counts as a failed attempt.
// When every provider fails the error is a *contracts.FetchError.
func (c *Chain) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	fetchErr := &contracts.FetchError{Ticker: ticker}

	for i, p := range c.providers {
		actx, cancel := c.attemptContext(ctx, len(c.providers)-i)
		series, err := p.Fetch(actx, ticker, start, end)
		cancel()
		if err == nil && series.IsDegenerate() {
			err = contracts.ErrEmptySeries
		}
		if err != nil {
			fetchErr.Attempts = append(fetchErr.Attempts, contracts.ProviderAttempt{Provider: p.Name(), Err: err})
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"ticker":   ticker,
				"provider": p.Name(),
			}).Debug("Provider failed, trying next")

			// 전체 예산 소진 시에만 중단 (개별 시도 timeout은 다음 provider로)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		series.Ticker = ticker
		if series.Source == "" {
			series.Source = p.Name()
		}
		series.Normalize()
		return series, nil
	}

	if len(fetchErr.Attempts) == 0 {
		fetchErr.Attempts = append(fetchErr.Attempts, contracts.ProviderAttempt{
			Provider: "none",
			Err:      fmt.Errorf("no providers configured"),
		})
	}
	return nil, fetchErr
}
