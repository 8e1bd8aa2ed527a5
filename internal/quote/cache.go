package quote

import (
	"context"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
	"github.com/wonny/pullback/pkg/redis"
)

// CachedProvider serves repeated requests for the same range from Redis.
type CachedProvider struct {
	inner  contracts.QuoteProvider
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedProvider wraps inner with a read-through cache. A disabled Redis client makes it a pass-through.
func NewCachedProvider(inner contracts.QuoteProvider, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

// Fetch returns the cached series or fetches and stores it.
func (p *CachedProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	key := redis.QuoteKey(p.inner.Name(), ticker, start, end)

	var cached contracts.PriceSeries
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Quote cache read failed")
	}
	if found {
		return &cached, nil
	}

	series, err := p.inner.Fetch(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if !series.IsDegenerate() {
		if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
			p.logger.WithError(err).WithField("key", key).Warn("Quote cache write failed")
		}
	}
	return series, nil
}
