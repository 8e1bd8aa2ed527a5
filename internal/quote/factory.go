package quote

import (
	"fmt"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/config"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
	"github.com/wonny/pullback/pkg/redis"
)

// Provider names accepted in strategy files.
const (
	ProviderYahoo = "yahoo"
	ProviderStooq = "stooq"
	ProviderHTML  = "html"
)

// KnownProvider reports whether name is a supported provider.
func KnownProvider(name string) bool {
	switch name {
	case ProviderYahoo, ProviderStooq, ProviderHTML:
		return true
	}
	return false
}

// NewChainFromConfig builds the fallback chain in the given order.
// Each provider gets its own rate-limited HTTP client; cache may be nil.
// One attempt never runs longer than the HTTP timeout.
func NewChainFromConfig(names []string, cfg config.QuoteConfig, cache *redis.Cache, log *logger.Logger) (*Chain, error) {
	providers := make([]contracts.QuoteProvider, 0, len(names))
	for _, name := range names {
		client := httputil.New(log, cfg.HTTPTimeout).WithRateLimit(cfg.RequestsPerSecond, 1)

		var p contracts.QuoteProvider
		switch name {
		case ProviderYahoo:
			p = NewYahooProvider(cfg.YahooBaseURL, client, log)
		case ProviderStooq:
			p = NewStooqProvider(cfg.StooqBaseURL, client, log)
		case ProviderHTML:
			p = NewHTMLProvider(cfg.HTMLBaseURL, client, log)
		default:
			return nil, fmt.Errorf("unknown quote provider %q", name)
		}

		if cache != nil {
			p = NewCachedProvider(p, cache, cfg.CacheTTL, log)
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one quote provider is required")
	}
	return NewChain(log, providers...).WithAttemptTimeout(cfg.HTTPTimeout), nil
}
