// Package universe builds the ordered ticker list a screening run works through.
package universe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/logger"
)

// Config holds universe filter criteria
type Config struct {
	MaxTickers      int      `yaml:"max_tickers"`      // 0 = 제한 없음
	ExcludePatterns []string `yaml:"exclude_patterns"` // 제외 심볼 정규식 (우선주, 워런트 등)
}

// Builder constructs the screening universe
type Builder struct {
	source   contracts.UniverseSource
	config   Config
	excludes []*regexp.Regexp
	logger   *logger.Logger
}

// NewBuilder compiles exclusion patterns and creates a Builder.
func NewBuilder(source contracts.UniverseSource, config Config, log *logger.Logger) (*Builder, error) {
	excludes := make([]*regexp.Regexp, 0, len(config.ExcludePatterns))
	for _, p := range config.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		excludes = append(excludes, re)
	}

	return &Builder{
		source:   source,
		config:   config,
		excludes: excludes,
		logger:   log.WithField("module", "universe"),
	}, nil
}

// Build pulls symbols from the source, normalizes them, applies exclusions,
// de-duplicates keeping the first occurrence and finally truncates to MaxTickers.
// ⭐ SSOT: 유니버스 생성
func (b *Builder) Build(ctx context.Context) (*contracts.Universe, error) {
	symbols, err := b.source.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}

	universe := &contracts.Universe{
		Date:       time.Now(),
		Tickers:    make([]string, 0, len(symbols)),
		Excluded:   make(map[string]string),
		TotalCount: len(symbols),
	}

	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if ticker == "" {
			continue
		}
		if _, dup := seen[ticker]; dup {
			continue
		}
		seen[ticker] = struct{}{}

		if reason := b.checkExclusion(ticker); reason != "" {
			universe.Excluded[ticker] = reason
			continue
		}
		universe.Tickers = append(universe.Tickers, ticker)
	}

	if b.config.MaxTickers > 0 && len(universe.Tickers) > b.config.MaxTickers {
		universe.Tickers = universe.Tickers[:b.config.MaxTickers]
	}

	b.logger.WithFields(map[string]interface{}{
		"total":    universe.TotalCount,
		"selected": len(universe.Tickers),
		"excluded": len(universe.Excluded),
	}).Info("Universe built")

	return universe, nil
}

// checkExclusion returns the reason a ticker is excluded, or "".
func (b *Builder) checkExclusion(ticker string) string {
	for _, re := range b.excludes {
		if re.MatchString(ticker) {
			return fmt.Sprintf("excluded pattern (%s)", re.String())
		}
	}
	return ""
}
