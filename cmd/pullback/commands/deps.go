package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/pipeline"
	"github.com/wonny/pullback/internal/quote"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/internal/strategyconfig"
	"github.com/wonny/pullback/internal/universe"
	"github.com/wonny/pullback/pkg/config"
	"github.com/wonny/pullback/pkg/database"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
	"github.com/wonny/pullback/pkg/redis"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	strategy     *strategyconfig.Config
	strategyHash string

	redis    *redis.Client
	db       *database.DB          // nil: DB 미설정
	repo     *selection.Repository // nil: DB 미설정
	quotes   *quote.Chain
	pipeline *pipeline.Pipeline
	universe *universe.Builder
}

// appOptions override strategy values from CLI flags.
type appOptions struct {
	tickers []string // 고정 종목 리스트 (universe 소스 대신)
	mutate  func(s *strategyconfig.Config)
}

// newApp loads configuration and wires every component
// 순서: config → logger → strategy → redis → db → quotes → selection → pipeline → universe
func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.LogFormat = "console"
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", cfg.StrategyFile, err)
	}
	if opts.mutate != nil {
		opts.mutate(strategy)
		if err := strategyconfig.Validate(strategy); err != nil {
			return nil, err
		}
	}
	a.strategy = strategy
	if a.strategyHash, err = strategyconfig.Hash(strategy); err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"version":  strategy.Meta.Version,
		"hash":     a.strategyHash[:12],
	}).Info("Strategy loaded")

	// Redis (optional quote cache)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without quote cache")
		a.redis = redis.Disabled()
	}
	var cache *redis.Cache
	if a.redis.Enabled() {
		cache = redis.NewCache(a.redis, "pullback")
	}

	// PostgreSQL (optional run history)
	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		a.repo = selection.NewRepository(db.Pool)
		log.Info("Connected to database")
	}

	a.quotes, err = quote.NewChainFromConfig(strategy.Data.Providers, cfg.Quotes, cache, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	rules, err := strategy.RuleSet()
	if err != nil {
		a.Close()
		return nil, err
	}
	screener := selection.NewScreener(rules, log)
	ranker := selection.NewRanker(strategy.ScoreWeights(), log)
	a.pipeline = pipeline.New(a.quotes, screener, ranker, strategy.PipelineOptions(), log)

	a.universe, err = universe.NewBuilder(a.universeSource(opts.tickers), strategy.UniverseConfig(), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) universeSource(tickers []string) contracts.UniverseSource {
	if len(tickers) > 0 {
		return universe.StaticSource(tickers)
	}

	return a.strategy.UniverseSource(httputil.New(a.log, a.cfg.Quotes.HTTPTimeout))
}

// runStore returns the repository as a RunStore, or nil without a database.
func (a *app) runStore() contracts.RunStore {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

// Close releases connections.
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}

// splitTickers parses a comma separated ticker flag.
func splitTickers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
