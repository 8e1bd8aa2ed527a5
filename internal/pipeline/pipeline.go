// Package pipeline runs a screening pass over a ticker universe.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/returns"
	"github.com/wonny/pullback/internal/risk"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/pkg/logger"
)

// MinHistory selects how many complete bars a ticker needs before it is scored.
type MinHistory string

const (
	MinHistoryDouble  MinHistory = "double"  // 2 × recent_window
	MinHistoryLenient MinHistory = "lenient" // recent_window + 5
)

// WindowSource selects which bars the historical/recent window returns are read from.
type WindowSource string

const (
	WindowAligned WindowSource = "aligned" // bars whose date also has a benchmark bar
	WindowRaw     WindowSource = "raw"     // every complete bar of the ticker
)

// Options tune a Pipeline.
type Options struct {
	Concurrency  int
	FetchTimeout time.Duration
	MinHistory   MinHistory
	WindowSource WindowSource
}

// DefaultOptions returns the baseline options.
func DefaultOptions() Options {
	return Options{
		Concurrency:  8,
		FetchTimeout: 5 * time.Second,
		MinHistory:   MinHistoryDouble,
		WindowSource: WindowAligned,
	}
}

// Pipeline coordinates fetch → returns → alignment → stats → windows → screen → rank
// ⭐ SSOT: 스크리닝 파이프라인 조율은 여기서만
type Pipeline struct {
	quotes   contracts.QuoteProvider
	screener *selection.Screener
	ranker   *selection.Ranker
	opts     Options
	logger   *logger.Logger
}

// New creates a pipeline. Zero-valued options fall back to DefaultOptions.
func New(quotes contracts.QuoteProvider, screener *selection.Screener, ranker *selection.Ranker, opts Options, log *logger.Logger) *Pipeline {
	def := DefaultOptions()
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	if opts.MinHistory == "" {
		opts.MinHistory = def.MinHistory
	}
	if opts.WindowSource == "" {
		opts.WindowSource = def.WindowSource
	}

	return &Pipeline{
		quotes:   quotes,
		screener: screener,
		ranker:   ranker,
		opts:     opts,
		logger:   log.WithField("module", "pipeline"),
	}
}

// MinBars is the number of complete bars a ticker needs for the given recent window.
func (p *Pipeline) MinBars(window int) int {
	n := 2 * window
	if p.opts.MinHistory == MinHistoryLenient {
		n = window + 5
	}
	// 윈도우 수익률 계산에 최소 window+1개 필요
	if n < window+1 {
		n = window + 1
	}
	return n
}

// outcome is one worker-owned result slot.
type outcome struct {
	record *contracts.MetricRecord
	skip   string
	err    error
}

// Run screens every ticker of the universe and returns the ranked survivors.
// The only error returned is a parameter error or *contracts.BenchmarkFetchError;
// per-ticker problems are reported in RunResult.Skipped / RunResult.Failed.
func (p *Pipeline) Run(ctx context.Context, universe *contracts.Universe, params contracts.RunParams) (*contracts.RunResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	startTime := time.Now()
	result := &contracts.RunResult{
		RunID:     uuid.NewString(),
		Params:    params,
		Ranked:    make([]contracts.MetricRecord, 0),
		Skipped:   make(map[string]string),
		Failed:    make(map[string]string),
		StartedAt: startTime,
	}

	log := p.logger.WithField("run_id", result.RunID)
	log.WithFields(map[string]interface{}{
		"tickers":       universe.Count(),
		"benchmark":     params.Benchmark,
		"start":         params.Start.Format(contracts.DateLayout),
		"end":           params.End.Format(contracts.DateLayout),
		"recent_window": params.RecentWindow,
		"concurrency":   p.opts.Concurrency,
	}).Info("Starting screening run")

	// 1. 벤치마크는 한 번만 조회 (실패 시 전체 중단)
	benchReturns, err := p.fetchBenchmark(ctx, params)
	if err != nil {
		log.WithError(err).Error("Benchmark unavailable, aborting run")
		return nil, err
	}

	// 2. 종목별 처리 (worker pool, 슬롯별 결과 → 락 불필요)
	outcomes := p.processAll(ctx, universe.Tickers, benchReturns, params)

	// 3. universe 순서대로 병합
	records := make([]contracts.MetricRecord, 0, len(outcomes))
	for i, o := range outcomes {
		ticker := universe.Tickers[i]
		switch {
		case o.err != nil:
			result.Failed[ticker] = o.err.Error()
		case o.skip != "":
			result.Skipped[ticker] = o.skip
		case o.record != nil:
			records = append(records, *o.record)
		}
	}

	// 4. 필터 → 점수 → 정렬 (한 번만)
	passed, rejected := p.screener.Screen(records)
	for ticker, reason := range rejected {
		result.Skipped[ticker] = reason
	}
	result.Ranked = p.ranker.Rank(passed)
	result.Duration = time.Since(startTime)

	log.WithFields(map[string]interface{}{
		"ranked":   len(result.Ranked),
		"skipped":  len(result.Skipped),
		"failed":   len(result.Failed),
		"duration": result.Duration.String(),
	}).Info("Screening run completed")

	return result, nil
}

func validateParams(params contracts.RunParams) error {
	if params.Benchmark == "" {
		return fmt.Errorf("benchmark ticker is required")
	}
	if params.RecentWindow < 1 {
		return fmt.Errorf("recent window must be >= 1, got %d", params.RecentWindow)
	}
	if !params.Start.Before(params.End) {
		return fmt.Errorf("start %s must be before end %s",
			params.Start.Format(contracts.DateLayout), params.End.Format(contracts.DateLayout))
	}
	return nil
}

func (p *Pipeline) fetchBenchmark(ctx context.Context, params contracts.RunParams) ([]contracts.ReturnBar, error) {
	fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	series, err := p.quotes.Fetch(fctx, params.Benchmark, params.Start, params.End)
	if err == nil && series.IsDegenerate() {
		err = contracts.ErrEmptySeries
	}
	// 수익률 1개 이상 필요: 완전한 bar 2개 미만이면 fatal
	if err == nil {
		if n := len(series.CompleteBars()); n < 2 {
			err = fmt.Errorf("%d complete bars, need 2: %w", n, contracts.ErrInsufficientHistory)
		}
	}
	if err != nil {
		return nil, &contracts.BenchmarkFetchError{Ticker: params.Benchmark, Err: err}
	}

	series.Normalize()
	return returns.Build(series), nil
}

// processAll runs process for every ticker on a bounded worker pool.
// outcomes[i] belongs to tickers[i] and is written by exactly one goroutine.
func (p *Pipeline) processAll(ctx context.Context, tickers []string, bench []contracts.ReturnBar, params contracts.RunParams) []outcome {
	outcomes := make([]outcome, len(tickers))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes[idx] = outcome{err: err}
					continue
				}
				outcomes[idx] = p.process(ctx, tickers[idx], bench, params)
			}
		}()
	}

dispatch:
	for i := range tickers {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// 미배정 종목은 실패로 기록
			for j := i; j < len(tickers); j++ {
				outcomes[j] = outcome{err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// process computes the metric record for one ticker.
func (p *Pipeline) process(ctx context.Context, ticker string, bench []contracts.ReturnBar, params contracts.RunParams) outcome {
	window := params.RecentWindow

	fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	series, err := p.quotes.Fetch(fctx, ticker, params.Start, params.End)
	cancel()
	if err == nil && series.IsDegenerate() {
		err = fmt.Errorf("%s: %w", ticker, contracts.ErrEmptySeries)
	}
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Debug("Fetch failed")
		return outcome{err: err}
	}
	series.Normalize()

	bars := series.CompleteBars()
	if need := p.MinBars(window); len(bars) < need {
		return skipped(fmt.Errorf("%d complete bars, need %d: %w", len(bars), need, contracts.ErrInsufficientHistory))
	}

	pairs := risk.Align(returns.Build(series), bench)
	if len(pairs) == 0 {
		return skipped(contracts.ErrNoOverlap)
	}

	beta, err := risk.Beta(risk.ExcludeRecent(pairs, window))
	if err != nil {
		return skipped(err)
	}

	summary, err := risk.SummaryStats(risk.TickerReturns(pairs), window)
	if err != nil {
		return skipped(err)
	}

	windowBars := bars
	if p.opts.WindowSource == WindowAligned {
		windowBars = returns.FilterByPairs(bars, pairs)
	}

	hist, err := returns.HistoricalReturn(windowBars, window)
	if err != nil {
		return skipped(err)
	}
	recent, err := returns.RecentReturn(windowBars, window)
	if err != nil {
		return skipped(err)
	}

	return outcome{record: &contracts.MetricRecord{
		Ticker:           ticker,
		Beta:             beta,
		HistoricalReturn: hist,
		RecentReturn:     recent,
		Mean:             summary.Mean,
		Stdev:            summary.Stdev,
		Bars:             len(bars),
	}}
}

func skipped(err error) outcome {
	reason := contracts.SkipReason(err)
	if reason == "" {
		reason = err.Error()
	}
	return outcome{skip: reason}
}
