// Package jobs holds the scheduler's concrete jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/report"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/pkg/logger"
)

// ScreeningJobName is the scheduler name of the screening job.
const ScreeningJobName = "screening"

// UniverseBuilder produces the ticker universe for a run.
type UniverseBuilder interface {
	Build(ctx context.Context) (*contracts.Universe, error)
}

// Runner executes one screening run.
type Runner interface {
	Run(ctx context.Context, universe *contracts.Universe, params contracts.RunParams) (*contracts.RunResult, error)
}

// ScreeningConfig parameterizes a ScreeningJob.
type ScreeningConfig struct {
	Schedule     string
	StrategyHash string
	Params       func(now time.Time) contracts.RunParams
	HistoryPath  string // optional CSV history file
}

// ScreeningJob builds the universe, runs the pipeline and publishes the result
// ⭐ SSOT: 정기 스크리닝은 이 Job에서만
type ScreeningJob struct {
	universe UniverseBuilder
	runner   Runner
	store    contracts.RunStore // nil: DB 미설정
	latest   *selection.LatestStore
	config   ScreeningConfig
	now      func() time.Time
	logger   *logger.Logger
}

// NewScreeningJob creates a screening job. store may be nil.
func NewScreeningJob(universe UniverseBuilder, runner Runner, store contracts.RunStore, latest *selection.LatestStore, config ScreeningConfig, log *logger.Logger) *ScreeningJob {
	return &ScreeningJob{
		universe: universe,
		runner:   runner,
		store:    store,
		latest:   latest,
		config:   config,
		now:      time.Now,
		logger:   log.WithField("job", ScreeningJobName),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return ScreeningJobName
}

// Schedule returns the configured cron expression
func (j *ScreeningJob) Schedule() string {
	return j.config.Schedule
}

// Run executes one screening pass.
func (j *ScreeningJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled screening")

	universe, err := j.universe.Build(ctx)
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	result, err := j.runner.Run(ctx, universe, j.config.Params(j.now()))
	if err != nil {
		return fmt.Errorf("run screening: %w", err)
	}

	// 최신 결과는 저장 실패와 무관하게 먼저 반영
	j.latest.Set(result)

	if j.store != nil {
		// 저장 실패로 재시도하면 전체 스크리닝이 다시 돈다: 로그만 남김
		if err := j.store.SaveRun(ctx, result, j.config.StrategyHash); err != nil {
			j.logger.WithError(err).WithField("run_id", result.RunID).Error("Failed to save run")
		}
	}

	if j.config.HistoryPath != "" {
		if err := report.AppendHistory(j.config.HistoryPath, result); err != nil {
			j.logger.WithError(err).Warn("Failed to append pick history")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"ranked":  len(result.Ranked),
		"skipped": len(result.Skipped),
		"failed":  len(result.Failed),
	}).Info("Screening completed")

	return nil
}
