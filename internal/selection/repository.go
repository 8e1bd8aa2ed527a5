package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pullback/internal/contracts"
)

// ErrRunNotFound is returned when no stored run matches the query.
var ErrRunNotFound = errors.New("screening run not found")

// Repository persists screening runs
// ⭐ SSOT: 스크리닝 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RunSummary is one row of screening.runs.
type RunSummary struct {
	RunID        string              `json:"run_id"`
	Params       contracts.RunParams `json:"params"`
	StrategyHash string              `json:"strategy_hash"`
	RankedCount  int                 `json:"ranked_count"`
	SkippedCount int                 `json:"skipped_count"`
	FailedCount  int                 `json:"failed_count"`
	StartedAt    time.Time           `json:"started_at"`
	Duration     time.Duration       `json:"duration"`
}

// SaveRun stores a run with its ranked records and exclusions in one transaction.
func (r *Repository) SaveRun(ctx context.Context, result *contracts.RunResult, strategyHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO screening.runs (
			run_id, benchmark, start_date, end_date, recent_window, strategy_hash,
			ranked_count, skipped_count, failed_count, started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		result.RunID, result.Params.Benchmark, result.Params.Start, result.Params.End,
		result.Params.RecentWindow, strategyHash,
		len(result.Ranked), len(result.Skipped), len(result.Failed),
		result.StartedAt, result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, rec := range result.Ranked {
		batch.Queue(`
			INSERT INTO screening.ranked (
				run_id, rank, ticker, beta, historical_return, recent_return,
				mean_return, stdev, score
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			result.RunID, rec.Rank, rec.Ticker, rec.Beta, rec.HistoricalReturn,
			rec.RecentReturn, rec.Mean, rec.Stdev, rec.Score,
		)
	}
	queueExcluded(batch, result.RunID, "skipped", result.Skipped)
	queueExcluded(batch, result.RunID, "failed", result.Failed)

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert run details: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func queueExcluded(batch *pgx.Batch, runID, kind string, reasons map[string]string) {
	for ticker, reason := range reasons {
		batch.Queue(`
			INSERT INTO screening.excluded (run_id, ticker, kind, reason)
			VALUES ($1, $2, $3, $4)`,
			runID, ticker, kind, reason,
		)
	}
}

const runColumns = `
	run_id, benchmark, start_date, end_date, recent_window, strategy_hash,
	ranked_count, skipped_count, failed_count, started_at, duration_ms`

func scanRun(row pgx.Row) (*RunSummary, error) {
	var s RunSummary
	var durationMs int64
	err := row.Scan(
		&s.RunID, &s.Params.Benchmark, &s.Params.Start, &s.Params.End, &s.Params.RecentWindow,
		&s.StrategyHash, &s.RankedCount, &s.SkippedCount, &s.FailedCount, &s.StartedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}
	s.Duration = time.Duration(durationMs) * time.Millisecond
	return &s, nil
}

// LatestRun returns the most recently started run.
func (r *Repository) LatestRun(ctx context.Context) (*RunSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM screening.runs ORDER BY started_at DESC LIMIT 1`)
	s, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return s, nil
}

// GetRun returns one run's summary.
func (r *Repository) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM screening.runs WHERE run_id = $1`, runID)
	s, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return s, nil
}

// ListRuns returns up to limit runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM screening.runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return runs, nil
}

// GetRanked returns the ranked records of a run ordered by rank.
func (r *Repository) GetRanked(ctx context.Context, runID string, limit int) ([]contracts.MetricRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker, rank, beta, historical_return, recent_return, mean_return, stdev, score
		FROM screening.ranked
		WHERE run_id = $1
		ORDER BY rank ASC
		LIMIT $2`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked records: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.MetricRecord, 0)
	for rows.Next() {
		var rec contracts.MetricRecord
		if err := rows.Scan(
			&rec.Ticker, &rec.Rank, &rec.Beta, &rec.HistoricalReturn,
			&rec.RecentReturn, &rec.Mean, &rec.Stdev, &rec.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Flag = true
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}
