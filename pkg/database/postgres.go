package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pullback/pkg/config"
)

// DB wraps the pgxpool.Pool
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool
func New(ctx context.Context, cfg *config.Config) (*DB, error) {
	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks if the database is accessible
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus represents the health status of the database
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	Timestamp    time.Time     `json:"timestamp"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	TotalConns   int32         `json:"total_conns"`
	IdleConns    int32         `json:"idle_conns"`
}

// HealthCheck pings the pool and reports basic pool statistics
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{Timestamp: time.Now()}

	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	stats := db.Pool.Stat()
	status.TotalConns = stats.TotalConns()
	status.IdleConns = stats.IdleConns()
	status.Healthy = true
	return status, nil
}

// schema holds the run history tables. Statements are idempotent.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS screening`,
	`CREATE TABLE IF NOT EXISTS screening.runs (
		run_id        TEXT PRIMARY KEY,
		benchmark     TEXT NOT NULL,
		start_date    DATE NOT NULL,
		end_date      DATE NOT NULL,
		recent_window INT NOT NULL,
		strategy_hash TEXT NOT NULL DEFAULT '',
		ranked_count  INT NOT NULL,
		skipped_count INT NOT NULL,
		failed_count  INT NOT NULL,
		started_at    TIMESTAMPTZ NOT NULL,
		duration_ms   BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS screening.ranked (
		run_id            TEXT NOT NULL REFERENCES screening.runs(run_id) ON DELETE CASCADE,
		rank              INT NOT NULL,
		ticker            TEXT NOT NULL,
		beta              DOUBLE PRECISION NOT NULL,
		historical_return DOUBLE PRECISION NOT NULL,
		recent_return     DOUBLE PRECISION NOT NULL,
		mean_return       DOUBLE PRECISION NOT NULL,
		stdev             DOUBLE PRECISION NOT NULL,
		score             DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS screening.excluded (
		run_id TEXT NOT NULL REFERENCES screening.runs(run_id) ON DELETE CASCADE,
		ticker TEXT NOT NULL,
		kind   TEXT NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (run_id, ticker)
	)`,
}

// Migrate creates the run history schema if missing.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
