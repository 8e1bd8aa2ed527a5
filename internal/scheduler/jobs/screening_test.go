package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/pkg/logger"
)

type stubUniverse struct {
	universe *contracts.Universe
	err      error
}

func (s stubUniverse) Build(context.Context) (*contracts.Universe, error) {
	return s.universe, s.err
}

type stubRunner struct {
	got    contracts.RunParams
	result *contracts.RunResult
	err    error
}

func (s *stubRunner) Run(_ context.Context, _ *contracts.Universe, params contracts.RunParams) (*contracts.RunResult, error) {
	s.got = params
	return s.result, s.err
}

type stubStore struct {
	saved []string
	hash  string
	err   error
}

func (s *stubStore) SaveRun(_ context.Context, result *contracts.RunResult, hash string) error {
	s.saved = append(s.saved, result.RunID)
	s.hash = hash
	return s.err
}

var now = time.Date(2024, 6, 28, 17, 30, 0, 0, time.UTC)

func testConfig() ScreeningConfig {
	return ScreeningConfig{
		Schedule:     "0 30 17 * * MON-FRI",
		StrategyHash: "abc123",
		Params: func(t time.Time) contracts.RunParams {
			return contracts.RunParams{Benchmark: "^GSPC", End: t, Start: t.AddDate(0, 0, -240), RecentWindow: 3}
		},
	}
}

func newJob(runner Runner, store contracts.RunStore, latest *selection.LatestStore, cfg ScreeningConfig) *ScreeningJob {
	job := NewScreeningJob(stubUniverse{universe: contracts.NewUniverse("AAA")}, runner, store, latest, cfg, logger.Nop())
	job.now = func() time.Time { return now }
	return job
}

func TestScreeningJob_Run(t *testing.T) {
	result := &contracts.RunResult{
		RunID:  "run-1",
		Ranked: []contracts.MetricRecord{{Ticker: "AAA", Rank: 1}},
		Params: contracts.RunParams{Start: now, End: now, RecentWindow: 3},
	}
	runner := &stubRunner{result: result}
	store := &stubStore{}
	latest := selection.NewLatestStore()

	cfg := testConfig()
	cfg.HistoryPath = filepath.Join(t.TempDir(), "history.csv")
	job := newJob(runner, store, latest, cfg)

	assert.Equal(t, ScreeningJobName, job.Name())
	assert.Equal(t, "0 30 17 * * MON-FRI", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, now, runner.got.End)
	assert.Equal(t, []string{"run-1"}, store.saved)
	assert.Equal(t, "abc123", store.hash)

	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, "run-1", got.RunID)

	data, err := os.ReadFile(cfg.HistoryPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ticker,"))
	assert.Contains(t, string(data), "AAA,")
}

func TestScreeningJob_NoStore(t *testing.T) {
	runner := &stubRunner{result: &contracts.RunResult{RunID: "run-2"}}
	latest := selection.NewLatestStore()

	job := newJob(runner, nil, latest, testConfig())
	require.NoError(t, job.Run(context.Background()))

	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, "run-2", got.RunID)
}

func TestScreeningJob_Errors(t *testing.T) {
	t.Run("universe", func(t *testing.T) {
		latest := selection.NewLatestStore()
		job := NewScreeningJob(stubUniverse{err: errors.New("no symbols")}, &stubRunner{}, nil, latest, testConfig(), logger.Nop())

		err := job.Run(context.Background())
		assert.ErrorContains(t, err, "build universe")
		_, ok := latest.Get()
		assert.False(t, ok)
	})

	t.Run("benchmark", func(t *testing.T) {
		benchErr := &contracts.BenchmarkFetchError{Ticker: "^GSPC", Err: errors.New("down")}
		job := newJob(&stubRunner{err: benchErr}, nil, selection.NewLatestStore(), testConfig())

		err := job.Run(context.Background())
		var target *contracts.BenchmarkFetchError
		assert.ErrorAs(t, err, &target)
	})
}

func TestScreeningJob_SaveFailureIsLogged(t *testing.T) {
	result := &contracts.RunResult{
		RunID: "run-3",
		Ranked: []contracts.MetricRecord{
			{Ticker: "AAA", Rank: 1},
			{Ticker: "BBB", Rank: 2},
		},
		Params: contracts.RunParams{Start: now, End: now, RecentWindow: 3},
	}
	runner := &stubRunner{result: result}
	store := &stubStore{err: errors.New("db down")}
	latest := selection.NewLatestStore()

	cfg := testConfig()
	cfg.HistoryPath = filepath.Join(t.TempDir(), "history.csv")

	require.NoError(t, newJob(runner, store, latest, cfg).Run(context.Background()))
	assert.Equal(t, []string{"run-3"}, store.saved)

	got, ok := latest.Get()
	require.True(t, ok)
	assert.Equal(t, "run-3", got.RunID)

	data, err := os.ReadFile(cfg.HistoryPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "header plus every ranked record")
}
