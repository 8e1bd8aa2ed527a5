package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pullback/internal/contracts"
)

func TestWriteReports_HistoryKeepsFullRanking(t *testing.T) {
	day := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	result := &contracts.RunResult{
		RunID:  "run-1",
		Params: contracts.RunParams{Start: day.AddDate(0, 0, -240), End: day, RecentWindow: 3},
	}
	for i, ticker := range []string{"AAA", "BBB", "CCC", "DDD"} {
		result.Ranked = append(result.Ranked, contracts.MetricRecord{Ticker: ticker, Rank: i + 1})
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "ranked.csv")
	history := filepath.Join(dir, "history.csv")

	require.NoError(t, writeReports(result, out, history))
	require.NoError(t, writeReports(result, "", history))

	data, err := os.ReadFile(history)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 9, "one header plus two full rankings")
	assert.True(t, strings.HasPrefix(lines[0], "ticker,"))
	assert.True(t, strings.HasPrefix(lines[4], "DDD,"))

	ranked, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(ranked)), "\n"), 5)
}

func TestWriteReports_NoPaths(t *testing.T) {
	assert.NoError(t, writeReports(&contracts.RunResult{}, "", ""))
}

func TestSplitTickers(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT"}, splitTickers(" AAPL, ,MSFT "))
	assert.Empty(t, splitTickers(""))
}
