// Package report renders screening results for people: CSV output, pick history and chart series.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wonny/pullback/internal/contracts"
)

var rankedHeader = []string{
	"ticker", "beta", "historical_return", "recent_return", "stdev", "mean", "score",
	"start_date", "end_date", "recent_days",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func rankedRows(result *contracts.RunResult) [][]string {
	rows := make([][]string, 0, len(result.Ranked))
	for _, rec := range result.Ranked {
		rows = append(rows, []string{
			rec.Ticker,
			formatFloat(rec.Beta),
			formatFloat(rec.HistoricalReturn),
			formatFloat(rec.RecentReturn),
			formatFloat(rec.Stdev),
			formatFloat(rec.Mean),
			formatFloat(rec.Score),
			result.Params.Start.Format(contracts.DateLayout),
			result.Params.End.Format(contracts.DateLayout),
			strconv.Itoa(result.Params.RecentWindow),
		})
	}
	return rows
}

// WriteRanked writes the ranked records, best first, with a header row.
func WriteRanked(w io.Writer, result *contracts.RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rankedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rankedRows(result)); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteRankedFile writes WriteRanked output to path, replacing the file.
func WriteRankedFile(path string, result *contracts.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteRanked(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// AppendHistory appends the run's picks to a running history file.
// The header is written only when the file is new or empty.
func AppendHistory(path string, result *contracts.RunResult) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(rankedHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := cw.WriteAll(rankedRows(result)); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
