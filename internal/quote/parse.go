// Package quote fetches daily price history from public market data sources.
package quote

import (
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v5"
)

// parseCell converts a text cell into a nullable float.
// Empty, placeholder ("-", "N/A", "null") or non-numeric cells become null.
func parseCell(s string) null.Float {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	switch strings.ToLower(s) {
	case "", "-", "n/a", "na", "null", "nan":
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// toNullFloat converts a decoded JSON value into a nullable float.
func toNullFloat(v interface{}) null.Float {
	switch n := v.(type) {
	case float64:
		return null.FloatFrom(n)
	case int:
		return null.FloatFrom(float64(n))
	case int64:
		return null.FloatFrom(float64(n))
	case string:
		return parseCell(n)
	default:
		return null.Float{}
	}
}

// cellAt returns row[i] or nil when the column is missing.
func cellAt(row []interface{}, i int) interface{} {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// truncateDay drops the time of day, keeping the calendar date in UTC.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inRange reports whether day lies within [start, end] by calendar date.
func inRange(day, start, end time.Time) bool {
	day = truncateDay(day)
	return !day.Before(truncateDay(start)) && !day.After(truncateDay(end))
}
