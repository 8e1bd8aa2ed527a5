package contracts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientHistory is returned when a series is too short for the requested window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrNoOverlap is returned when a ticker and the benchmark share no dates.
	ErrNoOverlap = errors.New("no overlapping dates with benchmark")
	// ErrDegenerateRegression is returned when the benchmark returns have zero variance.
	ErrDegenerateRegression = errors.New("degenerate regression")
	// ErrEmptySeries is returned by providers that answered with no usable bars.
	ErrEmptySeries = errors.New("empty price series")
)

// Skip reasons recorded in RunResult.Skipped.
const (
	ReasonInsufficientHistory  = "insufficient_history"
	ReasonNoOverlap            = "no_overlap"
	ReasonDegenerateRegression = "degenerate_regression"
	ReasonScreenedOutPrefix    = "screened_out:"
)

// SkipReason maps a per-ticker computation error to its skip reason.
// Returns "" for errors that are not skips.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientHistory):
		return ReasonInsufficientHistory
	case errors.Is(err, ErrNoOverlap):
		return ReasonNoOverlap
	case errors.Is(err, ErrDegenerateRegression):
		return ReasonDegenerateRegression
	default:
		return ""
	}
}

// ProviderAttempt records one provider's failure.
type ProviderAttempt struct {
	Provider string
	Err      error
}

// FetchError means every configured provider failed for a ticker.
type FetchError struct {
	Ticker   string
	Attempts []ProviderAttempt
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return fmt.Sprintf("fetch %s failed (%s)", e.Ticker, strings.Join(parts, "; "))
}

// Unwrap exposes the provider errors to errors.Is / errors.As.
func (e *FetchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// BenchmarkFetchError aborts a run: without the benchmark no ticker can be scored.
type BenchmarkFetchError struct {
	Ticker string
	Err    error
}

func (e *BenchmarkFetchError) Error() string {
	return fmt.Sprintf("benchmark %s unavailable: %v", e.Ticker, e.Err)
}

func (e *BenchmarkFetchError) Unwrap() error {
	return e.Err
}
