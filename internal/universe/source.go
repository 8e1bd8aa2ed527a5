package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/httputil"
)

// StaticSource is a fixed symbol list.
type StaticSource []string

func (s StaticSource) Symbols(ctx context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// CSVSource reads symbols from one column of a CSV file or URL, e.g. an exchange
// company-list download with a "Symbol" column.
type CSVSource struct {
	Location string // local path or http(s) URL
	Column   string // defaults to "Symbol"
	client   *httputil.Client
}

// NewCSVSource creates a CSV symbol source. client is only used for http(s) locations.
func NewCSVSource(location, column string, client *httputil.Client) *CSVSource {
	if column == "" {
		column = "Symbol"
	}
	return &CSVSource{Location: location, Column: column, client: client}
}

func (s *CSVSource) isRemote() bool {
	return strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://")
}

// Symbols returns the column values in file order.
func (s *CSVSource) Symbols(ctx context.Context) ([]string, error) {
	var data []byte
	var err error
	if s.isRemote() {
		if s.client == nil {
			return nil, fmt.Errorf("no http client for %s", s.Location)
		}
		data, err = s.client.GetBody(ctx, s.Location)
	} else {
		data, err = os.ReadFile(s.Location)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Location, err)
	}

	return readColumn(bytes.NewReader(data), s.Column)
}

func readColumn(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", column)
	}

	symbols := make([]string, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if idx < len(row) {
			symbols = append(symbols, row[idx])
		}
	}
	return symbols, nil
}

// MultiSource concatenates several sources in order (e.g. NYSE then NASDAQ).
type MultiSource []contracts.UniverseSource

func (m MultiSource) Symbols(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	for _, src := range m {
		symbols, err := src.Symbols(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, symbols...)
	}
	return out, nil
}
