package quote

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
)

// StooqProvider reads daily bars from Stooq's CSV download endpoint.
type StooqProvider struct {
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

// NewStooqProvider creates a Stooq CSV provider
func NewStooqProvider(baseURL string, client *httputil.Client, log *logger.Logger) *StooqProvider {
	return &StooqProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log.WithField("provider", "stooq"),
	}
}

func (p *StooqProvider) Name() string { return "stooq" }

// Fetch downloads [start, end] daily bars.
func (p *StooqProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	q := url.Values{}
	q.Set("s", StooqSymbol(ticker))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")
	u := p.baseURL + "/q/d/l/?" + q.Encode()

	body, err := p.client.GetBody(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("stooq fetch: %w", err)
	}

	series, err := ParseDailyCSV(bytes.NewReader(body), ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("stooq: %w", err)
	}
	series.Source = p.Name()

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series.Bars),
	}).Debug("Fetched prices")

	return series, nil
}

var csvDateLayouts = []string{"2006-01-02", "2-Jan-06", "01/02/2006", "20060102"}

func parseCSVDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDailyCSV reads a header-led daily OHLCV CSV (Date,Open,High,Low,Close,Volume).
// Columns are located by header name; a missing Open or Close column yields a series of
// null cells rather than an error. Rows with an unparseable date are dropped.
func ParseDailyCSV(r io.Reader, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, contracts.ErrEmptySeries
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{"date": -1, "open": -1, "close": -1, "volume": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[key]; ok {
			cols[key] = i
		}
	}
	if cols["date"] < 0 {
		return nil, fmt.Errorf("csv has no Date column (header %q): %w", strings.Join(header, ","), contracts.ErrEmptySeries)
	}

	series := &contracts.PriceSeries{Ticker: ticker}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		cell := func(name string) string {
			i := cols[name]
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}

		day, ok := parseCSVDate(cell("date"))
		if !ok || !inRange(day, start, end) {
			continue
		}
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:   truncateDay(day),
			Open:   parseCell(cell("open")),
			Close:  parseCell(cell("close")),
			Volume: parseCell(cell("volume")),
		})
	}

	series.Normalize()
	return series, nil
}
