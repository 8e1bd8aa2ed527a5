package quote

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
)

// HTMLProvider scrapes a historical-prices page that renders daily bars as an HTML table
// (Date | Open | High | Low | Close | Volume).
type HTMLProvider struct {
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

// NewHTMLProvider creates a historical-table scraper
func NewHTMLProvider(baseURL string, client *httputil.Client, log *logger.Logger) *HTMLProvider {
	return &HTMLProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log.WithField("provider", "html"),
	}
}

func (p *HTMLProvider) Name() string { return "html" }

const htmlDateParam = "Jan 2, 2006"

// Fetch downloads and parses the historical table for [start, end].
func (p *HTMLProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	q := url.Values{}
	q.Set("q", HTMLSymbol(ticker))
	q.Set("startdate", start.Format(htmlDateParam))
	q.Set("enddate", end.Format(htmlDateParam))
	u := p.baseURL + "/finance/historical?" + q.Encode()

	body, err := p.client.GetBody(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("html fetch: %w", err)
	}

	series, err := parseHistoryTable(body, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("html: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series.Bars),
	}).Debug("Fetched prices")

	return series, nil
}

var htmlDateLayouts = []string{"Jan 2, 2006", "Jan 02, 2006", "2006-01-02", "2-Jan-06"}

// parseHistoryTable finds the first table whose header row names Date and Close.
func parseHistoryTable(body []byte, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	series := &contracts.PriceSeries{Ticker: ticker, Source: "html"}
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := map[string]int{"date": -1, "open": -1, "close": -1, "volume": -1}
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			key := strings.ToLower(strings.TrimSpace(cell.Text()))
			if _, ok := cols[key]; ok {
				cols[key] = i
			}
		})
		if cols["date"] < 0 || cols["close"] < 0 {
			return true // 다음 테이블
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i == 0 {
				return
			}
			cells := row.Find("td")
			text := func(name string) string {
				idx := cols[name]
				if idx < 0 || idx >= cells.Length() {
					return ""
				}
				return cells.Eq(idx).Text()
			}

			day, ok := parseHTMLDate(text("date"))
			if !ok || !inRange(day, start, end) {
				return
			}
			series.Bars = append(series.Bars, contracts.PriceBar{
				Date:   day,
				Open:   parseCell(text("open")),
				Close:  parseCell(text("close")),
				Volume: parseCell(text("volume")),
			})
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no historical price table: %w", contracts.ErrEmptySeries)
	}

	series.Normalize()
	return series, nil
}

func parseHTMLDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range htmlDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}
