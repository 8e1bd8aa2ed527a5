package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
)

// YahooProvider reads daily bars from the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL string
	client  *httputil.Client
	logger  *logger.Logger
}

// NewYahooProvider creates a Yahoo chart provider
func NewYahooProvider(baseURL string, client *httputil.Client, log *logger.Logger) *YahooProvider {
	return &YahooProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  log.WithField("provider", "yahoo"),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooChart is the response structure from the chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads [start, end] daily bars.
func (p *YahooProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	// period2 is exclusive on the Yahoo side
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		p.baseURL,
		url.PathEscape(YahooSymbol(ticker)),
		truncateDay(start).Unix(),
		truncateDay(end).AddDate(0, 0, 1).Unix(),
	)

	body, err := p.client.GetBody(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}

	series, err := parseYahooChart(body, ticker, start, end)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(series.Bars),
	}).Debug("Fetched prices")

	return series, nil
}

func parseYahooChart(body []byte, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %w", contracts.ErrEmptySeries)
	}

	result := chart.Chart.Result[0]
	q := result.Indicators.Quote[0]

	series := &contracts.PriceSeries{
		Ticker: ticker,
		Source: "yahoo",
		Bars:   make([]contracts.PriceBar, 0, len(result.Timestamp)),
	}
	for i, ts := range result.Timestamp {
		day := truncateDay(time.Unix(ts, 0))
		if !inRange(day, start, end) {
			continue
		}
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:   day,
			Open:   toNullFloat(cellAt(q.Open, i)),
			Close:  toNullFloat(cellAt(q.Close, i)),
			Volume: toNullFloat(cellAt(q.Volume, i)),
		})
	}

	series.Normalize()
	return series, nil
}
