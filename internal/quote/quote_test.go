package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/pkg/config"
	"github.com/wonny/pullback/pkg/httputil"
	"github.com/wonny/pullback/pkg/logger"
	"github.com/wonny/pullback/pkg/redis"
)

var (
	start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
)

func testClient() *httputil.Client {
	return httputil.New(logger.Nop(), time.Second).DisableRetry()
}

func TestSymbols(t *testing.T) {
	tests := []struct {
		in, yahoo, stooq, html string
	}{
		{"aapl", "AAPL", "aapl.us", "AAPL"},
		{"BRK.B", "BRK-B", "brk.b.us", "BRK-B"},
		{"^GSPC", "^GSPC", "^spx", "-GSPC"},
		{"SPX", "^GSPC", "^spx", "-GSPC"},
		{"^VIX", "^VIX", "^vix", "-VIX"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.yahoo, YahooSymbol(tt.in))
			assert.Equal(t, tt.stooq, StooqSymbol(tt.in))
			assert.Equal(t, tt.html, HTMLSymbol(tt.in))
		})
	}
}

func TestParseCell(t *testing.T) {
	assert.Equal(t, null.FloatFrom(1234.5), parseCell(" 1,234.5 "))
	assert.False(t, parseCell("N/A").Valid)
	assert.False(t, parseCell("-").Valid)
	assert.False(t, parseCell("abc").Valid)
	assert.False(t, toNullFloat(nil).Valid)
	assert.Equal(t, null.FloatFrom(3), toNullFloat(float64(3)))
}

const yahooBody = `{"chart":{"result":[{
	"timestamp":[1719408600,1719495000,1719581400],
	"indicators":{"quote":[{
		"open":[100.0,null,102.0],
		"close":[101.0,101.5,103.0],
		"volume":[1000,2000,3000]
	}]}
}],"error":null}}`

func TestYahooProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(yahooBody))
	}))
	defer server.Close()

	p := NewYahooProvider(server.URL, testClient(), logger.Nop())
	series, err := p.Fetch(context.Background(), "^GSPC", start, end)
	require.NoError(t, err)

	require.Len(t, series.Bars, 3)
	assert.Equal(t, "2024-06-28", contracts.DateKey(series.Bars[0].Date), "most recent first")
	assert.Equal(t, 103.0, series.Bars[0].Close.Float64)
	assert.False(t, series.Bars[1].Open.Valid, "null open kept as missing")
	assert.Len(t, series.CompleteBars(), 2)
}

func TestYahooProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer server.Close()

	_, err := NewYahooProvider(server.URL, testClient(), logger.Nop()).Fetch(context.Background(), "ZZZZ", start, end)
	assert.ErrorContains(t, err, "No data found")
}

const stooqBody = "Date,Open,High,Low,Close,Volume\n" +
	"2024-06-26,10,11,9,10.5,100\n" +
	"2024-06-27,N/A,11,9,10.7,100\n" +
	"2024-06-28,10.7,11,9,11,\n" +
	"garbage,1,1,1,1,1\n" +
	"2024-05-01,1,1,1,1,1\n"

func TestStooqProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aapl.us", r.URL.Query().Get("s"))
		assert.Equal(t, "20240601", r.URL.Query().Get("d1"))
		_, _ = w.Write([]byte(stooqBody))
	}))
	defer server.Close()

	series, err := NewStooqProvider(server.URL, testClient(), logger.Nop()).Fetch(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	require.Len(t, series.Bars, 3, "out-of-range and undated rows dropped")
	assert.Equal(t, "stooq", series.Source)
	assert.False(t, series.Bars[1].Open.Valid)
	assert.False(t, series.Bars[0].Volume.Valid)
	assert.True(t, series.Bars[0].Complete())
}

func TestParseDailyCSV_MissingColumn(t *testing.T) {
	body := "Date,Close\n2024-06-27,10\n2024-06-28,11\n"
	series, err := ParseDailyCSV(strings.NewReader(body), "AAA", start, end)
	require.NoError(t, err)
	assert.Len(t, series.Bars, 2)
	assert.True(t, series.IsDegenerate(), "no Open column means no complete bar")
}

func TestParseDailyCSV_NoData(t *testing.T) {
	_, err := ParseDailyCSV(strings.NewReader("No data"), "AAA", start, end)
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)

	_, err = ParseDailyCSV(strings.NewReader(""), "AAA", start, end)
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
}

const historyPage = `<html><body>
<table class="nav"><tr><td>menu</td></tr></table>
<table class="historical_price">
<tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Volume</th></tr>
<tr><td>Jun 28, 2024</td><td>1,050.00</td><td>1,060</td><td>1,040</td><td>1,055.00</td><td>10,000</td></tr>
<tr><td>Jun 27, 2024</td><td>-</td><td>-</td><td>-</td><td>1,049.00</td><td>9,000</td></tr>
</table></body></html>`

func TestHTMLProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "-GSPC", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(historyPage))
	}))
	defer server.Close()

	series, err := NewHTMLProvider(server.URL, testClient(), logger.Nop()).Fetch(context.Background(), "^GSPC", start, end)
	require.NoError(t, err)

	require.Len(t, series.Bars, 2)
	assert.Equal(t, 1050.0, series.Bars[0].Open.Float64)
	assert.Equal(t, 1055.0, series.Bars[0].Close.Float64)
	assert.False(t, series.Bars[1].Open.Valid)
}

func TestHTMLProvider_NoTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>blocked</body></html>"))
	}))
	defer server.Close()

	_, err := NewHTMLProvider(server.URL, testClient(), logger.Nop()).Fetch(context.Background(), "AAPL", start, end)
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
}

// stubProvider returns a canned series or error and counts calls.
type stubProvider struct {
	name   string
	series *contracts.PriceSeries
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	s.calls++
	return s.series, s.err
}

func goodSeries() *contracts.PriceSeries {
	return &contracts.PriceSeries{Bars: []contracts.PriceBar{
		{Date: start, Open: null.FloatFrom(1), Close: null.FloatFrom(2)},
		{Date: end, Open: null.FloatFrom(2), Close: null.FloatFrom(3)},
	}}
}

func TestChain_FallsBackOnErrorAndDegenerate(t *testing.T) {
	failing := &stubProvider{name: "a", err: errors.New("blocked")}
	empty := &stubProvider{name: "b", series: &contracts.PriceSeries{}}
	good := &stubProvider{name: "c", series: goodSeries()}
	unused := &stubProvider{name: "d", series: goodSeries()}

	series, err := NewChain(logger.Nop(), failing, empty, good, unused).Fetch(context.Background(), "AAA", start, end)
	require.NoError(t, err)

	assert.Equal(t, "AAA", series.Ticker)
	assert.Equal(t, "c", series.Source)
	assert.Equal(t, end, series.Bars[0].Date, "chain output is normalized")
	assert.Equal(t, 0, unused.calls)
}

func TestChain_AllFail(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("timeout")}
	b := &stubProvider{name: "b", series: nil}

	_, err := NewChain(logger.Nop(), a, b).Fetch(context.Background(), "AAA", start, end)

	var fetchErr *contracts.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Len(t, fetchErr.Attempts, 2)
	assert.Equal(t, "a", fetchErr.Attempts[0].Provider)
	assert.ErrorIs(t, fetchErr.Attempts[1].Err, contracts.ErrEmptySeries)
}

// hangProvider blocks until its context is done.
type hangProvider struct{ calls int }

func (h *hangProvider) Name() string { return "hang" }

func (h *hangProvider) Fetch(ctx context.Context, ticker string, start, end time.Time) (*contracts.PriceSeries, error) {
	h.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestChain_HungProviderDoesNotStarveFallback(t *testing.T) {
	hang := &hangProvider{}
	good := &stubProvider{name: "stooq", series: goodSeries()}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	series, err := NewChain(logger.Nop(), hang, good).Fetch(ctx, "AAA", start, end)
	require.NoError(t, err)
	assert.Equal(t, "stooq", series.Source)
	assert.Equal(t, 1, hang.calls)
	assert.Equal(t, 1, good.calls)
	assert.NoError(t, ctx.Err(), "fallback should answer before the caller deadline")
}

func TestChain_AttemptTimeoutWithoutCallerDeadline(t *testing.T) {
	hang := &hangProvider{}
	good := &stubProvider{name: "stooq", series: goodSeries()}
	chain := NewChain(logger.Nop(), hang, good).WithAttemptTimeout(20 * time.Millisecond)

	series, err := chain.Fetch(context.Background(), "AAA", start, end)
	require.NoError(t, err)
	assert.Equal(t, "stooq", series.Source)
}

func TestChain_StopsWhenCallerCancels(t *testing.T) {
	good := &stubProvider{name: "stooq", series: goodSeries()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(logger.Nop(), &hangProvider{}, good).Fetch(ctx, "AAA", start, end)

	var fetchErr *contracts.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Len(t, fetchErr.Attempts, 1)
	assert.Zero(t, good.calls)
}

func TestCachedProvider_DisabledPassThrough(t *testing.T) {
	inner := &stubProvider{name: "yahoo", series: goodSeries()}
	p := NewCachedProvider(inner, redis.NewCache(redis.Disabled(), "test"), time.Hour, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := p.Fetch(context.Background(), "AAA", start, end)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "yahoo", p.Name())
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := config.QuoteConfig{RequestsPerSecond: 5, HTTPTimeout: time.Second}

	chain, err := NewChainFromConfig([]string{"stooq", "yahoo", "html"}, cfg, nil, logger.Nop())
	require.NoError(t, err)
	names := []string{}
	for _, p := range chain.Providers() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"stooq", "yahoo", "html"}, names)

	_, err = NewChainFromConfig([]string{"bloomberg"}, cfg, nil, logger.Nop())
	assert.Error(t, err)

	_, err = NewChainFromConfig(nil, cfg, nil, logger.Nop())
	assert.Error(t, err)
}

func TestCachedProvider_RedisHit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test")
	}
	cfg := &config.Config{Redis: config.RedisConfig{
		Host:    envOr("TEST_REDIS_HOST", "localhost"),
		Port:    envOr("TEST_REDIS_PORT", "6379"),
		Enabled: true,
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := redis.New(ctx, cfg)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	defer client.Close()

	series := goodSeries()
	series.Bars[1].Volume = null.FloatFrom(1200)
	inner := &stubProvider{name: "yahoo", series: series}

	cache := redis.NewCache(client, fmt.Sprintf("pullback-test-%d", time.Now().UnixNano()))
	defer cache.Delete(context.Background(), redis.QuoteKey("yahoo", "AAA", start, end))

	p := NewCachedProvider(inner, cache, time.Minute, logger.Nop())

	_, err = p.Fetch(ctx, "AAA", start, end)
	require.NoError(t, err)

	cached, err := p.Fetch(ctx, "AAA", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second fetch should come from redis")

	require.Len(t, cached.Bars, 2)
	assert.False(t, cached.Bars[0].Volume.Valid, "null volume survives the round trip")
	assert.Equal(t, null.FloatFrom(1200), cached.Bars[1].Volume)
	assert.Equal(t, null.FloatFrom(1), cached.Bars[0].Open)
	assert.Equal(t, null.FloatFrom(3), cached.Bars[1].Close)
	assert.True(t, cached.Bars[1].Date.Equal(end))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
