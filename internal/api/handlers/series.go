package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/report"
	"github.com/wonny/pullback/pkg/logger"
)

const defaultSeriesDays = 240

// SeriesHandler serves normalized price lines for charting
type SeriesHandler struct {
	quotes contracts.QuoteProvider
	now    func() time.Time
	logger *logger.Logger
}

// NewSeriesHandler creates a series handler
func NewSeriesHandler(quotes contracts.QuoteProvider, log *logger.Logger) *SeriesHandler {
	return &SeriesHandler{
		quotes: quotes,
		now:    time.Now,
		logger: log,
	}
}

// SeriesResponse is one chart line with its y-axis range.
type SeriesResponse struct {
	report.ChartSeries
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Get returns a ticker's closes as percent of the first close in range
// GET /api/series/{ticker}?start=2024-01-02&end=2024-06-28
func (h *SeriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["ticker"]))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	today := h.now().UTC().Truncate(24 * time.Hour)
	end, err := parseDate(r.URL.Query().Get("end"), today)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end date format (use YYYY-MM-DD)")
		return
	}
	start, err := parseDate(r.URL.Query().Get("start"), end.AddDate(0, 0, -defaultSeriesDays))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start date format (use YYYY-MM-DD)")
		return
	}
	if !start.Before(end) {
		respondError(w, http.StatusBadRequest, "start must be before end")
		return
	}

	series, err := h.quotes.Fetch(r.Context(), ticker, start, end)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Series fetch failed")
		respondError(w, http.StatusBadGateway, report.BlockedMessage([]string{ticker}))
		return
	}

	chart, err := report.NormalizeSeries(series, start, end)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	yMin, yMax := report.AxisBounds([]report.ChartSeries{chart})
	respondJSON(w, http.StatusOK, SeriesResponse{ChartSeries: chart, YMin: yMin, YMax: yMax})
}

func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(contracts.DateLayout, raw)
}
