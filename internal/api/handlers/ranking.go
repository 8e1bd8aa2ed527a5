package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/pullback/internal/contracts"
	"github.com/wonny/pullback/internal/selection"
	"github.com/wonny/pullback/pkg/logger"
)

// RunReader reads stored runs.
type RunReader interface {
	LatestRun(ctx context.Context) (*selection.RunSummary, error)
	GetRun(ctx context.Context, runID string) (*selection.RunSummary, error)
	ListRuns(ctx context.Context, limit int) ([]selection.RunSummary, error)
	GetRanked(ctx context.Context, runID string, limit int) ([]contracts.MetricRecord, error)
}

// RankingHandler serves ranked results
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	latest *selection.LatestStore
	runs   RunReader // nil: DB 미설정
	logger *logger.Logger
}

// NewRankingHandler creates a ranking handler. runs may be nil.
func NewRankingHandler(latest *selection.LatestStore, runs RunReader, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		latest: latest,
		runs:   runs,
		logger: log,
	}
}

// RankingResponse is the payload of the ranking endpoints.
type RankingResponse struct {
	RunID     string                   `json:"run_id"`
	Params    contracts.RunParams      `json:"params"`
	StartedAt time.Time                `json:"started_at"`
	Ranked    []contracts.MetricRecord `json:"ranked"`
	Skipped   map[string]string        `json:"skipped,omitempty"`
	Failed    map[string]string        `json:"failed,omitempty"`
}

// GetLatest returns the most recent run's ranking
// GET /api/ranking/latest?limit=20
// 메모리의 최신 결과 우선, 없으면 DB의 마지막 실행
func (h *RankingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	if result, ok := h.latest.Get(); ok {
		respondJSON(w, http.StatusOK, RankingResponse{
			RunID:     result.RunID,
			Params:    result.Params,
			StartedAt: result.StartedAt,
			Ranked:    result.Top(limit),
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		})
		return
	}

	if h.runs == nil {
		respondError(w, http.StatusNotFound, "No screening run has completed yet")
		return
	}

	summary, err := h.runs.LatestRun(r.Context())
	if errors.Is(err, selection.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "No screening run has completed yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest run")
		respondError(w, http.StatusInternalServerError, "Failed to load latest run")
		return
	}

	h.respondStored(w, r, summary, limit)
}

// GetRun returns the ranking of a stored run
// GET /api/runs/{id}?limit=20
func (h *RankingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	runID := mux.Vars(r)["id"]

	if result, ok := h.latest.Get(); ok && result.RunID == runID {
		respondJSON(w, http.StatusOK, RankingResponse{
			RunID:     result.RunID,
			Params:    result.Params,
			StartedAt: result.StartedAt,
			Ranked:    result.Top(limit),
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		})
		return
	}

	if h.runs == nil {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	summary, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, selection.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load run")
		respondError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}

	h.respondStored(w, r, summary, limit)
}

func (h *RankingHandler) respondStored(w http.ResponseWriter, r *http.Request, summary *selection.RunSummary, limit int) {
	ranked, err := h.runs.GetRanked(r.Context(), summary.RunID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", summary.RunID).Error("Failed to load ranking")
		respondError(w, http.StatusInternalServerError, "Failed to load ranking")
		return
	}

	respondJSON(w, http.StatusOK, RankingResponse{
		RunID:     summary.RunID,
		Params:    summary.Params,
		StartedAt: summary.StartedAt,
		Ranked:    ranked,
	})
}
