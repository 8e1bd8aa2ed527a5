package handlers

import (
	"errors"
	"net/http"

	"github.com/wonny/pullback/internal/scheduler"
	"github.com/wonny/pullback/internal/scheduler/jobs"
	"github.com/wonny/pullback/pkg/logger"
)

// JobController triggers and inspects scheduler jobs.
type JobController interface {
	RunJob(jobName string) error
	GetJobStats() map[string]scheduler.JobStats
}

// RunsHandler lists stored runs and triggers new ones
type RunsHandler struct {
	runs   RunReader // nil: DB 미설정
	jobs   JobController
	logger *logger.Logger
}

// NewRunsHandler creates a runs handler. runs may be nil.
func NewRunsHandler(runs RunReader, jobs JobController, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		runs:   runs,
		jobs:   jobs,
		logger: log,
	}
}

// List returns stored runs, newest first
// GET /api/runs?limit=20
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "Run history requires DATABASE_URL")
		return
	}

	limit, ok := parseLimit(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// Trigger starts a screening run in the background
// POST /api/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	err := h.jobs.RunJob(jobs.ScreeningJobName)
	if errors.Is(err, scheduler.ErrJobRunning) {
		respondError(w, http.StatusConflict, "A screening run is already in progress")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to trigger screening")
		respondError(w, http.StatusInternalServerError, "Failed to trigger screening")
		return
	}

	h.logger.Info("Screening run triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job":    jobs.ScreeningJobName,
	})
}

// Jobs returns scheduler statistics
// GET /api/jobs
func (h *RunsHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}
