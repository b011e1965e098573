// Package handlers exposes the pipeline over HTTP: trigger a run, inspect
// run status, and read API-call metrics.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BabakBar/AutoSpendTracker/internal/api/middleware"
	"github.com/BabakBar/AutoSpendTracker/internal/jobs"
	"github.com/BabakBar/AutoSpendTracker/internal/monitoring"
	"github.com/BabakBar/AutoSpendTracker/internal/ratelimit"
)

// RunsHandler handles run trigger and status endpoints.
type RunsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{publisher: publisher, store: store, log: log}
}

// CreateRun handles POST /api/runs: enqueues one pipeline run.
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	job := &jobs.RunJob{}
	if err := h.publisher.PublishRun(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue run")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue run")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// GetRun handles GET /api/runs/{jobID}.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListJobs(r.Context(), 50)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

// MetricsHandler serves API-call metrics and rate limiter usage.
type MetricsHandler struct {
	metrics  *monitoring.Collector
	limiters *ratelimit.Registry
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(metrics *monitoring.Collector, limiters *ratelimit.Registry) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, limiters: limiters}
}

// GetMetrics handles GET /api/metrics.
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"api":           h.metrics.Snapshot(),
		"rate_limiters": h.limiters.Snapshot(),
		"generated_at":  time.Now().UTC(),
	})
}

// NewRouter wires all routes with the standard middleware chain.
func NewRouter(runs *RunsHandler, metrics *MetricsHandler, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		metrics.GetMetrics(w, r)
	})

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runs.CreateRun(w, r)
		case http.MethodGet:
			runs.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		if jobID == "" || strings.Contains(jobID, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid run id")
			return
		}
		runs.GetRun(w, r, jobID)
	})

	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logger(log)(handler)
	handler = middleware.Recovery(log)(handler)
	return handler
}
