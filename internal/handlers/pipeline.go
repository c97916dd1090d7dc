package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vjeyam/sports-odds-pipeline/internal/pipeline"
)

// StartRun triggers a pipeline run. Responds 409 when a run is already in
// flight and 423 when an operator has locked the pipeline.
func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.orch.StartRun("manual")
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		respondError(w, http.StatusConflict, "a pipeline run is already in progress", nil)
		return
	case errors.Is(err, pipeline.ErrAdminLocked):
		respondError(w, http.StatusLocked, "pipeline is locked by an administrator", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to start pipeline run", err)
		return
	}

	respondJSON(w, http.StatusAccepted, run)
}

// ListRuns returns recent runs, newest first
// Query params: limit (default 20)
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	limit := parseIntParam(r, "limit", 20)
	if limit > 200 {
		limit = 200
	}

	runs, err := h.store.ListRuns(ctx, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve runs", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one run by ID. The in-flight run is served from memory so
// its stage progress is current.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runID := chi.URLParam(r, "runID")
	if runID == "" {
		respondError(w, http.StatusBadRequest, "run_id is required", nil)
		return
	}

	if current := h.orch.CurrentRun(); current != nil && current.RunID == runID {
		respondJSON(w, http.StatusOK, current)
		return
	}

	run, err := h.store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "run not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to retrieve run", err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// CancelRun requests that the in-flight run stop at the next stage boundary
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	if !h.orch.Cancel() {
		respondError(w, http.StatusConflict, "no pipeline run in progress", nil)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "cancel requested",
	})
}

// lockRequest is the admin lock toggle body
type lockRequest struct {
	Locked bool `json:"locked"`
}

// SetLock flips the operator lock on the pipeline
func (h *Handler) SetLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid lock request body", err)
		return
	}

	h.orch.SetAdminLock(req.Locked)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"locked": req.Locked,
	})
}

// GetLock reports the operator lock state
func (h *Handler) GetLock(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"locked": h.orch.AdminLocked(),
	})
}
