// Package handlers exposes the warehouse and pipeline over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/analytics"
	"github.com/vjeyam/sports-odds-pipeline/internal/db"
	"github.com/vjeyam/sports-odds-pipeline/internal/hub"
	"github.com/vjeyam/sports-odds-pipeline/internal/linker"
	"github.com/vjeyam/sports-odds-pipeline/internal/pipeline"
	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store  *db.Store
	engine *analytics.Engine
	linker *linker.Linker
	orch   *pipeline.Orchestrator
	hub    *hub.Hub
	loc    *time.Location
}

// NewHandler creates a new handler with dependencies
func NewHandler(
	store *db.Store,
	engine *analytics.Engine,
	lk *linker.Linker,
	orch *pipeline.Orchestrator,
	h *hub.Hub,
	loc *time.Location,
) *Handler {
	return &Handler{
		store:  store,
		engine: engine,
		linker: lk,
		orch:   orch,
		hub:    h,
		loc:    loc,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "odds-pipeline",
	})
}

// gamesForRange loads reconciled games, narrowed by optional start/end query
// params ("2006-01-02", inclusive). Supplying only one bound is an error.
func (h *Handler) gamesForRange(ctx context.Context, r *http.Request) ([]models.ReconciledGame, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	switch {
	case start == "" && end == "":
		return h.store.ListReconciledGames(ctx)
	case start == "" || end == "":
		return nil, fmt.Errorf("start and end must be supplied together")
	default:
		return h.engine.GamesInRange(ctx, start, end)
	}
}

// requireRange reads mandatory start/end query params
func requireRange(r *http.Request) (string, string, error) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		return "", "", fmt.Errorf("start and end query params are required")
	}
	return start, end, nil
}

// strategyParam reads an optional strategy query param, defaulting to favorite
func strategyParam(r *http.Request) (models.Strategy, error) {
	raw := r.URL.Query().Get("strategy")
	if raw == "" {
		return models.StrategyFavorite, nil
	}
	s := models.Strategy(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown strategy %q", raw)
	}
	return s, nil
}

// Helper functions

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseFloatParam(r *http.Request, param string, defaultValue float64) float64 {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
