package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vjeyam/sports-odds-pipeline/internal/analytics"
)

// GetAnalyticsSummary returns the cross-strategy rollup for a date range
// Query params: start, end (required)
func (h *Handler) GetAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	start, end, err := requireRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	summary, err := h.engine.RangeReport(ctx, start, end)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to build range summary", err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetDailySummaries returns per-day rollups across a date range
// Query params: start, end (required)
func (h *Handler) GetDailySummaries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	start, end, err := requireRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.engine.DailyReport(ctx, start, end)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to build daily summaries", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetStrategySummaries settles all four strategies over the selected games
// Query params: start, end (optional pair)
func (h *Handler) GetStrategySummaries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	games, err := h.gamesForRange(ctx, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": analytics.SummarizeAll(games),
		"games":      len(games),
	})
}

// GetEquityCurve returns one strategy's cumulative profit series
// Query params: strategy (default favorite), start, end (optional pair)
func (h *Handler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	strategy, err := strategyParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	games, err := h.gamesForRange(ctx, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	curve := analytics.EquityCurve(games, strategy)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy": strategy,
		"points":   curve,
		"count":    len(curve),
	})
}

// GetROIBuckets partitions one strategy's bets by implied probability
// Query params: strategy, step, prob_min, prob_max, start, end
func (h *Handler) GetROIBuckets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	strategy, err := strategyParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	games, err := h.gamesForRange(ctx, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	cfg := h.engine.Defaults()
	step := parseFloatParam(r, "step", cfg.BucketStep)
	probMin := parseFloatParam(r, "prob_min", cfg.ProbMin)
	probMax := parseFloatParam(r, "prob_max", cfg.ProbMax)
	if step <= 0 || probMin < 0 || probMax <= probMin {
		respondError(w, http.StatusBadRequest, "invalid bucket parameters", nil)
		return
	}

	report := analytics.ROIBuckets(games, strategy, step, probMin, probMax)
	respondJSON(w, http.StatusOK, report)
}

// GetCalibration returns the persisted favorite-calibration buckets
func (h *Handler) GetCalibration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	buckets, err := h.store.ListCalibration(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve calibration", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"buckets": buckets,
		"count":   len(buckets),
	})
}

// GetBookMargins returns the persisted per-book overround summary
func (h *Handler) GetBookMargins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	margins, err := h.store.ListBookMargins(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve book margins", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"books": margins,
		"count": len(margins),
	})
}

// GetBestPriceFrequency returns how often each book held the best price
func (h *Handler) GetBestPriceFrequency(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	freq, err := h.store.ListBestPriceFrequency(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve best price frequency", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"books": freq,
		"count": len(freq),
	})
}

// GetKPIs returns the persisted dashboard headline numbers
func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	kpis, err := h.store.GetKPIs(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve kpis", err)
		return
	}

	respondJSON(w, http.StatusOK, kpis)
}

// GetQuality runs the data-consistency probes on demand
func (h *Handler) GetQuality(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	checks, err := h.engine.QualityReport(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to run quality checks", err)
		return
	}

	passed := true
	for _, c := range checks {
		if !c.Passed {
			passed = false
			break
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"passed": passed,
		"checks": checks,
	})
}
