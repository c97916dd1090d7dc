package handlers

import (
	"context"
	"net/http"
	"time"
)

// GetJoinedGames returns reconciled games, optionally narrowed to a date
// range
// Query params: start, end (inclusive local days), limit, offset
func (h *Handler) GetJoinedGames(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	games, err := h.gamesForRange(ctx, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	limit := parseIntParam(r, "limit", 500)
	if limit > 2000 {
		limit = 2000
	}
	offset := parseIntParam(r, "offset", 0)

	total := len(games)
	if offset > total {
		offset = total
	}
	endIdx := offset + limit
	if endIdx > total {
		endIdx = total
	}
	page := games[offset:endIdx]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"games":  page,
		"count":  len(page),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetUnmatched lists market events the identity resolver could not link,
// with the reason for each
func (h *Handler) GetUnmatched(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	unmatched, err := h.linker.Unmatched(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute unmatched events", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"unmatched": unmatched,
		"count":     len(unmatched),
	})
}
