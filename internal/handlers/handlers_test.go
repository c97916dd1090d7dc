package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/vjeyam/sports-odds-pipeline/pkg/models"
)

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"Present", "/x?limit=50", 50},
		{"Absent uses default", "/x", 100},
		{"Garbage uses default", "/x?limit=abc", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := parseIntParam(r, "limit", 100); got != tt.want {
				t.Errorf("parseIntParam = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFloatParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?step=0.1", nil)
	if got := parseFloatParam(r, "step", 0.05); got != 0.1 {
		t.Errorf("parseFloatParam = %f, want 0.1", got)
	}

	r = httptest.NewRequest("GET", "/x", nil)
	if got := parseFloatParam(r, "step", 0.05); got != 0.05 {
		t.Errorf("parseFloatParam default = %f, want 0.05", got)
	}
}

func TestStrategyParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?strategy=underdog", nil)
	s, err := strategyParam(r)
	if err != nil || s != models.StrategyUnderdog {
		t.Errorf("strategyParam = %s, %v; want underdog", s, err)
	}

	r = httptest.NewRequest("GET", "/x", nil)
	s, err = strategyParam(r)
	if err != nil || s != models.StrategyFavorite {
		t.Errorf("strategyParam default = %s, %v; want favorite", s, err)
	}

	r = httptest.NewRequest("GET", "/x?strategy=martingale", nil)
	if _, err := strategyParam(r); err == nil {
		t.Error("unknown strategy should be rejected")
	}
}

func TestRequireRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?start=2025-01-01&end=2025-01-31", nil)
	start, end, err := requireRange(r)
	if err != nil || start != "2025-01-01" || end != "2025-01-31" {
		t.Errorf("requireRange = %s, %s, %v", start, end, err)
	}

	r = httptest.NewRequest("GET", "/x?start=2025-01-01", nil)
	if _, _, err := requireRange(r); err == nil {
		t.Error("missing end should be rejected")
	}
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, 409, "a pipeline run is already in progress", nil)

	if w.Code != 409 {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s, want application/json", ct)
	}

	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body.Code != 409 || body.Message != "a pipeline run is already in progress" {
		t.Errorf("body = %+v", body)
	}
}
