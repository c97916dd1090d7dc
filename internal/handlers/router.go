package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vjeyam/sports-odds-pipeline/internal/middleware"
)

// NewRouter wires every route behind the shared middleware stack
func NewRouter(h *Handler, corsOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/ws", h.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		// Joined facts
		r.Get("/games/joined", h.GetJoinedGames)
		r.Get("/games/unmatched", h.GetUnmatched)

		// Strategy analytics
		r.Get("/analytics/summary", h.GetAnalyticsSummary)
		r.Get("/analytics/daily", h.GetDailySummaries)
		r.Get("/strategies/summary", h.GetStrategySummaries)
		r.Get("/strategies/equity", h.GetEquityCurve)
		r.Get("/strategies/roi-buckets", h.GetROIBuckets)

		// Persisted summaries
		r.Get("/calibration/favorite", h.GetCalibration)
		r.Get("/books/margins", h.GetBookMargins)
		r.Get("/books/best-price-frequency", h.GetBestPriceFrequency)
		r.Get("/kpis", h.GetKPIs)
		r.Get("/quality", h.GetQuality)

		// Pipeline control
		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/runs", h.StartRun)
			r.Get("/runs", h.ListRuns)
			r.Get("/runs/{runID}", h.GetRun)
			r.Post("/cancel", h.CancelRun)
			r.Put("/lock", h.SetLock)
			r.Get("/lock", h.GetLock)
		})
	})

	return r
}
