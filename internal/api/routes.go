// Package api exposes extraction, analysis and the caches over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter creates and configures the Chi router
func NewRouter(deps Deps, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(Logger(log))
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	h := NewHandlers(deps, log)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", h.Extract)
		r.Post("/fetch", h.Fetch)
		r.Get("/properties", h.ListProperties)
		r.Get("/property", h.GetProperty)
		r.Post("/analyze", h.Analyze)
		r.Get("/analyses", h.ListAnalyses)
		r.Get("/analysis", h.GetAnalysis)
		r.Get("/demographics/{postcode}", h.Demographics)
		r.Get("/forecast", h.Forecast)
	})

	return r
}
