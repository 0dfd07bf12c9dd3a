package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	// Public routes
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Routes behind the shared-secret header
	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)

		r.Get("/api/data", s.handleSensorData)
		r.Get("/api/plant/{id}", s.handlePlant)
		r.Get("/api/Store", s.handleStoreProducts)
		r.Get("/api/audit", s.handleListAudit)
		r.Get("/cron", s.handleCron)
	})

	return r
}
