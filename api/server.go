/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions. This is
  the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server: Server startup and graceful shutdown
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Charge routes
		r.Route("/charges", func(r chi.Router) {
			r.Get("/site/{siteID}", h.ListSiteCharges)
			r.Get("/site/{siteID}/totals", h.GetSiteTotals)
			r.Post("/", h.CreateCharge)
			r.Put("/{id}", h.UpdateCharge)
			r.Delete("/{id}", h.DeleteCharge)
			r.Post("/personnel/preview", h.PreviewBillable)
		})

		// Transport fee routes
		r.Post("/transport-fees/{date}", h.ApplyTransportFees)
		r.Route("/transport-config", func(r chi.Router) {
			r.Get("/", h.GetTransportConfig)
			r.Put("/", h.PutTransportConfig)
		})

		// Overhead distribution routes
		r.Post("/overhead-charges/{date}", h.ApplyOverheadCharges)
		r.Route("/overhead-registry", func(r chi.Router) {
			r.Get("/", h.GetOverheadRegistry)
			r.Put("/", h.PutOverheadRegistry)
		})

		// Job site routes
		r.Route("/job-sites", func(r chi.Router) {
			r.Get("/", h.ListJobSites)
			r.Post("/", h.CreateJobSite)
			r.Get("/{id}", h.GetJobSite)
		})

		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
		})
	})

	return r
}
