/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/yarn-stock/*        Yarn stock ledger
  /api/unfinished-goods/*  Unfinished goods ledger
  /api/pokas/*             Finished units
  /api/production/*        Daily machine-production log
  /api/dashboard/*         Aggregate snapshot

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Ledger routes, shared by both kinds
		r.Route("/{kind:yarn-stock|unfinished-goods}", func(r chi.Router) {
			r.Get("/", h.ListLedgerEntries)
			r.Post("/", h.CreateLedgerEntry)
			r.Get("/opening-balance", h.GetOpeningBalance)
			r.Post("/recalculate", h.RecalculateLedger)
			r.Put("/{id}", h.UpdateLedgerEntry)
			r.Delete("/{id}", h.DeleteLedgerEntry)
		})

		// Poka routes
		r.Route("/pokas", func(r chi.Router) {
			r.Get("/", h.ListPokas)
			r.Post("/", h.ProducePokas)
			r.Patch("/actions", h.PokaAction)
			r.Get("/balance", h.GetFinishedBalance)
			r.Patch("/{id}", h.CorrectPoka)
			r.Delete("/{id}", h.DeletePoka)
		})

		// Production log routes
		r.Route("/production", func(r chi.Router) {
			r.Get("/", h.ListProductionEntries)
			r.Post("/", h.CreateProductionEntry)
			r.Get("/analysis", h.GetProductionAnalysis)
			r.Get("/{date}", h.GetProductionEntry)
			r.Put("/{date}", h.UpdateProductionEntry)
			r.Delete("/{date}", h.DeleteProductionEntry)
		})

		// Dashboard routes
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", h.GetDashboardStats)
		})
	})

	return r
}
