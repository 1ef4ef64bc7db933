/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the POS frontend

ROUTE GROUPS:
  /api/health            Liveness check (open)
  /api/unlock            PIN check for the client lock screen (open)
  /api/sales/daily ...   Revenue summaries (open, read-only)
  /api/products          Catalog read/replace (PIN)
  /api/sales             Sale ingestion (PIN)
  /api/backup            Raw database download (PIN)
  /api/admin/seed        Demo data loader (PIN)

AUTHORIZATION:
  The PIN is injected configuration (see cmd/server/main.go) and compared
  by requirePIN against the X-PIN header. The core never sees it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-PIN"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Open endpoints
		r.Get("/health", h.Health)
		r.Post("/unlock", h.Unlock)

		// Read-only revenue summaries
		r.Route("/sales", func(r chi.Router) {
			r.Get("/daily", h.DailySales)
			r.Get("/monthly", h.MonthlySales)
			r.Get("/monthly.csv", h.MonthlyCSV)
			r.Get("/latest", h.LatestSales)
			r.Get("/stats", h.SalesStats)

			r.With(h.requirePIN).Post("/", h.RecordSale)
		})

		// PIN-gated endpoints
		r.Group(func(r chi.Router) {
			r.Use(h.requirePIN)
			r.Get("/products", h.ListProducts)
			r.Post("/products", h.ReplaceProducts)
			r.Get("/backup", h.Backup)
			r.Post("/admin/seed", h.SeedDemo)
		})
	})

	return r
}

// requirePIN rejects requests whose X-PIN header does not match the
// configured PIN.
func (h *Handler) requirePIN(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-PIN") != h.pin {
			writeError(w, http.StatusForbidden, "PIN required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
