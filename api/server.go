/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the enrollment frontend

ROUTE GROUPS:
  /api/programs/*       Catalog and plan generation
  /api/students/*       Student registry
  /api/plans/*          Plan exports and archive history
  /api/audits/*         Consistency audits
  /api/catalog/seed     Demo catalog loader
  /metrics              Prometheus scrape endpoint
  /healthz              Liveness and storage check

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Program routes
		r.Route("/programs", func(r chi.Router) {
			r.Get("/", h.ListPrograms)
			r.Post("/", h.CreateProgram)
			r.Get("/{id}", h.GetProgram)
			r.Put("/{id}", h.UpdateProgram)
			r.Delete("/{id}", h.DeleteProgram)
			r.Get("/{id}/plan", h.GetPlan)
		})

		// Student routes
		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.ListStudents)
			r.Post("/", h.CreateStudent)
			r.Get("/{code}", h.GetStudent)
			r.Delete("/{code}", h.DeleteStudent)
		})

		// Export routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/export", h.DownloadPlan)
			r.Get("/exports", h.ListExports)
			r.Post("/exports", h.ArchivePlan)
		})

		// Audit routes
		r.Route("/audits", func(r chi.Router) {
			r.Get("/", h.ListAuditRuns)
			r.Post("/run", h.RunAudit)
		})

		r.Post("/catalog/seed", h.SeedCatalog)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Tuition Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Tuition Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/programs">/api/programs</a> - Program catalog</li>
<li><a href="/api/students">/api/students</a> - Students</li>
<li><a href="/api/plans/exports">/api/plans/exports</a> - Archived exports</li>
<li><a href="/api/audits">/api/audits</a> - Consistency audits</li>
</ul>
</body>
</html>`))
	})

	return r
}
