/*
handlers.go - HTTP API handlers for the tuition payment plan service

PURPOSE:
  Exposes the plan generator, the program catalog and the export pipeline
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the tuition, export and store packages.

ENDPOINTS:
  Programs:
    GET    /api/programs                 List catalog programs
    POST   /api/programs                 Create program (writable catalogs)
    GET    /api/programs/{id}            Get program
    PUT    /api/programs/{id}            Replace program
    DELETE /api/programs/{id}            Delete program
    GET    /api/programs/{id}/plan       Generate the payment plan

  Students:
    GET    /api/students                 List students
    POST   /api/students                 Register student
    GET    /api/students/{code}          Get student
    DELETE /api/students/{code}          Remove student

  Exports:
    GET    /api/plans/export             Download plan as CSV or XLSX
    POST   /api/plans/exports            Render and archive to the sink
    GET    /api/plans/exports            Archive history

  Audits:
    GET    /api/audits                   Consistency audit runs
    POST   /api/audits/run               Run an audit pass now

  Catalog:
    POST   /api/catalog/seed             Load the demo catalog

ARCHITECTURE:
  Handler struct holds all dependencies as interfaces, so the same handlers
  run over the SQL store, the in-memory store, or a cached remote catalog.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, missing student/program, bad dates or formats
  - 404: Program or student not found
  - 405: Write to a read-only catalog
  - 409: Duplicate
  - 502: Remote catalog unavailable
  - 503: Archive requested with no sink configured
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Demo catalog loader
  - auditor.go: Background consistency auditor
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/export"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/metrics"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Deps are the collaborators a Handler needs. Catalog and Students are
// required; the rest fall back to sensible defaults.
type Deps struct {
	Catalog   tuition.ProgramCatalog
	Students  tuition.StudentStore
	Receipts  tuition.ReceiptStore
	Audits    tuition.AuditStore
	Generator *tuition.Generator
	Export    export.Options
	Sink      export.Sink // nil disables archiving
	Auditor   *CatalogAuditor
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Currency  tuition.Currency
	Health    func(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Deps

	factory   *factory.ProgramFactory
	validator *Validator
	now       func() time.Time
}

// NewHandler creates a handler over the given dependencies.
func NewHandler(deps Deps) *Handler {
	if deps.Generator == nil {
		deps.Generator = tuition.NewGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{
		Deps:      deps,
		factory:   factory.NewProgramFactory(deps.Currency),
		validator: NewValidator(),
		now:       time.Now,
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Healthz reports liveness and, when configured, storage reachability.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Storage unreachable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

var errSinkDisabled = errors.New("no export sink configured")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Code = "validation_failed"
		resp.Details = verr.Fields
	case err != nil:
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, message, err)
	case tuition.IsClientError(err), errors.Is(err, factory.ErrInvalidProgram):
		writeError(w, http.StatusBadRequest, message, err)
	case tuition.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, tuition.ErrReadOnlyCatalog):
		writeError(w, http.StatusMethodNotAllowed, message, err)
	case errors.Is(err, tuition.ErrDuplicate):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, tuition.ErrCatalogUnavailable):
		writeError(w, http.StatusBadGateway, message, err)
	case errors.Is(err, errSinkDisabled):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		h.Logger.ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ValidationError{Fields: map[string]string{"body": "invalid JSON: " + err.Error()}}
	}
	return h.validator.Struct(dst)
}

// referenceDate parses an optional YYYY-MM-DD value; empty means today.
func (h *Handler) referenceDate(s string) (tuition.Date, error) {
	if s == "" {
		return tuition.DateOf(h.now()), nil
	}
	return tuition.ParseDate(s)
}
