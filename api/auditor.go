/*
auditor.go - Background catalog consistency auditor

PURPOSE:
  Periodically generates the plan of every catalog program and checks that
  the semester totals add up to the advertised cost. The generator never
  enforces that; the auditor is where a mismatch becomes visible.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Checks once immediately on start
  - Records one AuditRun per program per pass (consistent, mismatch, failed)
  - Publishes the mismatch count as a gauge

CONFIGURATION:
  - Interval: How often to check (default: 1 hour)
  - Enabled:  Whether the auditor is active (default: true)

USAGE:
  auditor := NewCatalogAuditor(catalog, audits)
  auditor.Start()
  // ... later
  auditor.Stop()

SEE ALSO:
  - handlers.go: RunAudit endpoint (manual pass)
  - tuition/reconcile.go: Reconcile
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/warp/tuition-engine/metrics"
	"github.com/warp/tuition-engine/tuition"
)

// DefaultAuditInterval is used when no interval is configured.
const DefaultAuditInterval = time.Hour

// CatalogAuditor reconciles catalog programs against their own plans.
type CatalogAuditor struct {
	Catalog   tuition.ProgramCatalog
	Audits    tuition.AuditStore
	Generator *tuition.Generator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Interval  time.Duration
	Enabled   bool

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCatalogAuditor creates an enabled auditor with the default interval.
func NewCatalogAuditor(catalog tuition.ProgramCatalog, audits tuition.AuditStore) *CatalogAuditor {
	return &CatalogAuditor{
		Catalog:   catalog,
		Audits:    audits,
		Generator: tuition.NewGenerator(),
		Logger:    slog.Default(),
		Interval:  DefaultAuditInterval,
		Enabled:   true,
		now:       time.Now,
	}
}

// Start begins the background loop.
func (a *CatalogAuditor) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.logger()
	if !a.Enabled {
		log.Info("disabled, not starting")
		return
	}
	if a.ticker != nil {
		return
	}
	if a.Interval <= 0 {
		a.Interval = DefaultAuditInterval
	}

	a.ticker = time.NewTicker(a.Interval)
	a.stop = make(chan struct{})
	a.wg.Add(1)

	go a.run()

	log.Info("started", "interval", a.Interval)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (a *CatalogAuditor) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	close(a.stop)
	a.wg.Wait()
	a.ticker = nil
	a.logger().Info("stopped")
}

func (a *CatalogAuditor) run() {
	defer a.wg.Done()

	a.pass()
	for {
		select {
		case <-a.ticker.C:
			a.pass()
		case <-a.stop:
			return
		}
	}
}

func (a *CatalogAuditor) pass() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-a.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := a.RunOnce(ctx); err != nil {
		a.logger().Error("audit pass failed", "error", err)
	}
}

// RunOnce audits every program in the catalog once, as of today.
func (a *CatalogAuditor) RunOnce(ctx context.Context) (AuditSummaryDTO, error) {
	var summary AuditSummaryDTO
	log := a.logger()

	programs, err := a.Catalog.ListPrograms(ctx)
	if err != nil {
		return summary, err
	}

	now := a.clock()
	today := tuition.DateOf(now())
	for _, program := range programs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		started := now()
		run := a.check(program, today, started, now)
		if err := a.Audits.SaveAuditRun(ctx, run); err != nil {
			log.ErrorContext(ctx, "saving audit run", "program", program.ID, "error", err)
		}

		summary.Checked++
		switch run.Status {
		case tuition.AuditMismatch:
			summary.Mismatches++
			log.WarnContext(ctx, "plan does not add up to advertised cost",
				"program", program.ID,
				"difference", run.Difference.String(),
				"error", run.Error,
			)
		case tuition.AuditFailed:
			summary.Failed++
			log.ErrorContext(ctx, "audit failed", "program", program.ID, "error", run.Error)
		}
	}

	a.Metrics.SetAuditMismatches(summary.Mismatches)
	log.InfoContext(ctx, "audit pass completed",
		"checked", summary.Checked, "mismatches", summary.Mismatches, "failed", summary.Failed)

	return summary, nil
}

// check reconciles one program. A panic in plan generation is recorded as a
// failed run.
func (a *CatalogAuditor) check(program tuition.Program, today tuition.Date, started time.Time, now func() time.Time) (run tuition.AuditRun) {
	id := ulid.Make().String()
	defer func() {
		if r := recover(); r != nil {
			run = tuition.AuditRun{
				ID:          id,
				ProgramID:   program.ID,
				Status:      tuition.AuditFailed,
				Advertised:  program.TotalCost,
				Planned:     tuition.Zero(program.Currency()),
				Difference:  tuition.Zero(program.Currency()),
				Error:       "plan generation panicked",
				StartedAt:   started,
				CompletedAt: now(),
			}
		}
	}()

	gen := a.Generator
	if gen == nil {
		gen = tuition.NewGenerator()
	}
	plan := gen.Generate(program, today)
	return tuition.NewAuditRun(id, tuition.Reconcile(program, plan), started, now())
}

func (a *CatalogAuditor) clock() func() time.Time {
	if a.now == nil {
		return time.Now
	}
	return a.now
}

func (a *CatalogAuditor) logger() *slog.Logger {
	l := a.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "auditor")
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// ListAuditRuns returns audit runs, newest first.
// GET /api/audits?status=consistent|mismatch|failed
func (h *Handler) ListAuditRuns(w http.ResponseWriter, r *http.Request) {
	if h.Audits == nil {
		writeJSON(w, http.StatusOK, map[string]any{"runs": []AuditRunDTO{}})
		return
	}

	status := tuition.AuditStatus(r.URL.Query().Get("status"))
	switch status {
	case "", tuition.AuditConsistent, tuition.AuditMismatch, tuition.AuditFailed:
	default:
		writeError(w, http.StatusBadRequest, "Invalid status filter",
			&ValidationError{Fields: map[string]string{"status": "must be one of consistent, mismatch, failed"}})
		return
	}

	runs, err := h.Audits.ListAuditRuns(r.Context(), status)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list audit runs", err)
		return
	}

	dtos := make([]AuditRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toAuditRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// RunAudit runs an audit pass synchronously.
// POST /api/audits/run
func (h *Handler) RunAudit(w http.ResponseWriter, r *http.Request) {
	if h.Auditor == nil {
		writeError(w, http.StatusServiceUnavailable, "Auditing is disabled", nil)
		return
	}

	summary, err := h.Auditor.RunOnce(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Audit failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
