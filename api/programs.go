package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// PROGRAM HANDLERS
// =============================================================================

// ListPrograms returns the catalog.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.Catalog.ListPrograms(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list programs", err)
		return
	}

	dtos := make([]factory.ProgramJSON, 0, len(programs))
	for _, p := range programs {
		dtos = append(dtos, factory.ToJSON(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProgram returns a single program.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id := tuition.ProgramID(chi.URLParam(r, "id"))

	program, err := h.Catalog.GetProgram(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get program", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(*program))
}

// CreateProgram adds a program to a writable catalog.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Catalog.(tuition.ProgramWriter)
	if !ok {
		h.writeDomainError(w, r, "Catalog is read-only", tuition.ErrReadOnlyCatalog)
		return
	}

	program, err := h.decodeProgram(r)
	if err != nil {
		h.writeDomainError(w, r, "Invalid program", err)
		return
	}

	_, err = h.Catalog.GetProgram(r.Context(), program.ID)
	switch {
	case err == nil:
		h.writeDomainError(w, r, "Program already exists", errors.Wrapf(tuition.ErrDuplicate, "program %s", program.ID))
		return
	case !tuition.IsNotFound(err):
		h.writeDomainError(w, r, "Failed to create program", err)
		return
	}

	if err := writer.SaveProgram(r.Context(), *program); err != nil {
		h.writeDomainError(w, r, "Failed to create program", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.ToJSON(*program))
}

// UpdateProgram replaces an existing program. The path id wins over the body.
func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Catalog.(tuition.ProgramWriter)
	if !ok {
		h.writeDomainError(w, r, "Catalog is read-only", tuition.ErrReadOnlyCatalog)
		return
	}
	id := tuition.ProgramID(chi.URLParam(r, "id"))

	if _, err := h.Catalog.GetProgram(r.Context(), id); err != nil {
		h.writeDomainError(w, r, "Failed to update program", err)
		return
	}

	program, err := h.decodeProgram(r, id)
	if err != nil {
		h.writeDomainError(w, r, "Invalid program", err)
		return
	}

	if err := writer.SaveProgram(r.Context(), *program); err != nil {
		h.writeDomainError(w, r, "Failed to update program", err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(*program))
}

// DeleteProgram removes a program from a writable catalog.
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	writer, ok := h.Catalog.(tuition.ProgramWriter)
	if !ok {
		h.writeDomainError(w, r, "Catalog is read-only", tuition.ErrReadOnlyCatalog)
		return
	}
	id := tuition.ProgramID(chi.URLParam(r, "id"))

	if err := writer.DeleteProgram(r.Context(), id); err != nil {
		h.writeDomainError(w, r, "Failed to delete program", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeProgram reads a ProgramJSON body. An optional path id overrides
// the body's id.
func (h *Handler) decodeProgram(r *http.Request, pathID ...tuition.ProgramID) (*tuition.Program, error) {
	var pj factory.ProgramJSON
	if len(pathID) > 0 {
		pj.ID = string(pathID[0])
	}
	if err := h.decode(r, &pj); err != nil {
		return nil, err
	}
	if len(pathID) > 0 {
		pj.ID = string(pathID[0])
	}
	return h.factory.FromJSON(pj)
}

// =============================================================================
// PLAN HANDLER
// =============================================================================

// GetPlan generates the payment plan for a program.
// GET /api/programs/{id}/plan?reference_date=YYYY-MM-DD
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := tuition.ProgramID(chi.URLParam(r, "id"))

	ref, err := h.referenceDate(r.URL.Query().Get("reference_date"))
	if err != nil {
		h.writeDomainError(w, r, "Invalid reference_date", err)
		return
	}

	program, err := h.Catalog.GetProgram(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get program", err)
		return
	}

	plan := h.Generator.Generate(*program, ref)
	h.Metrics.PlanGenerated()

	writeJSON(w, http.StatusOK, toPlanDTO(*program, plan))
}
