package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

// ListStudents returns all students.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Students.ListStudents(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list students", err)
		return
	}

	dtos := make([]StudentDTO, 0, len(students))
	for _, s := range students {
		dtos = append(dtos, toStudentDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetStudent returns a single student.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	code := tuition.StudentCode(chi.URLParam(r, "code"))

	student, err := h.Students.GetStudent(r.Context(), code)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get student", err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(*student))
}

// CreateStudent registers a student. The optional program must exist.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req StudentDTO
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid student", err)
		return
	}
	ctx := r.Context()

	_, err := h.Students.GetStudent(ctx, tuition.StudentCode(req.Code))
	switch {
	case err == nil:
		h.writeDomainError(w, r, "Student already exists", errors.Wrapf(tuition.ErrDuplicate, "student %s", req.Code))
		return
	case !tuition.IsNotFound(err):
		h.writeDomainError(w, r, "Failed to create student", err)
		return
	}

	if req.ProgramID != "" {
		if _, err := h.Catalog.GetProgram(ctx, tuition.ProgramID(req.ProgramID)); err != nil {
			h.writeDomainError(w, r, "Unknown program_id", err)
			return
		}
	}

	student := req.toStudent()
	if err := h.Students.SaveStudent(ctx, student); err != nil {
		h.writeDomainError(w, r, "Failed to create student", err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

// DeleteStudent removes a student. Archived receipts are kept.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	code := tuition.StudentCode(chi.URLParam(r, "code"))

	if err := h.Students.DeleteStudent(r.Context(), code); err != nil {
		h.writeDomainError(w, r, "Failed to delete student", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
