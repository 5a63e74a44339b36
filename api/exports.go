package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/warp/tuition-engine/export"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// rendered is a formatted export ready to be sent somewhere.
type rendered struct {
	doc         export.Document
	format      export.Format
	contentType string
	fileName    string
	body        []byte
}

// render resolves the student and program, generates the plan and formats it.
// Empty codes fail with the "no student/program selected" preconditions.
func (h *Handler) render(ctx context.Context, code tuition.StudentCode, id tuition.ProgramID, format, refDate string) (*rendered, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	ref, err := h.referenceDate(refDate)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, tuition.ErrMissingStudent
	}
	if id == "" {
		return nil, tuition.ErrMissingProgram
	}

	student, err := h.Students.GetStudent(ctx, code)
	if err != nil {
		return nil, err
	}
	program, err := h.Catalog.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := h.Generator.Generate(*program, ref)
	h.Metrics.PlanGenerated()

	formatter, err := export.NewFormatter(f, h.Export)
	if err != nil {
		return nil, err
	}
	doc := export.Document{
		Student:     *student,
		Program:     *program,
		Plan:        plan,
		GeneratedOn: tuition.DateOf(h.now()),
	}
	body, err := export.Render(formatter, doc)
	if err != nil {
		return nil, err
	}

	return &rendered{
		doc:         doc,
		format:      f,
		contentType: formatter.ContentType(),
		fileName:    export.FileName(doc, formatter.Extension()),
		body:        body,
	}, nil
}

// DownloadPlan streams the formatted plan as an attachment.
// GET /api/plans/export?student=CODE&program=ID&format=csv|xlsx&reference_date=
func (h *Handler) DownloadPlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.render(r.Context(),
		tuition.StudentCode(q.Get("student")), tuition.ProgramID(q.Get("program")),
		q.Get("format"), q.Get("reference_date"),
	)
	if err != nil {
		h.writeDomainError(w, r, "Failed to export plan", err)
		return
	}
	h.Metrics.Exported(string(out.format), "download")

	w.Header().Set("Content-Type", out.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.body)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.body)
}

// ArchivePlan renders a plan, stores it in the configured sink and records
// a receipt.
// POST /api/plans/exports
func (h *Handler) ArchivePlan(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid export request", err)
		return
	}
	if h.Sink == nil || h.Receipts == nil {
		h.writeDomainError(w, r, "Archiving is disabled", errSinkDisabled)
		return
	}
	ctx := r.Context()

	out, err := h.render(ctx,
		tuition.StudentCode(req.StudentCode), tuition.ProgramID(req.ProgramID),
		req.Format, req.ReferenceDate,
	)
	if err != nil {
		h.writeDomainError(w, r, "Failed to export plan", err)
		return
	}

	location, err := h.Sink.Put(ctx, out.fileName, out.contentType, out.body)
	if err != nil {
		h.writeDomainError(w, r, "Failed to archive plan", err)
		return
	}

	receipt := tuition.ExportReceipt{
		ID:          ulid.Make().String(),
		Token:       uuid.NewString(),
		StudentCode: out.doc.Student.Code,
		ProgramID:   out.doc.Program.ID,
		Format:      string(out.format),
		Sink:        h.Sink.Name(),
		Location:    location,
		FileName:    out.fileName,
		CreatedAt:   h.now().UTC(),
	}
	if err := h.Receipts.SaveReceipt(ctx, receipt); err != nil {
		h.writeDomainError(w, r, "Failed to record export", err)
		return
	}
	h.Metrics.Exported(string(out.format), h.Sink.Name())

	h.Logger.InfoContext(ctx, "plan archived",
		"receipt", receipt.ID, "student", receipt.StudentCode, "program", receipt.ProgramID,
		"sink", receipt.Sink, "location", location)

	writeJSON(w, http.StatusCreated, toReceiptDTO(receipt))
}

// ListExports returns archived exports, newest first.
// GET /api/plans/exports?student=CODE
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	if h.Receipts == nil {
		writeJSON(w, http.StatusOK, map[string]any{"exports": []ReceiptDTO{}})
		return
	}

	receipts, err := h.Receipts.ListReceipts(r.Context(), tuition.StudentCode(r.URL.Query().Get("student")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to list exports", err)
		return
	}

	dtos := make([]ReceiptDTO, 0, len(receipts))
	for _, rc := range receipts {
		dtos = append(dtos, toReceiptDTO(rc))
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": dtos})
}
