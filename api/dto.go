/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Programs:  factory.ProgramJSON (same contract as the remote catalog)
  Plans:     PlanDTO, InstallmentDTO, FeeDTO, ReconciliationDTO
  Students:  StudentDTO
  Exports:   ExportRequest, ReceiptDTO
  Audits:    AuditRunDTO, AuditSummaryDTO

MONEY:
  Amounts are rendered as fixed two-decimal strings ("3650.00") so clients
  never see binary floating point.

VALIDATION:
  Request types carry go-playground/validator tags; see validate.go.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/program.go: ProgramJSON type
*/
package api

import (
	"time"

	"github.com/warp/tuition-engine/export"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// PLANS
// =============================================================================

// PlanDTO is a generated payment plan.
type PlanDTO struct {
	ProgramID      string            `json:"program_id"`
	ProgramName    string            `json:"program_name"`
	Modality       string            `json:"modality"`
	ReferenceDate  string            `json:"reference_date"`
	Currency       string            `json:"currency"`
	Installments   []InstallmentDTO  `json:"installments"`
	GrandTotal     string            `json:"grand_total"`
	Reconciliation ReconciliationDTO `json:"reconciliation"`
}

// InstallmentDTO is one semester of a plan.
type InstallmentDTO struct {
	Semester         int      `json:"semester"`
	Label            string   `json:"label"`
	PeriodStart      string   `json:"period_start"`
	PeriodEnd        string   `json:"period_end"`
	Tuition          string   `json:"tuition"`
	AdditionalFees   []FeeDTO `json:"additional_fees"`
	FeesTotal        string   `json:"fees_total"`
	TotalForSemester string   `json:"total_for_semester"`
}

type FeeDTO struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// ReconciliationDTO compares the plan with the advertised program cost.
type ReconciliationDTO struct {
	Consistent      bool   `json:"consistent"`
	AdvertisedTotal string `json:"advertised_total"`
	PlannedTotal    string `json:"planned_total"`
	Difference      string `json:"difference"`
}

func toPlanDTO(program tuition.Program, plan tuition.Plan) PlanDTO {
	rec := tuition.Reconcile(program, plan)
	dto := PlanDTO{
		ProgramID:     string(program.ID),
		ProgramName:   program.Name,
		Modality:      program.Modality,
		ReferenceDate: plan.ReferenceDate.String(),
		Currency:      string(plan.Currency),
		Installments:  make([]InstallmentDTO, 0, plan.Len()),
		GrandTotal:    plan.GrandTotal().String(),
		Reconciliation: ReconciliationDTO{
			Consistent:      rec.Consistent(),
			AdvertisedTotal: rec.Advertised.String(),
			PlannedTotal:    rec.Planned.String(),
			Difference:      rec.Difference.String(),
		},
	}

	for _, inst := range plan.Installments {
		fees := make([]FeeDTO, 0, len(inst.AdditionalFees))
		feesTotal := tuition.Zero(plan.Currency)
		for _, f := range inst.AdditionalFees {
			fees = append(fees, FeeDTO{Label: f.Label, Amount: f.Amount.String()})
			feesTotal = feesTotal.Add(f.Amount)
		}
		dto.Installments = append(dto.Installments, InstallmentDTO{
			Semester:         inst.SemesterIndex,
			Label:            export.SemesterLabel(inst.SemesterIndex),
			PeriodStart:      inst.PeriodStart.String(),
			PeriodEnd:        inst.PeriodEnd.String(),
			Tuition:          inst.Tuition.String(),
			AdditionalFees:   fees,
			FeesTotal:        feesTotal.String(),
			TotalForSemester: inst.TotalForSemester.String(),
		})
	}
	return dto
}

// =============================================================================
// STUDENTS
// =============================================================================

// StudentDTO is both the create request and the response.
type StudentDTO struct {
	Code      string `json:"code" validate:"required,code,max=32"`
	Name      string `json:"name" validate:"required,max=200"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	ProgramID string `json:"program_id,omitempty" validate:"omitempty,code"`
}

func toStudentDTO(s tuition.Student) StudentDTO {
	return StudentDTO{
		Code:      string(s.Code),
		Name:      s.Name,
		Email:     s.Email,
		ProgramID: string(s.ProgramID),
	}
}

func (d StudentDTO) toStudent() tuition.Student {
	return tuition.Student{
		Code:      tuition.StudentCode(d.Code),
		Name:      d.Name,
		Email:     d.Email,
		ProgramID: tuition.ProgramID(d.ProgramID),
	}
}

// =============================================================================
// EXPORTS
// =============================================================================

// ExportRequest asks for a plan to be rendered and archived. Missing
// student or program codes surface as the "no student/program selected"
// precondition errors rather than field validation errors.
type ExportRequest struct {
	StudentCode   string `json:"student_code"`
	ProgramID     string `json:"program_id"`
	Format        string `json:"format" validate:"omitempty,oneof=csv xlsx CSV XLSX"`
	ReferenceDate string `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`
}

// ReceiptDTO describes an archived export.
type ReceiptDTO struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	StudentCode string `json:"student_code"`
	ProgramID   string `json:"program_id"`
	Format      string `json:"format"`
	Sink        string `json:"sink"`
	Location    string `json:"location"`
	FileName    string `json:"file_name"`
	CreatedAt   string `json:"created_at"`
}

func toReceiptDTO(r tuition.ExportReceipt) ReceiptDTO {
	return ReceiptDTO{
		ID:          r.ID,
		Token:       r.Token,
		StudentCode: string(r.StudentCode),
		ProgramID:   string(r.ProgramID),
		Format:      r.Format,
		Sink:        r.Sink,
		Location:    r.Location,
		FileName:    r.FileName,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// AUDITS
// =============================================================================

type AuditRunDTO struct {
	ID          string `json:"id"`
	ProgramID   string `json:"program_id"`
	Status      string `json:"status"`
	Advertised  string `json:"advertised_total"`
	Planned     string `json:"planned_total"`
	Difference  string `json:"difference"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	CompletedAt string `json:"completed_at"`
}

func toAuditRunDTO(r tuition.AuditRun) AuditRunDTO {
	return AuditRunDTO{
		ID:          r.ID,
		ProgramID:   string(r.ProgramID),
		Status:      string(r.Status),
		Advertised:  r.Advertised.String(),
		Planned:     r.Planned.String(),
		Difference:  r.Difference.String(),
		Error:       r.Error,
		StartedAt:   r.StartedAt.Format(time.RFC3339),
		CompletedAt: r.CompletedAt.Format(time.RFC3339),
	}
}

// AuditSummaryDTO is returned by a manual audit pass.
type AuditSummaryDTO struct {
	Checked    int `json:"checked"`
	Mismatches int `json:"mismatches"`
	Failed     int `json:"failed"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
