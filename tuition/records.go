package tuition

import "time"

// ExportReceipt records one archived export.
type ExportReceipt struct {
	ID          string // ULID, sorts by creation time
	Token       string // opaque download token
	StudentCode StudentCode
	ProgramID   ProgramID
	Format      string
	Sink        string
	Location    string
	FileName    string
	CreatedAt   time.Time
}

// AuditStatus is the outcome of checking one program.
type AuditStatus string

const (
	AuditConsistent AuditStatus = "consistent"
	AuditMismatch   AuditStatus = "mismatch"
	AuditFailed     AuditStatus = "failed"
)

// AuditRun is the result of reconciling one program against its own plan.
type AuditRun struct {
	ID          string
	ProgramID   ProgramID
	Status      AuditStatus
	Advertised  Amount
	Planned     Amount
	Difference  Amount
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewAuditRun builds a run from a reconciliation. A mismatch keeps the
// TotalMismatchError text in Error.
func NewAuditRun(id string, r Reconciliation, started, completed time.Time) AuditRun {
	run := AuditRun{
		ID:          id,
		ProgramID:   r.ProgramID,
		Status:      AuditConsistent,
		Advertised:  r.Advertised,
		Planned:     r.Planned,
		Difference:  r.Difference,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if err := r.Err(); err != nil {
		run.Status = AuditMismatch
		run.Error = err.Error()
	}
	return run
}
