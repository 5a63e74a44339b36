/*
store.go - Catalog and registry interfaces

PURPOSE:
  Defines the boundary between the pure plan generator and wherever
  programs and students actually live. The generator never calls these;
  handlers look the program up first and pass the value in.

KEY INTERFACES:
  ProgramCatalog:  Read access to programs (memory, SQL, REST, cached)
  ProgramWriter:   Catalog maintenance (SQL and memory only)
  StudentStore:    Student registry used by exports

IMPLEMENTATIONS:
  - tuition/store/memory.go: In-memory, static list
  - store/sqlstore: SQLite/PostgreSQL
  - store/remote: REST catalog (read-only)
  - store/cache: Read-through cache over any ProgramCatalog

SEE ALSO:
  - plan.go: Generator
  - errors.go: ErrProgramNotFound, ErrStudentNotFound
*/
package tuition

import "context"

// =============================================================================
// CATALOG
// =============================================================================

// ProgramCatalog looks programs up by id.
type ProgramCatalog interface {
	// GetProgram returns ErrProgramNotFound (possibly wrapped) when absent.
	GetProgram(ctx context.Context, id ProgramID) (*Program, error)

	// ListPrograms returns all programs ordered by id.
	ListPrograms(ctx context.Context) ([]Program, error)
}

// ProgramWriter maintains a writable catalog.
type ProgramWriter interface {
	SaveProgram(ctx context.Context, p Program) error
	DeleteProgram(ctx context.Context, id ProgramID) error
}

// WritableCatalog is a catalog that also accepts writes.
type WritableCatalog interface {
	ProgramCatalog
	ProgramWriter
}

// =============================================================================
// STUDENTS
// =============================================================================

// StudentStore persists students keyed by code.
type StudentStore interface {
	SaveStudent(ctx context.Context, s Student) error
	GetStudent(ctx context.Context, code StudentCode) (*Student, error)
	ListStudents(ctx context.Context) ([]Student, error)
	DeleteStudent(ctx context.Context, code StudentCode) error
}

// =============================================================================
// HISTORY
// =============================================================================

// ReceiptStore keeps the archive history of exports.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, r ExportReceipt) error
	// ListReceipts returns newest first; an empty code lists everything.
	ListReceipts(ctx context.Context, code StudentCode) ([]ExportReceipt, error)
}

// AuditStore keeps catalog consistency audit runs.
type AuditStore interface {
	SaveAuditRun(ctx context.Context, r AuditRun) error
	// ListAuditRuns returns newest first; an empty status lists everything.
	ListAuditRuns(ctx context.Context, status AuditStatus) ([]AuditRun, error)
}
