/*
errors.go - Centralized error types for the tuition core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores and clients wrap these with errors.Wrap so callers can still
  match them with errors.Is.

ERROR CATEGORIES:
  1. Lookup errors - Missing programs or students, unreachable catalog
  2. Precondition errors - Caller forgot to select a program/student
  3. Input errors - Bad dates, unsupported export formats
  4. Consistency errors - Catalog totals that disagree with the plan

SEE ALSO:
  - reconcile.go: Produces TotalMismatchError
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package tuition

import (
	"fmt"

	"github.com/pkg/errors"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProgramNotFound is returned when the catalog has no program with the given id.
	ErrProgramNotFound = errors.New("program not found")

	// ErrStudentNotFound is returned when no student has the given code.
	ErrStudentNotFound = errors.New("student not found")

	// ErrMissingProgram is the "no program selected" precondition failure.
	ErrMissingProgram = errors.New("no program selected")

	// ErrMissingStudent is the "no student selected" precondition failure.
	ErrMissingStudent = errors.New("no student selected")

	// ErrReadOnlyCatalog is returned when writing to a catalog that only serves reads.
	ErrReadOnlyCatalog = errors.New("catalog is read-only")

	// ErrCatalogUnavailable is returned when a remote catalog cannot be reached
	// or answers with something other than a program record.
	ErrCatalogUnavailable = errors.New("program catalog unavailable")

	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date: use YYYY-MM-DD")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrTotalMismatch is returned when a plan's grand total differs from
	// the program's advertised total cost.
	ErrTotalMismatch = errors.New("plan total differs from advertised program cost")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TotalMismatchError provides details about a catalog inconsistency.
type TotalMismatchError struct {
	ProgramID  ProgramID
	Advertised Amount
	Planned    Amount
	Difference Amount // Planned - Advertised
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("program %s: advertised total %s, planned total %s (difference %s)",
		e.ProgramID, e.Advertised, e.Planned, e.Difference)
}

func (e *TotalMismatchError) Unwrap() error {
	return ErrTotalMismatch
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProgramNotFound) ||
		errors.Is(err, ErrStudentNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingProgram) ||
		errors.Is(err, ErrMissingStudent) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUnsupportedFormat)
}
