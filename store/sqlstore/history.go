package sqlstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// EXPORT RECEIPTS (tuition.ReceiptStore)
// =============================================================================

type receiptRow struct {
	ID          string `db:"id"`
	Token       string `db:"token"`
	StudentCode string `db:"student_code"`
	ProgramID   string `db:"program_id"`
	Format      string `db:"format"`
	Sink        string `db:"sink"`
	Location    string `db:"location"`
	FileName    string `db:"file_name"`
	CreatedAt   string `db:"created_at"`
}

const receiptColumns = `id, token, student_code, program_id, format, sink, location, file_name, created_at`

// SaveReceipt appends an export receipt. Receipts are never updated.
func (s *Store) SaveReceipt(ctx context.Context, r tuition.ExportReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`INSERT INTO export_receipts (` + receiptColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Token, string(r.StudentCode), string(r.ProgramID),
		r.Format, r.Sink, r.Location, r.FileName, timestamp(r.CreatedAt),
	)
	if isUniqueViolation(err) {
		return errors.Wrapf(tuition.ErrDuplicate, "receipt %s", r.ID)
	}
	return errors.Wrapf(err, "save receipt %s", r.ID)
}

// ListReceipts returns receipts newest first, optionally for one student.
func (s *Store) ListReceipts(ctx context.Context, code tuition.StudentCode) ([]tuition.ExportReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + receiptColumns + " FROM export_receipts"
	var args []any
	if code != "" {
		query += " WHERE student_code = ?"
		args = append(args, string(code))
	}
	query += " ORDER BY created_at DESC, id DESC"

	var rows []receiptRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}

	receipts := make([]tuition.ExportReceipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, tuition.ExportReceipt{
			ID:          row.ID,
			Token:       row.Token,
			StudentCode: tuition.StudentCode(row.StudentCode),
			ProgramID:   tuition.ProgramID(row.ProgramID),
			Format:      row.Format,
			Sink:        row.Sink,
			Location:    row.Location,
			FileName:    row.FileName,
			CreatedAt:   parseTimestamp(row.CreatedAt),
		})
	}
	return receipts, nil
}

// =============================================================================
// AUDIT RUNS (tuition.AuditStore)
// =============================================================================

type auditRow struct {
	ID          string `db:"id"`
	ProgramID   string `db:"program_id"`
	Status      string `db:"status"`
	Currency    string `db:"currency"`
	Advertised  string `db:"advertised"`
	Planned     string `db:"planned"`
	Difference  string `db:"difference"`
	Error       string `db:"error"`
	StartedAt   string `db:"started_at"`
	CompletedAt string `db:"completed_at"`
}

const auditColumns = `id, program_id, status, currency, advertised, planned, difference, error, started_at, completed_at`

func (r auditRow) toAuditRun() (tuition.AuditRun, error) {
	currency := tuition.Currency(r.Currency)
	run := tuition.AuditRun{
		ID:          r.ID,
		ProgramID:   tuition.ProgramID(r.ProgramID),
		Status:      tuition.AuditStatus(r.Status),
		Error:       r.Error,
		StartedAt:   parseTimestamp(r.StartedAt),
		CompletedAt: parseTimestamp(r.CompletedAt),
	}
	for _, f := range []struct {
		dst *tuition.Amount
		src string
	}{
		{&run.Advertised, r.Advertised},
		{&run.Planned, r.Planned},
		{&run.Difference, r.Difference},
	} {
		a, err := tuition.ParseAmount(f.src, currency)
		if err != nil {
			return tuition.AuditRun{}, errors.Wrapf(err, "audit run %s", r.ID)
		}
		*f.dst = a
	}
	return run, nil
}

// SaveAuditRun records one program's audit outcome.
func (s *Store) SaveAuditRun(ctx context.Context, r tuition.AuditRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	currency := r.Advertised.Currency
	if currency == "" {
		currency = r.Planned.Currency
	}

	query := s.db.Rebind(`INSERT INTO audit_runs (` + auditColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, string(r.ProgramID), string(r.Status), string(currency),
		r.Advertised.Value.String(), r.Planned.Value.String(), r.Difference.Value.String(),
		r.Error, timestamp(r.StartedAt), timestamp(r.CompletedAt),
	)
	if isUniqueViolation(err) {
		return errors.Wrapf(tuition.ErrDuplicate, "audit run %s", r.ID)
	}
	return errors.Wrapf(err, "save audit run %s", r.ID)
}

// ListAuditRuns returns audit runs newest first, optionally filtered by status.
func (s *Store) ListAuditRuns(ctx context.Context, status tuition.AuditStatus) ([]tuition.AuditRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + auditColumns + " FROM audit_runs"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY started_at DESC, id DESC"

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list audit runs")
	}

	runs := make([]tuition.AuditRun, 0, len(rows))
	for _, row := range rows {
		run, err := row.toAuditRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
