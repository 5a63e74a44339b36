/*
Package sqlstore provides a SQL-backed implementation of the catalog,
student, receipt and audit interfaces.

PURPOSE:
  Persists programs, students, export receipts and audit runs. The same
  code runs on SQLite (default, mattn/go-sqlite3) and PostgreSQL (lib/pq);
  queries are written with "?" placeholders and rebound per driver by sqlx.

INTERFACES IMPLEMENTED:
  tuition.WritableCatalog: Program catalog with maintenance
  tuition.StudentStore:    Student registry
  tuition.ReceiptStore:    Export archive history
  tuition.AuditStore:      Catalog consistency audit runs

KEY TABLES:
  programs:        Catalog; amounts stored as TEXT decimals, fees as JSON
  students:        Registry keyed by student code
  export_receipts: One row per archived export (ULID id, opaque token)
  audit_runs:      One row per program per audit pass

MONEY:
  Decimal amounts are stored as TEXT and parsed with shopspring/decimal so
  no value ever round-trips through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is limited to a single open
  connection so ":memory:" databases survive across queries.

MIGRATION:
  Schema is versioned with goose; migrations are embedded and applied on
  New().

USAGE:
  store, err := sqlstore.New("sqlite3", "./data/tuition.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - tuition/store.go: Interface definitions
  - tuition/store/memory.go: In-memory implementation for tests
  - factory/program.go: Fee list JSON encoding
*/
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/warp/tuition-engine/factory"
	"github.com/warp/tuition-engine/tuition"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements the storage interfaces on top of sqlx.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

var (
	_ tuition.WritableCatalog = (*Store)(nil)
	_ tuition.StudentStore    = (*Store)(nil)
	_ tuition.ReceiptStore    = (*Store)(nil)
	_ tuition.AuditStore      = (*Store)(nil)
)

// New opens the database and applies pending migrations.
// Use driver "sqlite3" with ":memory:" for an in-memory database.
func New(driver, dsn string) (*Store, error) {
	var dialect goose.Dialect
	switch driver {
	case DriverSQLite:
		dialect = goose.DialectSQLite3
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on&_journal_mode=WAL"
		}
	case DriverPostgres:
		dialect = goose.DialectPostgres
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background(), dialect); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate database")
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context, dialect goose.Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, s.db.DB, fsys)
	if err != nil {
		return errors.Wrap(err, "goose provider")
	}
	_, err = provider.Up(ctx)
	return err
}

// =============================================================================
// PROGRAM CATALOG (tuition.WritableCatalog)
// =============================================================================

type programRow struct {
	ID                 string `db:"id"`
	Name               string `db:"name"`
	Modality           string `db:"modality"`
	DurationSemesters  int    `db:"duration_semesters"`
	TuitionPerSemester string `db:"tuition_per_semester"`
	TotalCost          string `db:"total_cost"`
	Currency           string `db:"currency"`
	FeesJSON           string `db:"fees_json"`
	CreatedAt          string `db:"created_at"`
	UpdatedAt          string `db:"updated_at"`
}

const programColumns = `id, name, modality, duration_semesters, tuition_per_semester,
	total_cost, currency, fees_json, created_at, updated_at`

func (r programRow) toProgram() (tuition.Program, error) {
	currency := tuition.Currency(r.Currency)
	tuitionAmount, err := tuition.ParseAmount(r.TuitionPerSemester, currency)
	if err != nil {
		return tuition.Program{}, errors.Wrapf(err, "program %s tuition", r.ID)
	}
	total, err := tuition.ParseAmount(r.TotalCost, currency)
	if err != nil {
		return tuition.Program{}, errors.Wrapf(err, "program %s total", r.ID)
	}
	fees, err := factory.UnmarshalFees([]byte(r.FeesJSON), currency)
	if err != nil {
		return tuition.Program{}, errors.Wrapf(err, "program %s", r.ID)
	}
	return tuition.Program{
		ID:                 tuition.ProgramID(r.ID),
		Name:               r.Name,
		Modality:           r.Modality,
		DurationSemesters:  r.DurationSemesters,
		TuitionPerSemester: tuitionAmount,
		TotalCost:          total,
		AdditionalFees:     fees,
	}, nil
}

// SaveProgram inserts or replaces a program.
func (s *Store) SaveProgram(ctx context.Context, p tuition.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fees, err := factory.MarshalFees(p.AdditionalFees)
	if err != nil {
		return errors.Wrapf(err, "program %s fees", p.ID)
	}

	query := s.db.Rebind(`
		INSERT INTO programs (` + programColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			modality = excluded.modality,
			duration_semesters = excluded.duration_semesters,
			tuition_per_semester = excluded.tuition_per_semester,
			total_cost = excluded.total_cost,
			currency = excluded.currency,
			fees_json = excluded.fees_json,
			updated_at = excluded.updated_at
	`)

	now := timestamp(time.Now())
	_, err = s.db.ExecContext(ctx, query,
		string(p.ID), p.Name, p.Modality, p.DurationSemesters,
		p.TuitionPerSemester.Value.String(), p.TotalCost.Value.String(), string(p.Currency()),
		string(fees), now, now,
	)
	return errors.Wrapf(err, "save program %s", p.ID)
}

// GetProgram retrieves a program by id.
func (s *Store) GetProgram(ctx context.Context, id tuition.ProgramID) (*tuition.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row programRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+programColumns+" FROM programs WHERE id = ?"), string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(tuition.ErrProgramNotFound, "id %q", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get program %s", id)
	}

	p, err := row.toProgram()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrograms returns all programs ordered by id.
func (s *Store) ListPrograms(ctx context.Context) ([]tuition.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []programRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+programColumns+" FROM programs ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "list programs")
	}

	programs := make([]tuition.Program, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProgram()
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

// DeleteProgram removes a program.
func (s *Store) DeleteProgram(ctx context.Context, id tuition.ProgramID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM programs WHERE id = ?"), string(id))
	if err != nil {
		return errors.Wrapf(err, "delete program %s", id)
	}
	return requireAffected(res, errors.Wrapf(tuition.ErrProgramNotFound, "id %q", id))
}

// =============================================================================
// STUDENT STORE
// =============================================================================

type studentRow struct {
	Code      string `db:"code"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	ProgramID string `db:"program_id"`
	CreatedAt string `db:"created_at"`
}

func (r studentRow) toStudent() tuition.Student {
	return tuition.Student{
		Code:      tuition.StudentCode(r.Code),
		Name:      r.Name,
		Email:     r.Email,
		ProgramID: tuition.ProgramID(r.ProgramID),
	}
}

// SaveStudent inserts or updates a student.
func (s *Store) SaveStudent(ctx context.Context, st tuition.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.db.Rebind(`
		INSERT INTO students (code, name, email, program_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			program_id = excluded.program_id
	`)
	_, err := s.db.ExecContext(ctx, query,
		string(st.Code), st.Name, st.Email, string(st.ProgramID), timestamp(time.Now()),
	)
	return errors.Wrapf(err, "save student %s", st.Code)
}

// GetStudent retrieves a student by code.
func (s *Store) GetStudent(ctx context.Context, code tuition.StudentCode) (*tuition.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var row studentRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT code, name, email, program_id, created_at FROM students WHERE code = ?"),
		string(code),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(tuition.ErrStudentNotFound, "code %q", code)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get student %s", code)
	}

	st := row.toStudent()
	return &st, nil
}

// ListStudents returns all students ordered by code.
func (s *Store) ListStudents(ctx context.Context) ([]tuition.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []studentRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT code, name, email, program_id, created_at FROM students ORDER BY code",
	); err != nil {
		return nil, errors.Wrap(err, "list students")
	}

	students := make([]tuition.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

// DeleteStudent removes a student.
func (s *Store) DeleteStudent(ctx context.Context, code tuition.StudentCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM students WHERE code = ?"), string(code))
	if err != nil {
		return errors.Wrapf(err, "delete student %s", code)
	}
	return requireAffected(res, errors.Wrapf(tuition.ErrStudentNotFound, "code %q", code))
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"audit_runs", "export_receipts", "students", "programs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "reset %s", table)
		}
	}
	return nil
}

// timestampLayout keeps nine fractional digits so stored timestamps sort
// lexically in time order. RFC3339Nano trims trailing zeros and does not.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueViolation recognises duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
