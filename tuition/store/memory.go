// Package store provides in-memory catalog implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (static catalog, tests)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	programs map[tuition.ProgramID]tuition.Program
	students map[tuition.StudentCode]tuition.Student
	receipts []tuition.ExportReceipt
	audits   []tuition.AuditRun
}

func NewMemory() *Memory {
	return &Memory{
		programs: make(map[tuition.ProgramID]tuition.Program),
		students: make(map[tuition.StudentCode]tuition.Student),
	}
}

// NewMemoryWith returns a store pre-loaded with programs.
func NewMemoryWith(programs ...tuition.Program) *Memory {
	m := NewMemory()
	for _, p := range programs {
		m.programs[p.ID] = p
	}
	return m
}

var (
	_ tuition.WritableCatalog = (*Memory)(nil)
	_ tuition.StudentStore    = (*Memory)(nil)
	_ tuition.ReceiptStore    = (*Memory)(nil)
	_ tuition.AuditStore      = (*Memory)(nil)
)

func (m *Memory) GetProgram(_ context.Context, id tuition.ProgramID) (*tuition.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.programs[id]
	if !ok {
		return nil, errors.Wrapf(tuition.ErrProgramNotFound, "id %q", id)
	}
	p.AdditionalFees = append([]tuition.Fee(nil), p.AdditionalFees...)
	return &p, nil
}

func (m *Memory) ListPrograms(_ context.Context) ([]tuition.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tuition.Program, 0, len(m.programs))
	for _, p := range m.programs {
		p.AdditionalFees = append([]tuition.Fee(nil), p.AdditionalFees...)
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) SaveProgram(_ context.Context, p tuition.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.AdditionalFees = append([]tuition.Fee(nil), p.AdditionalFees...)
	m.programs[p.ID] = p
	return nil
}

func (m *Memory) DeleteProgram(_ context.Context, id tuition.ProgramID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.programs[id]; !ok {
		return errors.Wrapf(tuition.ErrProgramNotFound, "id %q", id)
	}
	delete(m.programs, id)
	return nil
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Memory) SaveStudent(_ context.Context, s tuition.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.Code] = s
	return nil
}

func (m *Memory) GetStudent(_ context.Context, code tuition.StudentCode) (*tuition.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[code]
	if !ok {
		return nil, errors.Wrapf(tuition.ErrStudentNotFound, "code %q", code)
	}
	return &s, nil
}

func (m *Memory) ListStudents(_ context.Context) ([]tuition.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tuition.Student, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *Memory) DeleteStudent(_ context.Context, code tuition.StudentCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[code]; !ok {
		return errors.Wrapf(tuition.ErrStudentNotFound, "code %q", code)
	}
	delete(m.students, code)
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (m *Memory) SaveReceipt(_ context.Context, r tuition.ExportReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.receipts {
		if existing.ID == r.ID || existing.Token == r.Token {
			return errors.Wrapf(tuition.ErrDuplicate, "receipt %s", r.ID)
		}
	}
	m.receipts = append(m.receipts, r)
	return nil
}

func (m *Memory) ListReceipts(_ context.Context, code tuition.StudentCode) ([]tuition.ExportReceipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tuition.ExportReceipt, 0, len(m.receipts))
	for i := len(m.receipts) - 1; i >= 0; i-- {
		if code == "" || m.receipts[i].StudentCode == code {
			result = append(result, m.receipts[i])
		}
	}
	return result, nil
}

func (m *Memory) SaveAuditRun(_ context.Context, r tuition.AuditRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, r)
	return nil
}

func (m *Memory) ListAuditRuns(_ context.Context, status tuition.AuditStatus) ([]tuition.AuditRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tuition.AuditRun, 0, len(m.audits))
	for i := len(m.audits) - 1; i >= 0; i-- {
		if status == "" || m.audits[i].Status == status {
			result = append(result, m.audits[i])
		}
	}
	return result, nil
}
