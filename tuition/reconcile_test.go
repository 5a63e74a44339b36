package tuition_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/tuition"
)

func TestReconcile_ConsistentCatalog(t *testing.T) {
	program := scenarioAProgram()

	rec := tuition.Reconcile(program, tuition.GeneratePlan(program, jan15))

	assert.True(t, rec.Consistent())
	assert.NoError(t, rec.Err())
	assert.Equal(t, "14600.00", rec.Planned.String())
}

func TestReconcile_AdvertisedTotalDisagrees(t *testing.T) {
	// GIVEN: A catalog record advertising 12000.00 for a 14600.00 plan
	// WHEN: Reconciling
	// THEN: The mismatch is reported, never silently accepted

	program := scenarioAProgram()
	program.TotalCost = pen("12000.00")

	rec := tuition.Reconcile(program, tuition.GeneratePlan(program, jan15))

	assert.False(t, rec.Consistent())
	assert.Equal(t, "2600.00", rec.Difference.String())

	err := rec.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, tuition.ErrTotalMismatch))

	var mismatch *tuition.TotalMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, tuition.ProgramID("ing-sistemas"), mismatch.ProgramID)
	assert.Contains(t, err.Error(), "12000.00")
}

func TestReconcile_EmptyPlanAgainstZeroCost(t *testing.T) {
	program := tuition.Program{ID: "vacío"}

	rec := tuition.Reconcile(program, tuition.GeneratePlan(program, jan15))

	assert.True(t, rec.Consistent())
}

func TestNewAuditRun_RecordsMismatchError(t *testing.T) {
	// GIVEN: A program whose plan exceeds its advertised cost
	program := scenarioAProgram()
	program.TotalCost = pen("12000.00")
	started := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

	// WHEN: Building an audit run from the reconciliation
	run := tuition.NewAuditRun("run-1", tuition.Reconcile(program, tuition.GeneratePlan(program, jan15)), started, started)

	// THEN: The run is a mismatch carrying the structured error text
	assert.Equal(t, tuition.AuditMismatch, run.Status)
	assert.Contains(t, run.Error, "advertised total 12000.00, planned total 14600.00")

	consistent := tuition.NewAuditRun("run-2", tuition.Reconcile(scenarioAProgram(), tuition.GeneratePlan(scenarioAProgram(), jan15)), started, started)
	assert.Equal(t, tuition.AuditConsistent, consistent.Status)
	assert.Empty(t, consistent.Error)
}
