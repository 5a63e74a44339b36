package tuition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func pen(s string) tuition.Amount {
	return tuition.MustAmount(s, tuition.CurrencyPEN)
}

func scenarioAProgram() tuition.Program {
	return tuition.Program{
		ID:                 "ing-sistemas",
		Name:               "Ingeniería de Sistemas",
		Modality:           "Presencial",
		DurationSemesters:  4,
		TuitionPerSemester: pen("3000.00"),
		TotalCost:          pen("14600.00"),
		AdditionalFees: []tuition.Fee{
			{Label: "Matrícula", Amount: pen("300.00")},
			{Label: "Biblioteca", Amount: pen("200.00")},
			{Label: "Laboratorio", Amount: pen("150.00")},
		},
	}
}

var jan15 = tuition.NewDate(2025, time.January, 15)

// =============================================================================
// SCENARIOS
// =============================================================================

func TestGeneratePlan_ScenarioA_FourSemestersWithFees(t *testing.T) {
	// GIVEN: 4 semesters at 3000.00 with three flat fees
	// WHEN: Generating the plan
	// THEN: 4 installments of 3650.00, grand total 14600.00

	plan := tuition.GeneratePlan(scenarioAProgram(), jan15)

	require.Len(t, plan.Installments, 4)
	for _, inst := range plan.Installments {
		assert.Equal(t, "3650.00", inst.TotalForSemester.String())
		assert.Equal(t, "3000.00", inst.Tuition.String())
		assert.Len(t, inst.AdditionalFees, 3)
	}
	assert.Equal(t, "14600.00", plan.GrandTotal().String())
	assert.Equal(t, tuition.ProgramID("ing-sistemas"), plan.ProgramID)
	assert.Equal(t, tuition.CurrencyPEN, plan.Currency)
}

func TestGeneratePlan_ScenarioB_ZeroDuration(t *testing.T) {
	program := scenarioAProgram()
	program.DurationSemesters = 0

	plan := tuition.GeneratePlan(program, jan15)

	assert.Empty(t, plan.Installments)
	assert.NotNil(t, plan.Installments, "empty plan should still encode as []")
	assert.True(t, plan.GrandTotal().IsZero())
}

func TestGeneratePlan_ScenarioC_NoFees(t *testing.T) {
	program := tuition.Program{
		ID:                 "diplomado",
		DurationSemesters:  1,
		TuitionPerSemester: pen("2500.00"),
	}

	plan := tuition.GeneratePlan(program, jan15)

	require.Len(t, plan.Installments, 1)
	assert.Equal(t, "2500.00", plan.Installments[0].TotalForSemester.String())
	assert.Equal(t, "2500.00", plan.GrandTotal().String())
}

func TestGeneratePlan_NegativeDuration_Empty(t *testing.T) {
	program := scenarioAProgram()
	program.DurationSemesters = -3

	assert.Empty(t, tuition.GeneratePlan(program, jan15).Installments)
}

func TestGeneratePlan_NegativeTuitionPropagated(t *testing.T) {
	program := tuition.Program{
		ID:                 "beca",
		DurationSemesters:  2,
		TuitionPerSemester: pen("-100.00"),
		AdditionalFees:     []tuition.Fee{{Label: "Matrícula", Amount: pen("300.00")}},
	}

	plan := tuition.GeneratePlan(program, jan15)

	require.Len(t, plan.Installments, 2)
	assert.Equal(t, "200.00", plan.Installments[0].TotalForSemester.String())
	assert.Equal(t, "400.00", plan.GrandTotal().String())
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestGeneratePlan_LengthAndIndexes(t *testing.T) {
	for n := 0; n <= 12; n++ {
		program := scenarioAProgram()
		program.DurationSemesters = n

		plan := tuition.GeneratePlan(program, jan15)

		require.Len(t, plan.Installments, n)
		for i, inst := range plan.Installments {
			assert.Equal(t, i+1, inst.SemesterIndex, "n=%d", n)
		}
	}
}

func TestGeneratePlan_TotalIsTuitionPlusFees(t *testing.T) {
	cases := []struct {
		name    string
		tuition string
		fees    []string
		want    string
	}{
		{"no fees", "1200.50", nil, "1200.50"},
		{"zero fee", "1000.00", []string{"0.00"}, "1000.00"},
		{"fractional cents", "0.10", []string{"0.20", "0.30"}, "0.60"},
		{"many fees", "2750.75", []string{"10.01", "20.02", "30.03", "40.04"}, "2850.85"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			program := tuition.Program{ID: "p", DurationSemesters: 3, TuitionPerSemester: pen(tc.tuition)}
			for i, f := range tc.fees {
				program.AdditionalFees = append(program.AdditionalFees, tuition.Fee{Label: string(rune('A' + i)), Amount: pen(f)})
			}

			plan := tuition.GeneratePlan(program, jan15)

			for _, inst := range plan.Installments {
				assert.True(t, inst.TotalForSemester.Equal(pen(tc.want)),
					"got %s want %s", inst.TotalForSemester, tc.want)
			}
		})
	}
}

func TestGeneratePlan_Deterministic(t *testing.T) {
	a := tuition.GeneratePlan(scenarioAProgram(), jan15)
	b := tuition.GeneratePlan(scenarioAProgram(), jan15)

	assert.Equal(t, a, b)
}

func TestGeneratePlan_DifferentReferenceDateOnlyMovesDates(t *testing.T) {
	a := tuition.GeneratePlan(scenarioAProgram(), jan15)
	b := tuition.GeneratePlan(scenarioAProgram(), tuition.NewDate(2026, time.March, 1))

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Installments {
		assert.Equal(t, a.Installments[i].SemesterIndex, b.Installments[i].SemesterIndex)
		assert.True(t, a.Installments[i].TotalForSemester.Equal(b.Installments[i].TotalForSemester))
		assert.Equal(t, a.Installments[i].AdditionalFees, b.Installments[i].AdditionalFees)
		assert.False(t, a.Installments[i].PeriodStart.Equal(b.Installments[i].PeriodStart))
	}
}

func TestGeneratePlan_StartsStrictlyIncreasing(t *testing.T) {
	refs := []tuition.Date{
		jan15,
		tuition.NewDate(2025, time.August, 31),
		tuition.NewDate(2024, time.February, 29),
		tuition.NewDate(2025, time.December, 31),
	}

	for _, ref := range refs {
		program := scenarioAProgram()
		program.DurationSemesters = 10
		plan := tuition.GeneratePlan(program, ref)

		for i := 1; i < plan.Len(); i++ {
			prev, cur := plan.Installments[i-1].PeriodStart, plan.Installments[i].PeriodStart
			assert.True(t, cur.After(prev), "ref %s: %s should be after %s", ref, cur, prev)
			assert.False(t, cur.Before(prev.AddMonths(6)), "ref %s: %s less than 6 months after %s", ref, cur, prev)
		}
	}
}

// =============================================================================
// DATES
// =============================================================================

func TestGeneratePlan_PeriodDates(t *testing.T) {
	plan := tuition.GeneratePlan(scenarioAProgram(), jan15)

	want := [][2]string{
		{"2025-01-15", "2025-07-14"},
		{"2025-07-15", "2026-01-13"},
		{"2026-01-15", "2026-07-14"},
		{"2026-07-15", "2027-01-13"},
	}
	for i, w := range want {
		assert.Equal(t, w[0], plan.Installments[i].PeriodStart.String(), "start %d", i+1)
		assert.Equal(t, w[1], plan.Installments[i].PeriodEnd.String(), "end %d", i+1)
	}
}

func TestGeneratePlan_MonthEndClampsToShortMonth(t *testing.T) {
	// GIVEN: A reference date on the 31st
	// WHEN: The next semester lands in February
	// THEN: The start clamps to Feb 28 and the following one returns to the 31st

	program := scenarioAProgram()
	program.DurationSemesters = 3

	plan := tuition.GeneratePlan(program, tuition.NewDate(2025, time.August, 31))

	assert.Equal(t, "2026-03-01", plan.Installments[0].PeriodEnd.String())
	assert.Equal(t, "2026-02-28", plan.Installments[1].PeriodStart.String())
	assert.Equal(t, "2026-08-31", plan.Installments[2].PeriodStart.String())
}

func TestGeneratePlan_StartsAtLeastSixMonthsApart(t *testing.T) {
	// every day of a leap year, including all month ends
	program := scenarioAProgram()
	program.DurationSemesters = 8

	for ref := tuition.NewDate(2024, time.January, 1); ref.Year() == 2024; ref = ref.AddDays(1) {
		plan := tuition.GeneratePlan(program, ref)
		for i := 1; i < plan.Len(); i++ {
			prev, cur := plan.Installments[i-1].PeriodStart, plan.Installments[i].PeriodStart
			monthsApart := (cur.Year()-prev.Year())*12 + int(cur.Month()-prev.Month())
			if !assert.Equal(t, 6, monthsApart, "ref %s: %s -> %s", ref, prev, cur) {
				return
			}
			if !assert.False(t, cur.Before(prev.AddMonths(6)), "ref %s: %s less than 6 months after %s", ref, cur, prev) {
				return
			}
		}
	}
}

func TestGenerator_TailPadOverride(t *testing.T) {
	g := tuition.NewGenerator(tuition.WithTailPadDays(0))
	program := scenarioAProgram()
	program.DurationSemesters = 1

	plan := g.Generate(program, jan15)

	assert.Equal(t, "2025-06-15", plan.Installments[0].PeriodEnd.String())
}

func TestGenerator_SemesterMonthsOverride(t *testing.T) {
	g := tuition.NewGenerator(tuition.WithSemesterMonths(4), tuition.WithTailPadDays(-1))
	program := scenarioAProgram()
	program.DurationSemesters = 3

	plan := g.Generate(program, tuition.NewDate(2025, time.January, 1))

	assert.Equal(t, "2025-05-01", plan.Installments[1].PeriodStart.String())
	assert.Equal(t, "2025-03-31", plan.Installments[0].PeriodEnd.String())
	assert.Equal(t, "2025-09-01", plan.Installments[2].PeriodStart.String())
}

func TestGeneratePlan_ZeroReferenceDateUsesToday(t *testing.T) {
	program := scenarioAProgram()
	program.DurationSemesters = 1

	plan := tuition.GeneratePlan(program, tuition.Date{})

	assert.Equal(t, tuition.Today(), plan.ReferenceDate)
	assert.Equal(t, tuition.Today(), plan.Installments[0].PeriodStart)
}
