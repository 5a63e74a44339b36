package tuition

// =============================================================================
// PAYMENT PLAN GENERATOR
// =============================================================================

// Generator expands a Program into its per-semester installments.
// The zero value is not usable; call NewGenerator.
type Generator struct {
	Window SemesterWindow
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithTailPadDays overrides DefaultSemesterTailPadDays.
func WithTailPadDays(days int) GeneratorOption {
	return func(g *Generator) { g.Window.TailPadDays = days }
}

// WithSemesterMonths overrides the six month spacing between semesters.
// Values below 1 are ignored.
func WithSemesterMonths(months int) GeneratorOption {
	return func(g *Generator) {
		if months >= 1 {
			g.Window.Months = months
		}
	}
}

func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{Window: DefaultSemesterWindow()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var defaultGenerator = NewGenerator()

// GeneratePlan builds a plan with the default semester window.
func GeneratePlan(program Program, referenceDate Date) Plan {
	return defaultGenerator.Generate(program, referenceDate)
}

// Generate returns exactly program.DurationSemesters installments, ordered
// by SemesterIndex from 1. A zero referenceDate means today. Non-positive
// durations produce an empty plan; amounts are propagated unchecked.
func (g *Generator) Generate(program Program, referenceDate Date) Plan {
	if referenceDate.IsZero() {
		referenceDate = Today()
	}

	plan := Plan{
		ProgramID:     program.ID,
		ReferenceDate: referenceDate,
		Currency:      program.Currency(),
	}
	if program.DurationSemesters <= 0 {
		plan.Installments = []Installment{}
		return plan
	}

	semesterTotal := program.SemesterTotal()
	plan.Installments = make([]Installment, 0, program.DurationSemesters)
	for i := 1; i <= program.DurationSemesters; i++ {
		period := g.Window.PeriodFor(referenceDate, i)
		plan.Installments = append(plan.Installments, Installment{
			SemesterIndex:    i,
			PeriodStart:      period.Start,
			PeriodEnd:        period.End,
			Tuition:          program.TuitionPerSemester,
			AdditionalFees:   program.AdditionalFees,
			TotalForSemester: semesterTotal,
		})
	}
	return plan
}
