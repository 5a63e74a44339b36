package tuition

// =============================================================================
// PERIOD - Billing window of one semester
// =============================================================================

// Period is an inclusive [Start, End] date range.
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the inclusive length of the period in days.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SEMESTER WINDOW
// =============================================================================

const (
	// SemesterMonths is the distance between consecutive semester starts.
	SemesterMonths = 6

	// DefaultSemesterTailPadDays is added after SemesterMonths-1 months to
	// reach the semester end. It does not follow any academic calendar and
	// is kept as a placeholder until product defines real semester bounds.
	DefaultSemesterTailPadDays = 29
)

// SemesterWindow describes how semester periods are laid out from a
// reference date.
type SemesterWindow struct {
	Months      int // months between consecutive starts
	TailPadDays int // days added after Months-1 months to reach the end
}

// DefaultSemesterWindow is six months with the 29 day tail pad.
func DefaultSemesterWindow() SemesterWindow {
	return SemesterWindow{Months: SemesterMonths, TailPadDays: DefaultSemesterTailPadDays}
}

// PeriodFor returns the window of the n-th semester (1-based) starting
// from ref.
func (w SemesterWindow) PeriodFor(ref Date, n int) Period {
	start := ref.AddMonths((n - 1) * w.Months)
	end := start.AddMonths(w.Months - 1).AddDays(w.TailPadDays)
	return Period{Start: start, End: end}
}
