package tuition

// Reconciliation compares a plan against the program's advertised cost.
type Reconciliation struct {
	ProgramID  ProgramID
	Advertised Amount
	Planned    Amount
	Difference Amount // Planned - Advertised
}

// Consistent reports whether the plan adds up to the advertised total.
func (r Reconciliation) Consistent() bool { return r.Difference.IsZero() }

// Err returns a *TotalMismatchError when the totals disagree, nil otherwise.
func (r Reconciliation) Err() error {
	if r.Consistent() {
		return nil
	}
	return &TotalMismatchError{
		ProgramID:  r.ProgramID,
		Advertised: r.Advertised,
		Planned:    r.Planned,
		Difference: r.Difference,
	}
}

// Reconcile checks Σ TotalForSemester against program.TotalCost. The
// generator never enforces this; callers decide what to do with a mismatch.
func Reconcile(program Program, plan Plan) Reconciliation {
	planned := plan.GrandTotal()
	advertised := program.TotalCost
	if advertised.Currency == "" {
		advertised.Currency = planned.Currency
	}
	return Reconciliation{
		ProgramID:  program.ID,
		Advertised: advertised,
		Planned:    planned,
		Difference: planned.Sub(advertised),
	}
}
