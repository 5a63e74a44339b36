/*
Package tuition provides the billing core of the academic back end.

PURPOSE:
  Holds the domain types used to describe a study program's billing
  template (Program), the per-semester obligations derived from it
  (Installment) and the full schedule (Plan). The plan generator in
  plan.go is a pure function over these types.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A decimal currency amount (e.g., 3000.00 PEN)
  - Fee: A flat additional line item charged every semester
  - Program: Duration, tuition and fee schedule of an academic offering
  - Installment / Plan: Generated output, never persisted
  - Student: The person a plan export is addressed to

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal, never float64, for money
  2. Purity: Nothing in this package performs I/O
  3. Type Safety: Program and student identifiers are distinct types

USAGE:
  program := tuition.Program{
      ID:                 "ing-sistemas",
      DurationSemesters:  4,
      TuitionPerSemester: tuition.MustAmount("3000.00", tuition.CurrencyPEN),
  }
  plan := tuition.GeneratePlan(program, tuition.Today())

SEE ALSO:
  - plan.go: Payment plan generator
  - reconcile.go: Plan vs advertised total check
  - store.go: Catalog interfaces
*/
package tuition

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Decimal value with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

type Currency string

const (
	CurrencyPEN Currency = "PEN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// DefaultCurrency is used when a catalog record carries no currency.
const DefaultCurrency = CurrencyPEN

func NewAmount(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

// ParseAmount parses a decimal string such as "3000.00".
func ParseAmount(s string, currency Currency) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Currency: currency}, nil
}

// MustAmount is ParseAmount for literals. Invalid input yields zero.
func MustAmount(s string, currency Currency) Amount {
	a, err := ParseAmount(s, currency)
	if err != nil {
		return Zero(currency)
	}
	return a
}

func Zero(currency Currency) Amount { return Amount{Value: decimal.Zero, Currency: currency} }

func (a Amount) Add(b Amount) Amount { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) IsZero() bool        { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool { return a.Value.Equal(b.Value) }

// String renders the value with two decimal places, e.g. "3650.00".
func (a Amount) String() string { return a.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ProgramID string
type StudentCode string

// =============================================================================
// PROGRAM - Billing template of an academic offering
// =============================================================================

// Fee is a flat additional charge ("Matrícula", "Biblioteca", ...) applied
// identically to every semester.
type Fee struct {
	Label  string
	Amount Amount
}

// Program is read-only to the generator.
type Program struct {
	ID                 ProgramID
	Name               string
	Modality           string
	DurationSemesters  int
	TuitionPerSemester Amount
	TotalCost          Amount // advertised; see Reconcile
	AdditionalFees     []Fee
}

// Currency returns the currency of the program's tuition.
func (p Program) Currency() Currency {
	if p.TuitionPerSemester.Currency == "" {
		return DefaultCurrency
	}
	return p.TuitionPerSemester.Currency
}

// FeesTotal returns the sum of all additional fees for one semester.
func (p Program) FeesTotal() Amount {
	total := Zero(p.Currency())
	for _, f := range p.AdditionalFees {
		total = total.Add(f.Amount)
	}
	return total
}

// SemesterTotal is tuition plus every additional fee.
func (p Program) SemesterTotal() Amount {
	return p.TuitionPerSemester.Add(p.FeesTotal())
}

// =============================================================================
// INSTALLMENT / PLAN - Generated output
// =============================================================================

type Installment struct {
	SemesterIndex    int
	PeriodStart      Date
	PeriodEnd        Date
	Tuition          Amount
	AdditionalFees   []Fee // shared with the program, never mutated
	TotalForSemester Amount
}

type Plan struct {
	ProgramID     ProgramID
	ReferenceDate Date
	Currency      Currency
	Installments  []Installment
}

// GrandTotal sums TotalForSemester across all installments.
func (p Plan) GrandTotal() Amount {
	total := Zero(p.Currency)
	for _, inst := range p.Installments {
		total = total.Add(inst.TotalForSemester)
	}
	return total
}

// Len returns the number of installments.
func (p Plan) Len() int { return len(p.Installments) }

// =============================================================================
// STUDENT
// =============================================================================

type Student struct {
	Code      StudentCode
	Name      string
	Email     string
	ProgramID ProgramID // optional: the program the student is enrolled in
}
