/*
Package factory provides JSON to Go program conversion.

PURPOSE:
  Converts catalog program records (as served by the academic back end)
  into tuition.Program values and back. One JSON contract is accepted:
  a bare program object, or a bare array of them for listings. Envelope
  shapes such as {"data": ...} or {"content": ...} are rejected: an object
  without "id" is invalid, and an object where an array is expected fails
  to decode.

JSON SCHEMA:
  {
    "id": "ing-sistemas",
    "nombre": "Ingeniería de Sistemas",
    "modalidad": "Presencial",
    "duracion": 4,
    "costoPorSemestre": 3000.00,
    "costoTotal": 14600.00,
    "moneda": "PEN",
    "conceptosAdicionales": [
      {"concepto": "Matrícula", "monto": 300.00},
      {"concepto": "Biblioteca", "monto": 200.00}
    ]
  }

  Amounts may be JSON numbers or decimal strings. "moneda" is optional.

USAGE:
  f := factory.NewProgramFactory(tuition.CurrencyPEN)
  program, err := f.ParseProgram(body)

SEE ALSO:
  - tuition/types.go: Program definition
  - store/remote: REST catalog client using this factory
*/
package factory

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProgramJSON is the catalog's JSON representation of a program.
type ProgramJSON struct {
	ID              string          `json:"id" validate:"required,code"`
	Name            string          `json:"nombre" validate:"max=200"`
	Modality        string          `json:"modalidad" validate:"max=50"`
	Duration        int             `json:"duracion" validate:"min=0,max=40"`
	CostPerSemester decimal.Decimal `json:"costoPorSemestre"`
	TotalCost       decimal.Decimal `json:"costoTotal"`
	Currency        string          `json:"moneda,omitempty" validate:"omitempty,len=3,alpha"`
	AdditionalFees  []FeeJSON       `json:"conceptosAdicionales" validate:"dive"`
}

// FeeJSON is one additional fee line item.
type FeeJSON struct {
	Label  string          `json:"concepto" validate:"required"`
	Amount decimal.Decimal `json:"monto"`
}

// ErrInvalidProgram is returned for records that cannot become a Program.
var ErrInvalidProgram = errors.New("invalid program record")

// =============================================================================
// PROGRAM FACTORY
// =============================================================================

// ProgramFactory converts catalog JSON to tuition programs.
type ProgramFactory struct {
	// Currency applied to records that carry no "moneda".
	DefaultCurrency tuition.Currency
}

func NewProgramFactory(currency tuition.Currency) *ProgramFactory {
	if currency == "" {
		currency = tuition.DefaultCurrency
	}
	return &ProgramFactory{DefaultCurrency: currency}
}

// ParseProgram parses one program object.
func (f *ProgramFactory) ParseProgram(data []byte) (*tuition.Program, error) {
	var pj ProgramJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, errors.Wrap(ErrInvalidProgram, err.Error())
	}
	return f.FromJSON(pj)
}

// ParsePrograms parses an array of program objects.
func (f *ProgramFactory) ParsePrograms(data []byte) ([]tuition.Program, error) {
	var pjs []ProgramJSON
	if err := json.Unmarshal(data, &pjs); err != nil {
		return nil, errors.Wrap(ErrInvalidProgram, err.Error())
	}

	programs := make([]tuition.Program, 0, len(pjs))
	for _, pj := range pjs {
		p, err := f.FromJSON(pj)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *p)
	}
	return programs, nil
}

// FromJSON converts ProgramJSON to tuition.Program.
func (f *ProgramFactory) FromJSON(pj ProgramJSON) (*tuition.Program, error) {
	if strings.TrimSpace(pj.ID) == "" {
		return nil, errors.Wrap(ErrInvalidProgram, "missing id")
	}
	if pj.Duration < 0 {
		return nil, errors.Wrapf(ErrInvalidProgram, "program %s: negative duracion %d", pj.ID, pj.Duration)
	}

	currency := f.DefaultCurrency
	if pj.Currency != "" {
		currency = tuition.Currency(strings.ToUpper(pj.Currency))
	}

	program := &tuition.Program{
		ID:                 tuition.ProgramID(pj.ID),
		Name:               pj.Name,
		Modality:           pj.Modality,
		DurationSemesters:  pj.Duration,
		TuitionPerSemester: tuition.NewAmount(pj.CostPerSemester, currency),
		TotalCost:          tuition.NewAmount(pj.TotalCost, currency),
	}
	for _, fj := range pj.AdditionalFees {
		program.AdditionalFees = append(program.AdditionalFees, tuition.Fee{
			Label:  fj.Label,
			Amount: tuition.NewAmount(fj.Amount, currency),
		})
	}
	return program, nil
}

// ToJSON converts a Program to ProgramJSON.
func ToJSON(p tuition.Program) ProgramJSON {
	pj := ProgramJSON{
		ID:              string(p.ID),
		Name:            p.Name,
		Modality:        p.Modality,
		Duration:        p.DurationSemesters,
		CostPerSemester: p.TuitionPerSemester.Value,
		TotalCost:       p.TotalCost.Value,
		Currency:        string(p.Currency()),
		AdditionalFees:  make([]FeeJSON, 0, len(p.AdditionalFees)),
	}
	for _, fee := range p.AdditionalFees {
		pj.AdditionalFees = append(pj.AdditionalFees, FeeJSON{Label: fee.Label, Amount: fee.Amount.Value})
	}
	return pj
}

// MarshalProgram encodes a Program in the catalog contract.
func MarshalProgram(p tuition.Program) ([]byte, error) {
	return json.Marshal(ToJSON(p))
}

// MarshalFees encodes just the fee list; used for SQL storage.
func MarshalFees(fees []tuition.Fee) ([]byte, error) {
	out := make([]FeeJSON, 0, len(fees))
	for _, fee := range fees {
		out = append(out, FeeJSON{Label: fee.Label, Amount: fee.Amount.Value})
	}
	return json.Marshal(out)
}

// UnmarshalFees decodes a fee list written by MarshalFees.
func UnmarshalFees(data []byte, currency tuition.Currency) ([]tuition.Fee, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var fjs []FeeJSON
	if err := json.Unmarshal(data, &fjs); err != nil {
		return nil, errors.Wrap(err, "decode fees")
	}
	var fees []tuition.Fee
	for _, fj := range fjs {
		fees = append(fees, tuition.Fee{Label: fj.Label, Amount: tuition.NewAmount(fj.Amount, currency)})
	}
	return fees, nil
}
