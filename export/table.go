/*
Package export renders payment plans as downloadable tables.

PURPOSE:
  Serializes a generated plan plus student and program metadata into a
  tabular file (CSV or XLSX) and hands the bytes to a Sink: an HTTP
  response, a local directory, an S3 bucket or any io.Writer.

LAYOUT (both formats):
  Student Code        | A-2024-0001
  Student Name        | Ana Torres
  Program ID          | ing-sistemas
  Program             | Ingeniería de Sistemas
  Modality            | Presencial
  Duration (semesters)| 4
  Total Program Cost  | 14600.00
  <blank>
  Semester | Period Start | Period End | Tuition | Additional Fees | Semester Total
  Semester 1 | 2025-01-15 | 2025-07-14 | 3000.00 | Matrícula: 300.00; ... | 3650.00
  ...
  Grand Total |  |  |  |  | 14600.00

  Fee labels are written as-is; the CSV writer quotes them only when they
  contain the delimiter or quotes.

SEE ALSO:
  - csv.go, xlsx.go: Formatters
  - sink.go, s3.go: Destinations
  - tuition/plan.go: Plan generation
*/
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/tuition-engine/tuition"
)

// =============================================================================
// DOCUMENT - Everything that goes into one export
// =============================================================================

// Document is one plan addressed to one student.
type Document struct {
	Student     tuition.Student
	Program     tuition.Program
	Plan        tuition.Plan
	GeneratedOn tuition.Date // used in the file name; zero means today
}

// Validate checks the "no student / no program selected" preconditions.
func (d Document) Validate() error {
	if d.Student.Code == "" {
		return tuition.ErrMissingStudent
	}
	if d.Program.ID == "" {
		return tuition.ErrMissingProgram
	}
	return nil
}

// =============================================================================
// TABLE - Format-independent layout
// =============================================================================

const (
	GrandTotalLabel = "Grand Total"
	SemesterPrefix  = "Semester "
)

// Columns is the header row above the installment rows.
var Columns = []string{"Semester", "Period Start", "Period End", "Tuition", "Additional Fees", "Semester Total"}

// Field is one label/value pair of the header block.
type Field struct {
	Label string
	Value string
}

// Row is one installment line.
type Row struct {
	Label   string
	Start   string
	End     string
	Tuition tuition.Amount
	Fees    string
	Total   tuition.Amount
}

// Table is the rendered content shared by all formatters.
type Table struct {
	Header     []Field
	Rows       []Row
	GrandTotal tuition.Amount
}

// BuildTable lays a document out.
func BuildTable(doc Document) Table {
	p := doc.Program
	t := Table{
		Header: []Field{
			{"Student Code", string(doc.Student.Code)},
			{"Student Name", doc.Student.Name},
			{"Program ID", string(p.ID)},
			{"Program", p.Name},
			{"Modality", p.Modality},
			{"Duration (semesters)", strconv.Itoa(p.DurationSemesters)},
			{"Total Program Cost", p.TotalCost.String()},
		},
		Rows:       make([]Row, 0, len(doc.Plan.Installments)),
		GrandTotal: doc.Plan.GrandTotal(),
	}

	for _, inst := range doc.Plan.Installments {
		t.Rows = append(t.Rows, Row{
			Label:   SemesterLabel(inst.SemesterIndex),
			Start:   inst.PeriodStart.String(),
			End:     inst.PeriodEnd.String(),
			Tuition: inst.Tuition,
			Fees:    FormatFees(inst.AdditionalFees),
			Total:   inst.TotalForSemester,
		})
	}
	return t
}

// Records flattens the table into CSV records. The empty record separates
// the header block from the installments.
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Header)+len(t.Rows)+3)
	for _, f := range t.Header {
		records = append(records, []string{f.Label, f.Value})
	}
	records = append(records, []string{})
	records = append(records, Columns)
	for _, r := range t.Rows {
		records = append(records, []string{r.Label, r.Start, r.End, r.Tuition.String(), r.Fees, r.Total.String()})
	}
	records = append(records, []string{GrandTotalLabel, "", "", "", "", t.GrandTotal.String()})
	return records
}

// FormatFees joins fees as "label: amount; label: amount".
func FormatFees(fees []tuition.Fee) string {
	parts := make([]string, 0, len(fees))
	for _, f := range fees {
		parts = append(parts, f.Label+": "+f.Amount.String())
	}
	return strings.Join(parts, "; ")
}

// SemesterLabel names the n-th data row: "Semester 1", "Semester 2", ...
func SemesterLabel(n int) string {
	return fmt.Sprintf("%s%d", SemesterPrefix, n)
}
