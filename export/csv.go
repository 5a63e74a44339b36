package export

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/tuition"
)

// CSVFormatter writes the table as delimited text.
type CSVFormatter struct {
	Delimiter rune // 0 means ','
	BOM       bool // some spreadsheet apps need it to detect UTF-8
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (f *CSVFormatter) ContentType() string { return "text/csv; charset=utf-8" }
func (f *CSVFormatter) Extension() string   { return "csv" }

func (f *CSVFormatter) Format(w io.Writer, doc Document) error {
	if f.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return errors.Wrap(err, "write bom")
		}
	}

	cw := csv.NewWriter(w)
	if f.Delimiter != 0 {
		cw.Comma = f.Delimiter
	}
	if err := cw.WriteAll(BuildTable(doc).Records()); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

// FormatPlanAsTable renders a plan as comma separated text.
func FormatPlanAsTable(student tuition.Student, program tuition.Program, plan tuition.Plan) ([]byte, error) {
	return Render(&CSVFormatter{}, Document{Student: student, Program: program, Plan: plan})
}
