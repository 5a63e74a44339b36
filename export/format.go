package export

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/warp/tuition-engine/tuition"
)

// Format names an output file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" and "xlsx" in any case; empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", errors.Wrapf(tuition.ErrUnsupportedFormat, "%q", s)
	}
}

// Formatter writes a document in one file format.
type Formatter interface {
	Format(w io.Writer, doc Document) error
	ContentType() string
	Extension() string
}

// Options configure formatters.
type Options struct {
	Delimiter rune // CSV only; 0 means ','
	BOM       bool // CSV only; prefix a UTF-8 byte order mark
}

// NewFormatter returns the formatter for f.
func NewFormatter(f Format, opts Options) (Formatter, error) {
	switch f {
	case FormatCSV, "":
		return &CSVFormatter{Delimiter: opts.Delimiter, BOM: opts.BOM}, nil
	case FormatXLSX:
		return &XLSXFormatter{}, nil
	default:
		return nil, errors.Wrapf(tuition.ErrUnsupportedFormat, "%q", f)
	}
}

// Render formats doc into memory. It checks the student and program
// preconditions first.
func Render(f Formatter, doc Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is plan_{studentCode}_{programID}_{isoDate}.{ext}.
func FileName(doc Document, ext string) string {
	on := doc.GeneratedOn
	if on.IsZero() {
		on = tuition.Today()
	}
	return "plan_" + safeName(string(doc.Student.Code)) + "_" + safeName(string(doc.Program.ID)) + "_" + on.String() + "." + ext
}

var nameReplacer = strings.NewReplacer("/", "-", `\`, "-", " ", "-", "..", "-")

func safeName(s string) string {
	return nameReplacer.Replace(strings.TrimSpace(s))
}
