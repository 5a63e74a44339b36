package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/tuition-engine/export"
	"github.com/warp/tuition-engine/tuition"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func pen(s string) tuition.Amount { return tuition.MustAmount(s, tuition.CurrencyPEN) }

var (
	jan15   = tuition.NewDate(2025, time.January, 15)
	student = tuition.Student{Code: "A-2024-0001", Name: "Ana Torres"}
)

func scenarioA() tuition.Program {
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

func scenarioB() tuition.Program {
	p := scenarioA()
	p.ID = "sin-semestres"
	p.DurationSemesters = 0
	return p
}

func scenarioC() tuition.Program {
	return tuition.Program{ID: "diplomado-datos", DurationSemesters: 1, TuitionPerSemester: pen("2500.00")}
}

func parseCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

// =============================================================================
// CSV
// =============================================================================

func TestFormatPlanAsTable_RoundTrip(t *testing.T) {
	// GIVEN: Plans from scenarios A, B and C
	// WHEN: Formatting and re-parsing the CSV
	// THEN: n data rows, one header block, one grand-total row, totals add up

	for _, program := range []tuition.Program{scenarioA(), scenarioB(), scenarioC()} {
		t.Run(string(program.ID), func(t *testing.T) {
			plan := tuition.GeneratePlan(program, jan15)

			b, err := export.FormatPlanAsTable(student, program, plan)
			require.NoError(t, err)
			records := parseCSV(t, b)

			// header block: 7 label/value pairs, then the column row
			require.GreaterOrEqual(t, len(records), 9)
			assert.Equal(t, []string{"Student Code", "A-2024-0001"}, records[0])
			assert.Equal(t, []string{"Program ID", string(program.ID)}, records[2])
			assert.Equal(t, export.Columns, records[7])

			var dataRows [][]string
			var grandTotal []string
			for _, rec := range records[8:] {
				switch {
				case strings.HasPrefix(rec[0], export.SemesterPrefix):
					dataRows = append(dataRows, rec)
				case rec[0] == export.GrandTotalLabel:
					require.Nil(t, grandTotal, "only one grand total row")
					grandTotal = rec
				default:
					t.Fatalf("unexpected row %v", rec)
				}
			}
			require.Len(t, dataRows, plan.Len())
			require.NotNil(t, grandTotal)

			sum := decimal.Zero
			for _, rec := range dataRows {
				require.Len(t, rec, 6)
				sum = sum.Add(decimal.RequireFromString(rec[5]))
			}
			assert.True(t, sum.Equal(decimal.RequireFromString(grandTotal[5])),
				"sum %s != grand total %s", sum, grandTotal[5])
		})
	}
}

func TestFormatPlanAsTable_ScenarioARows(t *testing.T) {
	plan := tuition.GeneratePlan(scenarioA(), jan15)

	b, err := export.FormatPlanAsTable(student, scenarioA(), plan)
	require.NoError(t, err)
	records := parseCSV(t, b)

	assert.Equal(t, []string{
		"Semester 1", "2025-01-15", "2025-07-14", "3000.00",
		"Matrícula: 300.00; Biblioteca: 200.00; Laboratorio: 150.00", "3650.00",
	}, records[8])
	assert.Equal(t, []string{"Grand Total", "", "", "", "", "14600.00"}, records[len(records)-1])
	assert.Equal(t, []string{"Total Program Cost", "14600.00"}, records[6])
}

func TestCSVFormatter_SemicolonAndBOM(t *testing.T) {
	f := &export.CSVFormatter{Delimiter: ';', BOM: true}
	doc := export.Document{Student: student, Program: scenarioC(), Plan: tuition.GeneratePlan(scenarioC(), jan15)}

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, doc))

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(out), "Semester 1;2025-01-15;2025-07-14;2500.00;;2500.00")
}

func TestRender_Preconditions(t *testing.T) {
	f := &export.CSVFormatter{}
	plan := tuition.GeneratePlan(scenarioA(), jan15)

	_, err := export.Render(f, export.Document{Program: scenarioA(), Plan: plan})
	assert.True(t, errors.Is(err, tuition.ErrMissingStudent))

	_, err = export.Render(f, export.Document{Student: student, Plan: plan})
	assert.True(t, errors.Is(err, tuition.ErrMissingProgram))
}

// =============================================================================
// XLSX
// =============================================================================

func TestXLSXFormatter_SameLayout(t *testing.T) {
	plan := tuition.GeneratePlan(scenarioA(), jan15)
	doc := export.Document{Student: student, Program: scenarioA(), Plan: plan}

	b, err := export.Render(&export.XLSXFormatter{}, doc)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(export.SheetName)
	require.NoError(t, err)

	assert.Equal(t, "A-2024-0001", rows[0][1])
	columnsRow := -1
	for i, r := range rows {
		if len(r) > 0 && r[0] == export.Columns[0] {
			columnsRow = i
			break
		}
	}
	require.GreaterOrEqual(t, columnsRow, 7)
	assert.Equal(t, export.Columns, rows[columnsRow])

	last := rows[len(rows)-1]
	assert.Equal(t, export.GrandTotalLabel, last[0])
	assert.True(t, decimal.RequireFromString(last[5]).Equal(decimal.RequireFromString("14600")))

	semesters := 0
	for _, r := range rows {
		if len(r) > 0 && strings.HasPrefix(r[0], export.SemesterPrefix) {
			semesters++
			assert.True(t, decimal.RequireFromString(r[5]).Equal(decimal.RequireFromString("3650")))
		}
	}
	assert.Equal(t, 4, semesters)
}

// =============================================================================
// NAMES AND FORMATS
// =============================================================================

func TestFileName(t *testing.T) {
	doc := export.Document{
		Student:     tuition.Student{Code: "2024/0001"},
		Program:     tuition.Program{ID: "ing sistemas"},
		GeneratedOn: tuition.NewDate(2025, time.March, 9),
	}

	assert.Equal(t, "plan_2024-0001_ing-sistemas_2025-03-09.csv", export.FileName(doc, "csv"))
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, f)

	f, err = export.ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)

	_, err = export.ParseFormat("pdf")
	assert.True(t, errors.Is(err, tuition.ErrUnsupportedFormat))
}

// =============================================================================
// SINKS
// =============================================================================

func TestFileSink_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink, err := export.NewFileSink(dir)
	require.NoError(t, err)

	loc, err := sink.Put(context.Background(), "plan_a.csv", "text/csv", []byte("x,y\n"))
	require.NoError(t, err)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(got))
	assert.Equal(t, filepath.Join(dir, "plan_a.csv"), loc)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &export.WriterSink{W: &buf}

	loc, err := sink.Put(context.Background(), "plan.csv", "text/csv", []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "plan.csv", loc)
	assert.Equal(t, "abc", buf.String())
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(in.Body)
	f.body = buf.Bytes()
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_PutsUnderPrefix(t *testing.T) {
	client := &fakeS3{}
	sink := &export.S3Sink{Client: client, Bucket: "planes", Prefix: "exports/2025"}

	loc, err := sink.Put(context.Background(), "plan_a.csv", "text/csv", []byte("data"))
	require.NoError(t, err)

	assert.Equal(t, "s3://planes/exports/2025/plan_a.csv", loc)
	assert.Equal(t, "exports/2025/plan_a.csv", *client.input.Key)
	assert.Equal(t, "text/csv", *client.input.ContentType)
	assert.Equal(t, "data", string(client.body))
}
