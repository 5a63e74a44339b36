package export

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the plan.
const SheetName = "Plan"

// numFmtTwoDecimals is excelize's built-in "0.00" format.
const numFmtTwoDecimals = 2

// XLSXFormatter writes the table as a spreadsheet with numeric amount cells.
type XLSXFormatter struct{}

func (f *XLSXFormatter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (f *XLSXFormatter) Extension() string { return "xlsx" }

func (f *XLSXFormatter) Format(w io.Writer, doc Document) error {
	book := excelize.NewFile()
	defer book.Close()

	if _, err := book.NewSheet(SheetName); err != nil {
		return errors.Wrap(err, "create sheet")
	}
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "drop default sheet")
	}
	index, err := book.GetSheetIndex(SheetName)
	if err != nil {
		return errors.Wrap(err, "sheet index")
	}
	book.SetActiveSheet(index)

	money, err := book.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
	if err != nil {
		return errors.Wrap(err, "create style")
	}

	t := BuildTable(doc)
	row := 1
	for _, field := range t.Header {
		if err := setRow(book, row, field.Label, field.Value); err != nil {
			return err
		}
		row++
	}
	row++ // blank separator

	cols := make([]any, len(Columns))
	for i, c := range Columns {
		cols[i] = c
	}
	if err := setRow(book, row, cols...); err != nil {
		return err
	}
	row++

	for _, r := range t.Rows {
		if err := setRow(book, row, r.Label, r.Start, r.End, r.Tuition.Value.InexactFloat64(), r.Fees, r.Total.Value.InexactFloat64()); err != nil {
			return err
		}
		if err := styleMoney(book, row, money, 4, 6); err != nil {
			return err
		}
		row++
	}

	if err := setRow(book, row, GrandTotalLabel, "", "", "", "", t.GrandTotal.Value.InexactFloat64()); err != nil {
		return err
	}
	if err := styleMoney(book, row, money, 6); err != nil {
		return err
	}

	if err := book.Write(w); err != nil {
		return errors.Wrap(err, "write xlsx")
	}
	return nil
}

func setRow(book *excelize.File, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if err := book.SetSheetRow(SheetName, cell, &values); err != nil {
		return errors.Wrapf(err, "write row %d", row)
	}
	return nil
}

func styleMoney(book *excelize.File, row, style int, cols ...int) error {
	for _, col := range cols {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := book.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return errors.Wrapf(err, "style %s", cell)
		}
	}
	return nil
}
