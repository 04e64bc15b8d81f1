package excel

import (
	"encoding/csv"
	"io"
	"strconv"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// header returns the export header: the index key followed by every column
func header(t *dataset.Table) []string {
	return append([]string{dataset.IndexColumn}, t.Names()...)
}

func formatCell(c dataset.Column, i int) string {
	if c.Kind == dataset.KindText {
		return c.Texts[i]
	}
	return strconv.FormatFloat(c.Numbers[i], 'f', -1, 64)
}

// WriteCSV writes the table as comma separated UTF-8 text with a header row. The
// index key is written as the first column; no row-number column is added.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(t)); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	record := make([]string, len(t.Columns)+1)
	for i, idx := range t.Index {
		record[0] = strconv.Itoa(idx)
		for j, c := range t.Columns {
			record[j+1] = formatCell(c, i)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "failed to write CSV row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV")
}

// WriteXLSX writes the table to a single-sheet workbook laid out like WriteCSV
func WriteXLSX(w io.Writer, t *dataset.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	head := header(t)
	row := make([]interface{}, len(head))
	for j, h := range head {
		row[j] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &row); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}

	for i, idx := range t.Index {
		row[0] = idx
		for j, c := range t.Columns {
			row[j+1] = c.Cell(i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "failed to address row")
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+1)
		}
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}
