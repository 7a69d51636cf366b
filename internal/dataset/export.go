package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Format names a raw-data export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format: %s (use csv or xlsx)", s)
}

// ExportFilename returns data-export-<unix-millis>.<ext>.
func ExportFilename(f Format, now time.Time) string {
	return fmt.Sprintf("data-export-%d.%s", now.UnixMilli(), f)
}

// Write re-exports the dataset in the given format.
func Write(w io.Writer, d *Dataset, f Format) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, d)
	default:
		return WriteCSV(w, d)
	}
}

// WriteCSV writes the header followed by one line per row. Fields holding a
// delimiter or quote are quoted; empty cells are written as empty fields.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(d.Columns()))
	for i, r := range d.Rows() {
		for j := range rec {
			rec[j] = r.At(j).String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

const xlsxSheet = "Sheet1"

// WriteXLSX writes the dataset to the first sheet of a new workbook. Number
// cells stay numeric.
func WriteXLSX(w io.Writer, d *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	cols := d.Columns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	vals := make([]any, len(cols))
	for i, r := range d.Rows() {
		for j := range vals {
			vals[j] = r.At(j).Value()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
