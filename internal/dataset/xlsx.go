package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FromXLSX reads one sheet of a workbook and types its cells the same way
// Parse does. sheet selects by name; empty means the first sheet.
func FromXLSX(r io.Reader, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet '%s' not found. Available sheets: %s", sheet, strings.Join(f.GetSheetList(), ", "))
	}
	if sheet == "" {
		return nil, fmt.Errorf("open xlsx: no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return Empty(), nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = clean(h)
	}
	cells := make([][]Cell, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(rec) {
				row[i] = ParseCell(rec[i])
			} else {
				row[i] = Text("")
			}
		}
		cells = append(cells, row)
	}
	return New(header, cells), nil
}
