package dataset

import (
	"sort"
	"strings"
)

// Sort returns a copy of d ordered by column. Numbers compare numerically,
// text case-insensitively, and empty cells always sort last. In ascending
// order numbers come before text. Unknown columns return d unchanged.
func (d *Dataset) Sort(column string, asc bool) *Dataset {
	idx, ok := d.ColumnIndex(column)
	if !ok {
		return d
	}
	rows := make([]Row, len(d.rows))
	copy(rows, d.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].cells[idx], rows[j].cells[idx]
		if a.IsEmpty() || b.IsEmpty() {
			return !a.IsEmpty() && b.IsEmpty()
		}
		c := compareCells(a, b)
		if asc {
			return c < 0
		}
		return c > 0
	})
	return &Dataset{Name: d.Name, schema: d.schema, rows: rows}
}

func compareCells(a, b Cell) int {
	af, aNum := a.Float()
	bf, bNum := b.Float()
	switch {
	case aNum && bNum:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(strings.ToLower(a.text), strings.ToLower(b.text))
}
