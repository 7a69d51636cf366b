package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind int

const (
	KindText Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "text"
}

// Cell is either a 64-bit float or a string, decided once when the cell is parsed.
type Cell struct {
	kind Kind
	num  float64
	text string
}

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Text returns a string cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

func (c Cell) Kind() Kind { return c.kind }

// Float returns the numeric value and true for number cells.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumber {
		return 0, false
	}
	return c.num, true
}

// Str returns the string value and true for text cells.
func (c Cell) Str() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// IsEmpty reports whether the cell is an empty text value.
func (c Cell) IsEmpty() bool { return c.kind == KindText && c.text == "" }

// String renders the cell the way it would appear in a re-exported CSV.
func (c Cell) String() string {
	if c.kind == KindNumber {
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	}
	return c.text
}

// Value returns the cell as float64 or string, for JSON encoding.
func (c Cell) Value() any {
	if c.kind == KindNumber {
		return c.num
	}
	return c.text
}

// MarshalJSON encodes a number cell as a JSON number and a text cell as a JSON string.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == KindNumber {
		return []byte(strconv.FormatFloat(c.num, 'g', -1, 64)), nil
	}
	return []byte(strconv.Quote(c.text)), nil
}

// schema is shared by every row of one dataset.
type schema struct {
	columns []string
	index   map[string]int
}

func newSchema(columns []string) *schema {
	s := &schema{columns: make([]string, 0, len(columns)), index: make(map[string]int, len(columns))}
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		base := name
		for n := 2; ; n++ {
			if _, dup := s.index[name]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		s.index[name] = len(s.columns)
		s.columns = append(s.columns, name)
	}
	return s
}

// Row maps column names to cells. Every row of a dataset exposes the same
// key set in header order.
type Row struct {
	schema *schema
	cells  []Cell
}

// Get returns the cell for column name.
func (r Row) Get(name string) (Cell, bool) {
	if r.schema == nil {
		return Cell{}, false
	}
	i, ok := r.schema.index[name]
	if !ok {
		return Cell{}, false
	}
	return r.cells[i], true
}

// At returns the cell at column position i.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r.cells) {
		return Text("")
	}
	return r.cells[i]
}

// Columns returns the row's keys in header order.
func (r Row) Columns() []string {
	if r.schema == nil {
		return nil
	}
	return append([]string(nil), r.schema.columns...)
}

// Len returns the number of cells in the row.
func (r Row) Len() int { return len(r.cells) }

// MarshalJSON encodes the row as a JSON object with keys in header order.
func (r Row) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range r.cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(r.schema.columns[i]))
		b.WriteByte(':')
		v, _ := c.MarshalJSON()
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// Dataset is the typed result of one upload. It is not mutated after
// construction; operations that reorder rows return a new Dataset.
type Dataset struct {
	Name   string
	schema *schema
	rows   []Row
}

// New builds a dataset from a header and positional cells. Rows shorter than
// the header are padded with empty text cells, longer rows are cut.
func New(columns []string, cells [][]Cell) *Dataset {
	s := newSchema(columns)
	d := &Dataset{schema: s, rows: make([]Row, 0, len(cells))}
	for _, rc := range cells {
		row := make([]Cell, len(s.columns))
		for i := range row {
			if i < len(rc) {
				row[i] = rc[i]
			} else {
				row[i] = Text("")
			}
		}
		d.rows = append(d.rows, Row{schema: s, cells: row})
	}
	return d
}

// Empty returns a dataset with no columns and no rows.
func Empty() *Dataset { return &Dataset{schema: newSchema(nil)} }

// Columns returns the column names in header order.
func (d *Dataset) Columns() []string {
	if d == nil || d.schema == nil {
		return nil
	}
	return append([]string(nil), d.schema.columns...)
}

// Rows returns the rows in input order.
func (d *Dataset) Rows() []Row {
	if d == nil {
		return nil
	}
	return d.rows
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// IsEmpty reports whether the dataset has no data rows.
func (d *Dataset) IsEmpty() bool { return d.Len() == 0 }

// ColumnIndex returns the position of the named column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if d == nil || d.schema == nil {
		return 0, false
	}
	i, ok := d.schema.index[name]
	return i, ok
}

// Column returns every cell of the named column, in row order.
func (d *Dataset) Column(name string) ([]Cell, bool) {
	i, ok := d.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]Cell, len(d.rows))
	for j, r := range d.rows {
		out[j] = r.cells[i]
	}
	return out, true
}

// Head returns a dataset holding at most the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if d == nil {
		return Empty()
	}
	if n < 0 || n > len(d.rows) {
		n = len(d.rows)
	}
	return &Dataset{Name: d.Name, schema: d.schema, rows: d.rows[:n:n]}
}
