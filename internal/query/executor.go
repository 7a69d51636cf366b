package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// DefaultMaxRows caps result size when no limit is configured.
const DefaultMaxRows = 1000

// Executor runs a validated read-only query.
type Executor interface {
	Execute(ctx context.Context, sql string) (*Result, error)
	Close() error
}

// Result is a query answer in typed rows, so it can be summarized and
// charted like an uploaded dataset.
type Result struct {
	Columns  []string      `json:"columns"`
	Rows     []dataset.Row `json:"data"`
	RowCount int           `json:"rowCount"`
	// Truncated is set when rows beyond the configured limit were dropped.
	Truncated bool `json:"truncated,omitempty"`

	data *dataset.Dataset
}

func newResult(cols []string, cells [][]dataset.Cell, truncated bool) *Result {
	d := dataset.New(cols, cells)
	d.Name = "query result"
	return &Result{Columns: d.Columns(), Rows: d.Rows(), RowCount: d.Len(), Truncated: truncated, data: d}
}

// Dataset returns the result rows as a Dataset.
func (r *Result) Dataset() *dataset.Dataset {
	if r.data == nil {
		return dataset.Empty()
	}
	return r.data
}

// ExecError is a failed execution reported by a backend.
type ExecError struct {
	Backend string
	Status  int
	Message string
	Err     error
}

func (e *ExecError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("query failed (%s, status %d): %s", e.Backend, e.Status, msg)
	}
	return fmt.Sprintf("query failed (%s): %s", e.Backend, msg)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Run validates sql and executes it on ex.
func Run(ctx context.Context, ex Executor, sql string) (*Result, error) {
	if err := Validate(sql); err != nil {
		return nil, err
	}
	return ex.Execute(ctx, Normalize(sql))
}

// cellOf converts a driver value into a typed cell.
func cellOf(v any) dataset.Cell {
	switch x := v.(type) {
	case nil:
		return dataset.Text("")
	case float64:
		return dataset.Number(x)
	case float32:
		return dataset.Number(float64(x))
	case int64:
		return dataset.Number(float64(x))
	case int32:
		return dataset.Number(float64(x))
	case int16:
		return dataset.Number(float64(x))
	case int:
		return dataset.Number(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return dataset.Number(f)
		}
		return dataset.Text(x.String())
	case bool:
		return dataset.Text(strconv.FormatBool(x))
	case []byte:
		return dataset.ParseCell(string(x))
	case string:
		return dataset.Text(x)
	case time.Time:
		return dataset.Text(x.Format(time.RFC3339))
	case fmt.Stringer:
		return dataset.ParseCell(x.String())
	default:
		return dataset.Text(fmt.Sprint(x))
	}
}

// Schema describes d as the table the sqlite backend creates.
func Schema(d *dataset.Dataset) string {
	if d == nil || len(d.Columns()) == 0 {
		return ""
	}
	cols := d.Columns()
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c) + " " + columnType(d, c)
	}
	return TableName + "(" + strings.Join(parts, ", ") + ")"
}

func columnType(d *dataset.Dataset, col string) string {
	cells, _ := d.Column(col)
	numeric := false
	for _, c := range cells {
		if c.IsEmpty() {
			continue
		}
		if c.Kind() != dataset.KindNumber {
			return "TEXT"
		}
		numeric = true
	}
	if numeric {
		return "REAL"
	}
	return "TEXT"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
