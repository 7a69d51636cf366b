package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// TableName is the table an uploaded dataset is loaded into.
const TableName = "data"

// SQLiteExecutor answers queries against an in-memory copy of a dataset.
type SQLiteExecutor struct {
	db      *sql.DB
	maxRows int
}

// NewSQLiteExecutor loads d into table "data" of a private in-memory
// database and switches the connection to query-only mode.
func NewSQLiteExecutor(ctx context.Context, d *dataset.Dataset, maxRows int) (*SQLiteExecutor, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := load(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set query_only: %w", err)
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &SQLiteExecutor{db: db, maxRows: maxRows}, nil
}

func load(ctx context.Context, db *sql.DB, d *dataset.Dataset) error {
	if d == nil || len(d.Columns()) == 0 {
		_, err := db.ExecContext(ctx, "CREATE TABLE "+TableName+" (_empty TEXT)")
		return err
	}
	if _, err := db.ExecContext(ctx, "CREATE TABLE "+Schema(d)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	cols := d.Columns()
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("prepare load: %w", err)
	}
	defer stmt.Close()
	args := make([]any, len(cols))
	for _, row := range d.Rows() {
		for i := range cols {
			args[i] = row.At(i).Value()
			if row.At(i).IsEmpty() {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("load row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	return nil
}

func (s *SQLiteExecutor) Execute(ctx context.Context, query string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &ExecError{Backend: "sqlite", Err: err}
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecError{Backend: "sqlite", Err: err}
	}
	var out [][]dataset.Cell
	truncated := false
	for rows.Next() {
		if len(out) == s.maxRows {
			truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecError{Backend: "sqlite", Err: err}
		}
		cells := make([]dataset.Cell, len(cols))
		for i, v := range vals {
			cells[i] = cellOf(v)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecError{Backend: "sqlite", Err: err}
	}
	return newResult(cols, out, truncated), nil
}

func (s *SQLiteExecutor) Close() error { return s.db.Close() }
