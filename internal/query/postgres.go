package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// PostgresExecutor runs queries in read-only transactions on a pool.
type PostgresExecutor struct {
	pool    *pgxpool.Pool
	maxRows int
}

func NewPostgresExecutor(ctx context.Context, dsn string, maxRows int) (*PostgresExecutor, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres backend needs query_dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &PostgresExecutor{pool: pool, maxRows: maxRows}, nil
}

func (p *PostgresExecutor) Execute(ctx context.Context, query string) (*Result, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, &ExecError{Backend: "postgres", Err: err}
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, &ExecError{Backend: "postgres", Err: err}
	}
	defer rows.Close()
	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	var out [][]dataset.Cell
	truncated := false
	for rows.Next() {
		if len(out) == p.maxRows {
			truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, &ExecError{Backend: "postgres", Err: err}
		}
		cells := make([]dataset.Cell, len(vals))
		for i, v := range vals {
			cells[i] = pgCell(v)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecError{Backend: "postgres", Err: err}
	}
	return newResult(cols, out, truncated), nil
}

func pgCell(v any) dataset.Cell {
	if n, ok := v.(pgtype.Numeric); ok {
		if !n.Valid {
			return dataset.Text("")
		}
		if f, err := n.Float64Value(); err == nil && f.Valid {
			return dataset.Number(f.Float64)
		}
	}
	return cellOf(v)
}

func (p *PostgresExecutor) Close() error {
	p.pool.Close()
	return nil
}
