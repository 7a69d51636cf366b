package query

import (
	"context"
	"fmt"
	"time"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendHTTP     = "http"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	DSN     string
	URL     string
	MaxRows int
	Timeout time.Duration
}

// Open builds the executor named by opts.Backend. The sqlite backend is
// loaded from d; the others ignore it.
func Open(ctx context.Context, opts Options, d *dataset.Dataset) (Executor, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return NewSQLiteExecutor(ctx, d, opts.MaxRows)
	case BackendPostgres:
		return NewPostgresExecutor(ctx, opts.DSN, opts.MaxRows)
	case BackendHTTP:
		return NewHTTPExecutor(opts.URL, opts.Timeout, opts.MaxRows)
	}
	return nil, fmt.Errorf("unknown query backend %q (want sqlite, postgres or http)", opts.Backend)
}
