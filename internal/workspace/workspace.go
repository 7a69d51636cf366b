// Package workspace holds the state one analysis session works on: the
// loaded dataset with its summary, the conversation, and the query backend.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/analysis"
	"github.com/worktracker75-ui/datanav/internal/conversation"
	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/query"
	"github.com/worktracker75-ui/datanav/internal/report"
	"github.com/worktracker75-ui/datanav/internal/utils"
)

// ErrNoDataset is returned by operations that need loaded data.
var ErrNoDataset = errors.New("no dataset loaded")

// Options configures a Workspace.
type Options struct {
	Chat              conversation.Options
	Query             query.Options
	ContextTokenLimit int
	ReportsDir        string
}

// Workspace is safe for concurrent use. Loading a dataset replaces the
// previous one wholesale; the conversation is kept.
type Workspace struct {
	mu      sync.RWMutex
	data    *dataset.Dataset
	summary *analysis.Summary
	exec    *execHandle

	conv   *conversation.Conversation
	runner *conversation.Runner
	opts   Options
	now    func() time.Time
	open   func(context.Context, query.Options, *dataset.Dataset) (query.Executor, error)
}

// execHandle counts the queries running on an executor. A replaced
// executor is closed once the last of them has returned.
type execHandle struct {
	ex      query.Executor
	users   int
	retired bool
}

// New builds an empty workspace. conv may be nil for a fresh transcript.
func New(s ai.Streamer, conv *conversation.Conversation, opts Options) *Workspace {
	if conv == nil {
		conv = conversation.New()
	}
	return &Workspace{
		data:    dataset.Empty(),
		summary: analysis.Summarize(dataset.Empty()),
		conv:    conv,
		runner:  conversation.NewRunner(conv, s, opts.Chat),
		opts:    opts,
		now:     time.Now,
		open:    query.Open,
	}
}

// Load replaces the dataset and returns its summary.
func (w *Workspace) Load(d *dataset.Dataset) *analysis.Summary {
	s := analysis.Summarize(d)
	w.mu.Lock()
	old := w.retire()
	w.data, w.summary = d, s
	w.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	log.Debug().Str("dataset", d.Name).Int("rows", d.Len()).Int("columns", len(d.Columns())).Msg("dataset loaded")
	return s
}

// LoadFile reads a CSV or XLSX file, chosen by extension.
func (w *Workspace) LoadFile(path string) (*analysis.Summary, error) {
	d, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return w.Load(d), nil
}

// ReadFile parses a data file. .xlsx goes through the workbook reader;
// anything else is treated as CSV text.
func ReadFile(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()
	d, err := Read(f, IsSpreadsheet(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	d.Name = filepath.Base(path)
	return d, nil
}

// Read parses r as a workbook or as CSV text.
func Read(r io.Reader, spreadsheet bool) (*dataset.Dataset, error) {
	if spreadsheet {
		return dataset.FromXLSX(r, "")
	}
	return dataset.ParseReader(r)
}

// IsSpreadsheet reports whether name looks like an XLSX workbook.
func IsSpreadsheet(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}

// Snapshot returns the current dataset and its summary.
func (w *Workspace) Snapshot() (*dataset.Dataset, *analysis.Summary) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data, w.summary
}

// Conversation returns the transcript.
func (w *Workspace) Conversation() *conversation.Conversation { return w.conv }

// SystemPrompt renders the assistant instructions with the data context,
// truncated to the configured token limit. The table schema is only
// advertised when queries run against the loaded data.
func (w *Workspace) SystemPrompt() (string, error) {
	d, s := w.Snapshot()
	dc, err := analysis.DataContext(d, s)
	if err != nil {
		return "", err
	}
	if w.opts.ContextTokenLimit > 0 {
		dc = utils.TruncateToTokenLimit(dc, w.opts.ContextTokenLimit)
	}
	schema := ""
	if b := w.opts.Query.Backend; b == "" || b == query.BackendSQLite {
		schema = query.Schema(d)
	}
	return ai.SystemPrompt(dc, schema), nil
}

// Ask runs one assistant turn. onDelta sees every merged delta.
func (w *Workspace) Ask(ctx context.Context, content string, onDelta func(id, delta string)) (conversation.Message, error) {
	system, err := w.SystemPrompt()
	if err != nil {
		return conversation.Message{}, err
	}
	return w.runner.Send(ctx, system, content, onDelta)
}

// Query validates sql and runs it on the configured backend. The sqlite
// backend is built lazily from the loaded dataset and reused until the
// next Load.
func (w *Workspace) Query(ctx context.Context, sql string) (*query.Result, error) {
	if err := query.Validate(sql); err != nil {
		return nil, err
	}
	h, err := w.acquire(ctx)
	if err != nil {
		return nil, err
	}
	start := w.now()
	res, err := query.Run(ctx, h.ex, sql)
	w.release(h)
	if err != nil {
		log.Warn().Err(err).Str("backend", w.backend()).Msg("query failed")
		return nil, err
	}
	log.Debug().Str("backend", w.backend()).Int("rows", res.RowCount).Bool("truncated", res.Truncated).
		Dur("elapsed", w.now().Sub(start)).Msg("query executed")
	return res, nil
}

func (w *Workspace) backend() string {
	if w.opts.Query.Backend == "" {
		return query.BackendSQLite
	}
	return w.opts.Query.Backend
}

func (w *Workspace) acquire(ctx context.Context) (*execHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exec == nil {
		if w.backend() == query.BackendSQLite && w.data.IsEmpty() {
			return nil, ErrNoDataset
		}
		ex, err := w.open(ctx, w.opts.Query, w.data)
		if err != nil {
			return nil, err
		}
		w.exec = &execHandle{ex: ex}
	}
	w.exec.users++
	return w.exec, nil
}

func (w *Workspace) release(h *execHandle) {
	w.mu.Lock()
	h.users--
	idle := h.retired && h.users == 0
	w.mu.Unlock()
	if idle {
		_ = h.ex.Close()
	}
}

// retire detaches the current executor and returns it when nothing is
// using it, so the caller can close it outside the lock. Otherwise the
// last release closes it. w.mu must be held.
func (w *Workspace) retire() query.Executor {
	h := w.exec
	w.exec = nil
	if h == nil {
		return nil
	}
	h.retired = true
	if h.users > 0 {
		return nil
	}
	return h.ex
}

// ReportInput gathers what a report is built from. The narrative is the
// latest assistant answer, if any.
func (w *Workspace) ReportInput(title string) report.Input {
	d, s := w.Snapshot()
	in := report.Input{Title: title, Dataset: d, Summary: s, Generated: w.now()}
	if m, ok := w.conv.LastAssistant(); ok {
		in.Narrative = m.Content
	}
	return in
}

// ExportReport writes the PDF report into the configured reports dir.
func (w *Workspace) ExportReport(title string) (string, error) {
	d, _ := w.Snapshot()
	if d.IsEmpty() {
		return "", ErrNoDataset
	}
	path, err := report.Export(w.opts.ReportsDir, w.ReportInput(title))
	if err != nil {
		return "", err
	}
	log.Debug().Str("path", path).Msg("report exported")
	return path, nil
}

// Close releases the query backend.
func (w *Workspace) Close() error {
	w.mu.Lock()
	ex := w.retire()
	w.mu.Unlock()
	if ex != nil {
		return ex.Close()
	}
	return nil
}
