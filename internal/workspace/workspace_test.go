package workspace

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/query"
)

type scripted struct {
	reply string
	req   ai.ChatRequest
}

func (s *scripted) StreamChat(ctx context.Context, req ai.ChatRequest, onDelta func(string)) error {
	s.req = req
	for _, part := range strings.SplitAfter(s.reply, " ") {
		onDelta(part)
	}
	return nil
}

const salesCSV = "region,amount,status\nNorth,1500,active\nSouth,2300.5,inactive\nNorth,890.25,active"

func TestAskCarriesDataContext(t *testing.T) {
	s := &scripted{reply: "North leads. ```json{\"sql\":\"SELECT region FROM data\"}```"}
	w := New(s, nil, Options{ContextTokenLimit: 2000})
	w.Load(dataset.Parse(salesCSV))

	m, err := w.Ask(context.Background(), "who leads?", nil)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if m.Directive == nil || m.Directive.Query != "SELECT region FROM data" {
		t.Fatalf("directive: %+v", m)
	}
	system := s.req.Messages[0].Content
	if !strings.Contains(system, `data("region" TEXT, "amount" REAL, "status" TEXT)`) {
		t.Fatalf("schema missing from prompt:\n%s", system)
	}
	if !strings.Contains(system, "North") {
		t.Fatalf("sample rows missing from prompt")
	}
}

func TestSchemaOnlyForLocalBackend(t *testing.T) {
	w := New(&scripted{}, nil, Options{Query: query.Options{Backend: query.BackendHTTP, URL: "http://x"}})
	w.Load(dataset.Parse(salesCSV))
	p, err := w.SystemPrompt()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(p, `data("region"`) {
		t.Fatalf("remote backend should not advertise the local table")
	}
}

func TestQueryReloadsAfterLoad(t *testing.T) {
	ctx := context.Background()
	w := New(&scripted{}, nil, Options{})
	defer w.Close()

	if _, err := w.Query(ctx, "SELECT 1"); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
	w.Load(dataset.Parse(salesCSV))
	res, err := w.Query(ctx, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := res.Rows[0].Get("n"); c.String() != "3" {
		t.Fatalf("count = %v", c)
	}

	w.Load(dataset.Parse("a\n1\n2\n3\n4\n5"))
	res, err = w.Query(ctx, "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := res.Rows[0].Get("n"); c.String() != "5" {
		t.Fatalf("stale executor: %v", c)
	}

	var ve *query.ValidationError
	if _, err := w.Query(ctx, "DROP TABLE data"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type gatedExecutor struct {
	started chan struct{}
	proceed chan struct{}
	closed  atomic.Bool
}

func (g *gatedExecutor) Execute(ctx context.Context, sql string) (*query.Result, error) {
	close(g.started)
	<-g.proceed
	if g.closed.Load() {
		return nil, errors.New("database is closed")
	}
	return &query.Result{Columns: []string{"n"}}, nil
}

func (g *gatedExecutor) Close() error {
	g.closed.Store(true)
	return nil
}

func TestLoadKeepsExecutorOpenForRunningQuery(t *testing.T) {
	gate := &gatedExecutor{started: make(chan struct{}), proceed: make(chan struct{})}
	w := New(&scripted{}, nil, Options{})
	w.open = func(context.Context, query.Options, *dataset.Dataset) (query.Executor, error) {
		return gate, nil
	}
	w.Load(dataset.Parse(salesCSV))

	errc := make(chan error, 1)
	go func() {
		_, err := w.Query(context.Background(), "SELECT * FROM data")
		errc <- err
	}()
	<-gate.started
	w.Load(dataset.Parse("a\n1\n2"))
	if gate.closed.Load() {
		t.Fatalf("executor closed while a query was running")
	}
	close(gate.proceed)
	if err := <-errc; err != nil {
		t.Fatalf("running query failed: %v", err)
	}
	if !gate.closed.Load() {
		t.Fatalf("replaced executor must be closed once idle")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(path, []byte(salesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "sales.csv" || d.Len() != 3 {
		t.Fatalf("dataset: %s %d", d.Name, d.Len())
	}

	var xlsx bytes.Buffer
	if err := dataset.WriteXLSX(&xlsx, d); err != nil {
		t.Fatal(err)
	}
	xpath := filepath.Join(dir, "Sales.XLSX")
	if err := os.WriteFile(xpath, xlsx.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	x, err := ReadFile(xpath)
	if err != nil {
		t.Fatal(err)
	}
	if x.Len() != 3 || len(x.Columns()) != 3 {
		t.Fatalf("xlsx dataset: %d rows", x.Len())
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatal("expected open error")
	}
}

func TestExportReport(t *testing.T) {
	s := &scripted{reply: "## Insights & Patterns\nNorth sells most."}
	dir := t.TempDir()
	w := New(s, nil, Options{ReportsDir: dir})
	if _, err := w.ExportReport("Sales"); !errors.Is(err, ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
	w.Load(dataset.Parse(salesCSV))
	if _, err := w.Ask(context.Background(), "insights?", nil); err != nil {
		t.Fatal(err)
	}
	in := w.ReportInput("Sales")
	if !strings.Contains(in.Narrative, "North sells most.") {
		t.Fatalf("narrative: %q", in.Narrative)
	}
	path, err := w.ExportReport("Sales")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".pdf") {
		t.Fatalf("path = %s", path)
	}
}
