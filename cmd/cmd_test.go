package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/worktracker75-ui/datanav/internal/ai"
	"github.com/worktracker75-ui/datanav/internal/conversation"
)

const salesCSV = "region,amount,status\nNorth,1500,active\nSouth,2300.5,inactive\nNorth,890.25,active\nEast,1000,active\n"

// resetFlags restores every flag to its default so sticky values from an
// earlier invocation do not leak into the next one.
func resetFlags(c *cobra.Command) {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(fl *pflag.Flag) {
			if sv, ok := fl.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = fl.Value.Set(fl.DefValue)
			}
			fl.Changed = false
		})
	}
	reset(c.Flags())
	reset(c.PersistentFlags())
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := tryCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func tryCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DATANAV_API_KEY", "")
	t.Setenv("DATANAV_BASE_URL", "")
	if err := os.WriteFile(filepath.Join(home, "sales.csv"), []byte(salesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return home
}

type fakeStreamer struct{ reply []string }

func (f fakeStreamer) StreamChat(ctx context.Context, req ai.ChatRequest, onDelta func(string)) error {
	for _, d := range f.reply {
		onDelta(d)
	}
	return nil
}

func useStreamer(t *testing.T, s ai.Streamer) {
	t.Helper()
	old := newStreamer
	newStreamer = func() ai.Streamer { return s }
	t.Cleanup(func() { newStreamer = old })
}

func TestAnalyzeMarkdownAndJSON(t *testing.T) {
	home := setupHome(t)
	out := runCmd(t, "analyze", filepath.Join(home, "sales.csv"), "--preview", "2", "--sort", "amount", "--desc")
	if !strings.Contains(out, "Rows: 4") || !strings.Contains(out, "amount") {
		t.Fatalf("markdown summary missing:\n%s", out)
	}
	if !strings.Contains(out, "region  amount  status\nSouth ") {
		t.Fatalf("sorted preview missing:\n%s", out)
	}

	dst := filepath.Join(home, "summary.json")
	runCmd(t, "analyze", filepath.Join(home, "*.csv"), "--json", "-o", dst)
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	var got []fileAnalysis
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(got) != 1 || got[0].Summary.Rows != 4 || len(got[0].Metrics) != 4 {
		t.Fatalf("analysis: %+v", got)
	}

	if _, err := tryCmd(t, "analyze", filepath.Join(home, "nope-*.csv")); err == nil {
		t.Fatal("expected no-match error")
	}
}

func TestQueryFormats(t *testing.T) {
	home := setupHome(t)
	file := filepath.Join(home, "sales.csv")
	out := runCmd(t, "query", file, "SELECT region, SUM(amount) AS total FROM data GROUP BY region ORDER BY region")
	if !strings.Contains(out, "North") || !strings.Contains(out, "2390.25") || !strings.Contains(out, "(3 rows)") {
		t.Fatalf("table output:\n%s", out)
	}
	out = runCmd(t, "query", file, "SELECT region FROM data WHERE amount > 2000", "--format", "csv")
	if strings.TrimSpace(out) != "region\nSouth" {
		t.Fatalf("csv output: %q", out)
	}
	out = runCmd(t, "query", file, "SELECT COUNT(*) AS n FROM data", "--format", "json")
	if !strings.Contains(out, `"rowCount": 1`) {
		t.Fatalf("json output:\n%s", out)
	}
	if _, err := tryCmd(t, "query", file, "DELETE FROM data"); err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("write query must be rejected, got %v", err)
	}
}

func TestExportCommand(t *testing.T) {
	home := setupHome(t)
	dst := filepath.Join(home, "out", "sorted.csv")
	runCmd(t, "export", filepath.Join(home, "sales.csv"), "--sort", "amount", "-o", dst)
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[1], "North,890.25") {
		t.Fatalf("export: %q", lines)
	}
	xdst := filepath.Join(home, "out", "sales.xlsx")
	runCmd(t, "export", filepath.Join(home, "sales.csv"), "--format", "xlsx", "-o", xdst)
	if fi, err := os.Stat(xdst); err != nil || fi.Size() == 0 {
		t.Fatalf("xlsx not written: %v", err)
	}
	if _, err := tryCmd(t, "export", filepath.Join(home, "sales.csv"), "--format", "ods"); err == nil {
		t.Fatal("expected format error")
	}
}

func TestReportCommand(t *testing.T) {
	home := setupHome(t)
	useStreamer(t, fakeStreamer{reply: []string{"## Key Metrics\n", "North leads with 2390.25."}})
	dir := filepath.Join(home, "reports")
	out := runCmd(t, "report", filepath.Join(home, "sales.csv"), "--dir", dir, "--prompt", "summarize", "--png", "--quiet")
	if !strings.Contains(out, "✓ Report saved to") || !strings.Contains(out, "✓ Page preview") {
		t.Fatalf("output:\n%s", out)
	}
	pdfs, _ := filepath.Glob(filepath.Join(dir, "report-*.pdf"))
	pngs, _ := filepath.Glob(filepath.Join(dir, "report-*-p1.png"))
	if len(pdfs) != 1 || len(pngs) != 1 {
		t.Fatalf("files: %v %v", pdfs, pngs)
	}
	b, _ := os.ReadFile(pdfs[0])
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatal("not a pdf")
	}
}

func TestChatRunsDirective(t *testing.T) {
	home := setupHome(t)
	useStreamer(t, fakeStreamer{reply: []string{
		"North has the most sales.\n",
		"```json{\"sql\":\"SELECT region, SUM(amount) AS total FROM data GROUP BY region ORDER BY total DESC\",\"explanation\":\"totals per region\"}```",
	}})
	session := filepath.Join(home, "s.json")
	out := runCmd(t, "chat", filepath.Join(home, "sales.csv"), "who", "sells", "most?", "--run", "--session", session)
	if !strings.Contains(out, "North has the most sales.") {
		t.Fatalf("stream not echoed:\n%s", out)
	}
	if !strings.Contains(out, "✓ Query: SELECT region") || !strings.Contains(out, "totals per region") {
		t.Fatalf("directive not shown:\n%s", out)
	}
	if !strings.Contains(out, "2390.25") {
		t.Fatalf("query result not printed:\n%s", out)
	}

	conv, err := conversation.Load(session)
	if err != nil {
		t.Fatal(err)
	}
	msgs := conv.Messages()
	if len(msgs) != 2 || msgs[0].Content != "who sells most?" {
		t.Fatalf("session: %+v", msgs)
	}
}

func TestChatDryRun(t *testing.T) {
	home := setupHome(t)
	useStreamer(t, fakeStreamer{})
	out := runCmd(t, "chat", filepath.Join(home, "sales.csv"), "anything", "--dry-run")
	if !strings.Contains(out, "DATABASE SCHEMA:") || !strings.Contains(out, "no API call") {
		t.Fatalf("dry run:\n%s", out)
	}
}

func newIPv4Server(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("IPv4 loopback not available: %v", err)
	}
	srv := &httptest.Server{Listener: ln, Config: &http.Server{Handler: h}}
	srv.Start()
	return srv
}

func TestChatAgainstStreamingEndpoint(t *testing.T) {
	home := setupHome(t)
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Four ", "rows."} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", part)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()
	t.Setenv("DATANAV_BASE_URL", srv.URL)
	t.Setenv("DATANAV_API_KEY", "sk-test")

	out := runCmd(t, "chat", filepath.Join(home, "sales.csv"), "how many rows?")
	if !strings.Contains(out, "Four rows.") {
		t.Fatalf("output:\n%s", out)
	}

	t.Setenv("DATANAV_API_KEY", "sk-wrong")
	if _, err := tryCmd(t, "chat", filepath.Join(home, "sales.csv"), "again?"); err == nil || !strings.Contains(err.Error(), "Authentication failed") {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	home := setupHome(t)
	runCmd(t, "config", "set", "api_key", "sk-or-secret-9876")
	runCmd(t, "config", "set", "query_backend", "http")
	if _, err := tryCmd(t, "config", "set", "query_backend", "oracle"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := os.Stat(filepath.Join(home, ".datanav", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCmd(t, "config", "show")
	if strings.Contains(out, "sk-or-secret") || !strings.Contains(out, "****9876") {
		t.Fatalf("api key not masked:\n%s", out)
	}
	if !strings.Contains(out, "query_backend: http") {
		t.Fatalf("backend not persisted:\n%s", out)
	}
}

func TestServeSavesSessionAfterDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var transcript []string
	run := func(ctx context.Context) error {
		transcript = append(transcript, "half")
		<-ctx.Done()
		// an in-flight stream finishes while the server shuts down
		transcript[0] = "half and whole"
		return nil
	}
	var saved []string
	cancel()
	err := serveThenSave(ctx, run, func() error {
		saved = append(saved, transcript...)
		return nil
	})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(saved) != 1 || saved[0] != "half and whole" {
		t.Fatalf("saved before the server drained: %q", saved)
	}

	listenErr := errors.New("address in use")
	saveErr := errors.New("disk full")
	calls := 0
	err = serveThenSave(context.Background(), func(context.Context) error { return listenErr }, func() error {
		calls++
		return saveErr
	})
	if !errors.Is(err, listenErr) || calls != 1 {
		t.Fatalf("run error must win, got %v (saves=%d)", err, calls)
	}
	err = serveThenSave(ctx, func(ctx context.Context) error { return ctx.Err() }, func() error { return saveErr })
	if !errors.Is(err, saveErr) {
		t.Fatalf("save error after a clean stop: %v", err)
	}
}
