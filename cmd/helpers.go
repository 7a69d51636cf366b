package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/worktracker75-ui/datanav/internal/ai"
	cfgpkg "github.com/worktracker75-ui/datanav/internal/config"
	"github.com/worktracker75-ui/datanav/internal/conversation"
	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/query"
	"github.com/worktracker75-ui/datanav/internal/workspace"
)

// currentConfig never returns nil so commands can run without a config file.
func currentConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	return &cfgpkg.Global{}
}

func buildClient(c *cfgpkg.Global) *ai.Client {
	rc := ai.Config{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
	}
	if c.HTTPTimeoutSec > 0 {
		rc.HTTPTimeout = time.Duration(c.HTTPTimeoutSec) * time.Second
	}
	if c.RetryMaxAttempts > 0 {
		rc.RetryMax = c.RetryMaxAttempts
	}
	if c.RetryBaseDelayMs > 0 {
		rc.BaseDelay = time.Duration(c.RetryBaseDelayMs) * time.Millisecond
	}
	if c.RetryMaxDelayMs > 0 {
		rc.MaxDelay = time.Duration(c.RetryMaxDelayMs) * time.Millisecond
	}
	return ai.NewClient(rc)
}

type runtimeOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Session     string
}

func selectModel(c *cfgpkg.Global, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	return ai.DefaultModel
}

// newWorkspace wires a workspace from config. s is the assistant transport;
// a saved session transcript is resumed when opts.Session is set.
func newWorkspace(c *cfgpkg.Global, s ai.Streamer, opts runtimeOptions) (*workspace.Workspace, error) {
	conv := conversation.New()
	if opts.Session != "" {
		loaded, err := conversation.Load(opts.Session)
		if err != nil {
			return nil, err
		}
		conv = loaded
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	temp := opts.Temperature
	if temp == 0 {
		temp = c.Temperature
	}
	return workspace.New(s, conv, workspace.Options{
		Chat: conversation.Options{
			Model:       selectModel(c, opts.Model),
			MaxTokens:   maxTokens,
			Temperature: temp,
		},
		Query: query.Options{
			Backend: c.QueryBackend,
			DSN:     c.QueryDSN,
			URL:     c.QueryURL,
			MaxRows: c.QueryMaxRows,
			Timeout: time.Duration(c.HTTPTimeoutSec) * time.Second,
		},
		ContextTokenLimit: c.ContextTokenLimit,
		ReportsDir:        c.ReportsDir,
	}), nil
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func loadDataset(path string) (*dataset.Dataset, error) {
	d, err := workspace.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if d.IsEmpty() {
		return nil, fmt.Errorf("%s: no data rows found", filepath.Base(path))
	}
	return d, nil
}

// printTable writes d as aligned columns, at most limit rows (0 = all).
func printTable(w io.Writer, d *dataset.Dataset, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(d.Columns(), "\t"))
	for i, r := range d.Rows() {
		if limit > 0 && i == limit {
			break
		}
		cells := make([]string, r.Len())
		for j := range cells {
			cells[j] = strings.ReplaceAll(r.At(j).String(), "\t", " ")
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
	if limit > 0 && d.Len() > limit {
		fmt.Fprintf(w, "... %d more rows\n", d.Len()-limit)
	}
}

type outputOptions struct {
	JSON       bool
	OutputPath string
	Writer     io.Writer
}

// writeOutput prints content (or v as JSON) and optionally saves it.
func writeOutput(content string, v any, opts outputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	body := []byte(content)
	if opts.JSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		body = b
	}
	if opts.OutputPath == "" {
		fmt.Fprintln(w, string(body))
		return nil
	}
	if err := os.WriteFile(opts.OutputPath, body, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", opts.OutputPath)
	return nil
}
