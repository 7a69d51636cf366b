package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// HTTPExecutor delegates execution to a remote endpoint that accepts
// {"query": sql} and answers {"data": [...], "rowCount": n} or {"error": msg}.
type HTTPExecutor struct {
	url     string
	client  *http.Client
	maxRows int
}

func NewHTTPExecutor(url string, timeout time.Duration, maxRows int) (*HTTPExecutor, error) {
	if url == "" {
		return nil, fmt.Errorf("http backend needs query_url")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &HTTPExecutor{url: url, client: &http.Client{Timeout: timeout}, maxRows: maxRows}, nil
}

type httpResponse struct {
	Data     []json.RawMessage `json:"data"`
	RowCount *int              `json:"rowCount"`
	Error    string            `json:"error"`
}

func (h *HTTPExecutor) Execute(ctx context.Context, query string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &ExecError{Backend: "http", Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &ExecError{Backend: "http", Status: resp.StatusCode, Err: err}
	}
	var out httpResponse
	decErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || out.Error != "" {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ExecError{Backend: "http", Status: resp.StatusCode, Message: msg}
	}
	if decErr != nil {
		return nil, &ExecError{Backend: "http", Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decErr)}
	}

	var cols []string
	seen := map[string]int{}
	var objs [][]field
	for i, r := range out.Data {
		if i == h.maxRows {
			break
		}
		obj, err := orderedObject(r)
		if err != nil {
			return nil, &ExecError{Backend: "http", Status: resp.StatusCode, Err: fmt.Errorf("row %d: %w", i, err)}
		}
		for _, f := range obj {
			if _, ok := seen[f.key]; !ok {
				seen[f.key] = len(cols)
				cols = append(cols, f.key)
			}
		}
		objs = append(objs, obj)
	}
	cells := make([][]dataset.Cell, len(objs))
	for i, obj := range objs {
		row := make([]dataset.Cell, len(cols))
		for j := range row {
			row[j] = dataset.Text("")
		}
		for _, f := range obj {
			row[seen[f.key]] = cellOf(f.val)
		}
		cells[i] = row
	}
	res := newResult(cols, cells, len(out.Data) > h.maxRows)
	if out.RowCount != nil {
		res.RowCount = *out.RowCount
	}
	return res, nil
}

func (h *HTTPExecutor) Close() error { return nil }

type field struct {
	key string
	val any
}

// orderedObject decodes one JSON object keeping its key order.
func orderedObject(raw json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}
	var out []field
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		switch v.(type) {
		case map[string]any, []any:
			b, _ := json.Marshal(v)
			v = string(b)
		}
		out = append(out, field{key: key, val: v})
	}
	return out, nil
}
