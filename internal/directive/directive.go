// Package directive recovers the structured query block an assistant appends
// to its answer.
package directive

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Directive is a generated query with an optional explanation.
type Directive struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation,omitempty"`
}

var (
	fence    = regexp.MustCompile("```json\\s*(\\{[\\s\\S]*?\\})\\s*```")
	anyFence = regexp.MustCompile("```json[\\s\\S]*?```")
)

type payload struct {
	Query       *string `json:"query"`
	SQL         *string `json:"sql"`
	Explanation string  `json:"explanation"`
}

// Extract returns the directive in the first ```json fenced block of text.
// It reports false when there is no block, the block is not valid JSON, or
// the block carries no query. The query is read from "query", falling back
// to "sql".
func Extract(text string) (Directive, bool) {
	m := fence.FindStringSubmatch(text)
	if m == nil {
		return Directive{}, false
	}
	var p payload
	if err := json.Unmarshal([]byte(m[1]), &p); err != nil {
		return Directive{}, false
	}
	q := ""
	switch {
	case p.Query != nil:
		q = *p.Query
	case p.SQL != nil:
		q = *p.SQL
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return Directive{}, false
	}
	return Directive{Query: q, Explanation: p.Explanation}, true
}

// StripFences removes every ```json fenced block from text.
func StripFences(text string) string {
	return strings.TrimSpace(anyFence.ReplaceAllString(text, ""))
}
