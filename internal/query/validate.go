// Package query guards and executes the read-only queries the assistant
// proposes.
package query

import (
	"regexp"
	"strings"
)

// ForbiddenKeywords may not appear as whole words anywhere in a query.
var ForbiddenKeywords = []string{"insert", "update", "delete", "drop", "alter", "create", "truncate", "grant", "revoke"}

var forbiddenRe = regexp.MustCompile(`(?i)\b(` + strings.Join(ForbiddenKeywords, "|") + `)\b`)

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`;\s*\S`), // stacked statements
	regexp.MustCompile(`(?i);\s*EXEC\s*\(?`),
	regexp.MustCompile(`(?i)\bUNION\s+SELECT\b`),
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`),
	regexp.MustCompile(`(?i)\bLOAD\s+DATA\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`),
	regexp.MustCompile(`(?i)\bATTACH\s+DATABASE\b`),
	regexp.MustCompile(`(?i)\bPRAGMA\b`),
	regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`),
	regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bPG_SLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bWAITFOR\s+DELAY\b`),
	regexp.MustCompile(`'.*--`),
	regexp.MustCompile(`;\s*--`),
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\band\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bor\s+'1'\s*=\s*'1'`),
	regexp.MustCompile(`(?i)\band\s+'1'\s*=\s*'1'`),
}

// ValidationError explains why a query was refused.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "query rejected: " + e.Reason }

// Validate accepts a single SELECT (or WITH ... SELECT) statement. One
// trailing semicolon is allowed.
func Validate(sql string) error {
	q := strings.TrimSpace(sql)
	if q == "" {
		return &ValidationError{Reason: "query cannot be empty"}
	}
	lower := strings.ToLower(q)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return &ValidationError{Reason: "only SELECT queries are allowed"}
	}
	if m := forbiddenRe.FindString(q); m != "" {
		return &ValidationError{Reason: "forbidden keyword: " + strings.ToUpper(m)}
	}
	body := strings.TrimSuffix(q, ";")
	for _, p := range dangerousPatterns {
		if p.MatchString(body) {
			return &ValidationError{Reason: "unsafe pattern detected: " + p.String()}
		}
	}
	return nil
}

// Normalize trims whitespace and a trailing semicolon.
func Normalize(sql string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
}
