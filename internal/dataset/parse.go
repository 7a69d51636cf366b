package dataset

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Parse turns comma-separated text into a Dataset. The first line is the
// header. Quoted fields are not supported: every '"' is stripped and a comma
// inside quotes still splits the field. Input without a data row yields an
// empty dataset.
func Parse(text string) *Dataset {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return Empty()
	}
	header := splitFields(lines[0])
	cells := make([][]Cell, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitFields(line)
		row := make([]Cell, len(header))
		for i := range header {
			if i < len(values) {
				row[i] = ParseCell(values[i])
			} else {
				row[i] = Text("")
			}
		}
		cells = append(cells, row)
	}
	return New(header, cells)
}

// ParseReader reads r fully and parses it with Parse.
func ParseReader(r io.Reader) (*Dataset, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return Parse(string(b)), nil
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = clean(p)
	}
	return parts
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// ParseCell stores a number when the whole trimmed value parses as one and a
// string otherwise.
func ParseCell(raw string) Cell {
	v := clean(raw)
	if f, ok := parseNumber(v); ok {
		return Number(f)
	}
	return Text(v)
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	// hex floats and NaN/Inf spellings stay text
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
