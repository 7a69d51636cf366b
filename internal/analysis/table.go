package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

const (
	// HistogramBuckets is the fixed number of buckets per numeric column.
	HistogramBuckets = 5
	// TopN bounds the categorical frequency table.
	TopN = 5
	// UnknownValue replaces missing values in frequency tables.
	UnknownValue = "Unknown"
)

// Summary holds column-wise aggregates of one dataset. A column may appear in
// both Numeric and Categorical.
type Summary struct {
	Name        string               `json:"name,omitempty"`
	Rows        int                  `json:"rows"`
	Columns     []string             `json:"columns"`
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// NumericSummary aggregates the numeric cells of one column.
type NumericSummary struct {
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Mean      float64  `json:"mean"`
	Sum       float64  `json:"sum"`
	Histogram []Bucket `json:"histogram"`
}

// Bucket is one fixed-width histogram interval.
type Bucket struct {
	Label string  `json:"label"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// CategoricalSummary is the top-N frequency table of one column.
type CategoricalSummary struct {
	Name   string          `json:"name"`
	Top    []CategoryCount `json:"top"`
	Unique int             `json:"unique"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize computes aggregates for every column of d. It is a pure
// function of d.
func Summarize(d *dataset.Dataset) *Summary {
	s := &Summary{Name: d.Name, Rows: d.Len(), Columns: d.Columns()}
	for _, col := range s.Columns {
		cells, _ := d.Column(col)
		if ns, ok := summarizeNumeric(col, cells); ok {
			s.Numeric = append(s.Numeric, ns)
		}
		if hasText(cells) {
			top, unique := TopCategories(cells, TopN)
			s.Categorical = append(s.Categorical, CategoricalSummary{Name: col, Top: top, Unique: unique})
		}
	}
	return s
}

// NumericColumn returns the numeric summary for name.
func (s *Summary) NumericColumn(name string) (NumericSummary, bool) {
	for _, n := range s.Numeric {
		if n.Name == name {
			return n, true
		}
	}
	return NumericSummary{}, false
}

// CategoricalColumn returns the categorical summary for name.
func (s *Summary) CategoricalColumn(name string) (CategoricalSummary, bool) {
	for _, c := range s.Categorical {
		if c.Name == name {
			return c, true
		}
	}
	return CategoricalSummary{}, false
}

// NumericValues returns the numeric cells of a column, skipping text.
func NumericValues(cells []dataset.Cell) []float64 {
	var out []float64
	for _, c := range cells {
		if f, ok := c.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func summarizeNumeric(name string, cells []dataset.Cell) (NumericSummary, bool) {
	vals := NumericValues(cells)
	if len(vals) == 0 {
		return NumericSummary{}, false
	}
	ns := NumericSummary{Name: name, Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range vals {
		ns.Sum += v
		if v < ns.Min {
			ns.Min = v
		}
		if v > ns.Max {
			ns.Max = v
		}
	}
	ns.Mean = ns.Sum / float64(ns.Count)
	ns.Histogram = histogram(vals, ns.Min, ns.Max)
	return ns, true
}

// Histogram splits values into five fixed-width buckets over [min,max]. The
// last bucket includes max. A single-value column uses width 1.
func Histogram(values []float64) []Bucket {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return histogram(values, lo, hi)
}

func histogram(values []float64, lo, hi float64) []Bucket {
	width := (hi - lo) / HistogramBuckets
	if hi == lo {
		width = 1
	}
	buckets := make([]Bucket, HistogramBuckets)
	for i := range buckets {
		b := &buckets[i]
		b.Low = lo + float64(i)*width
		b.High = lo + float64(i+1)*width
		if i == HistogramBuckets-1 && hi > lo {
			b.High = hi
		}
		b.Label = fmt.Sprintf("%s-%s", formatNum(b.Low), formatNum(b.High))
	}
	for _, v := range values {
		i := int((v - lo) / width)
		if i >= HistogramBuckets {
			i = HistogramBuckets - 1
		}
		if i < 0 {
			i = 0
		}
		buckets[i].Count++
	}
	return buckets
}

// TopCategories counts the string form of every cell, with missing values
// counted as Unknown, and returns the n most frequent values. Ties keep
// first-seen order. The second result is the number of distinct values.
func TopCategories(cells []dataset.Cell, n int) ([]CategoryCount, int) {
	counts := map[string]int{}
	var order []string
	for _, c := range cells {
		key := c.String()
		if c.IsEmpty() {
			key = UnknownValue
		}
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	tops := make([]CategoryCount, len(order))
	for i, k := range order {
		tops[i] = CategoryCount{Value: k, Count: counts[k]}
	}
	sort.SliceStable(tops, func(i, j int) bool { return tops[i].Count > tops[j].Count })
	if n > 0 && len(tops) > n {
		tops = tops[:n]
	}
	return tops, len(order)
}

// hasText reports whether any cell holds a string. Absent values are empty
// strings and count too; they are tallied as UnknownValue.
func hasText(cells []dataset.Cell) bool {
	for _, c := range cells {
		if c.Kind() == dataset.KindText {
			return true
		}
	}
	return false
}

func formatNum(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.4g", f)
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", s.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(s.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, col := range s.Columns {
		n, isNum := s.NumericColumn(col)
		c, isCat := s.CategoricalColumn(col)
		kind := "unknown"
		switch {
		case isNum && isCat:
			kind = "mixed"
		case isNum:
			kind = "numeric"
		case isCat:
			kind = "categorical"
		}
		b.WriteString(fmt.Sprintf("- %s: %s", safeName(col), kind))
		if isNum {
			b.WriteString(fmt.Sprintf(" (n=%d) min %.4g, max %.4g, mean %.4g, sum %.4g", n.Count, n.Min, n.Max, n.Mean, n.Sum))
		}
		if isCat && len(c.Top) > 0 {
			b.WriteString("; top: ")
			for i, kv := range c.Top {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.Top) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		}
		b.WriteString("\n")
	}
	if len(s.Numeric) > 0 {
		b.WriteString("\n[HISTOGRAMS]\n")
		for _, n := range s.Numeric {
			b.WriteString(fmt.Sprintf("- %s:", safeName(n.Name)))
			for _, bk := range n.Histogram {
				b.WriteString(fmt.Sprintf(" [%s]=%d", bk.Label, bk.Count))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
