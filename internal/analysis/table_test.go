package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

func TestSummarizeEndToEnd(t *testing.T) {
	s := Summarize(dataset.Parse("a,b\n1,x\n2,y\n3,x"))
	if s.Rows != 3 || !reflect.DeepEqual(s.Columns, []string{"a", "b"}) {
		t.Fatalf("shape: rows=%d cols=%v", s.Rows, s.Columns)
	}
	a, ok := s.NumericColumn("a")
	if !ok {
		t.Fatalf("a should be numeric")
	}
	if a.Min != 1 || a.Max != 3 || a.Mean != 2 || a.Sum != 6 || a.Count != 3 {
		t.Fatalf("a stats: %+v", a)
	}
	if _, ok := s.CategoricalColumn("a"); ok {
		t.Fatalf("a should not be categorical")
	}
	b, ok := s.CategoricalColumn("b")
	if !ok {
		t.Fatalf("b should be categorical")
	}
	want := []CategoryCount{{"x", 2}, {"y", 1}}
	if !reflect.DeepEqual(b.Top, want) {
		t.Fatalf("b top: %+v", b.Top)
	}
	if _, ok := s.NumericColumn("b"); ok {
		t.Fatalf("b should not be numeric")
	}
}

func TestMixedColumnInBothClassifications(t *testing.T) {
	s := Summarize(dataset.Parse("v\n10\nn/a\n20"))
	n, ok := s.NumericColumn("v")
	if !ok || n.Count != 2 || n.Mean != 15 {
		t.Fatalf("numeric part: %+v", n)
	}
	c, ok := s.CategoricalColumn("v")
	if !ok || len(c.Top) != 3 {
		t.Fatalf("categorical part: %+v", c)
	}
}

func TestMissingValuesAreCategorical(t *testing.T) {
	s := Summarize(dataset.Parse("a,b\n1,\n2,\n"))
	b, ok := s.CategoricalColumn("b")
	if !ok || !reflect.DeepEqual(b.Top, []CategoryCount{{UnknownValue, 2}}) {
		t.Fatalf("all-missing column: %+v ok=%v", b, ok)
	}
	if _, ok := s.CategoricalColumn("a"); ok {
		t.Fatalf("a has no string values")
	}

	s = Summarize(dataset.Parse("a,b\n1,x\n,y\n3,z"))
	if _, ok := s.NumericColumn("a"); !ok {
		t.Fatalf("a should be numeric")
	}
	a, ok := s.CategoricalColumn("a")
	if !ok {
		t.Fatalf("a has a missing value and should also be categorical")
	}
	found := false
	for _, c := range a.Top {
		if c.Value == UnknownValue && c.Count == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing value not counted as %s: %+v", UnknownValue, a.Top)
	}
}

func TestAllTextColumnOmittedFromNumeric(t *testing.T) {
	s := Summarize(dataset.Parse("name\nann\nbob"))
	if len(s.Numeric) != 0 {
		t.Fatalf("no numeric summaries expected, got %+v", s.Numeric)
	}
}

func TestHistogramCountsAndMaxInclusion(t *testing.T) {
	cases := [][]float64{
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		{0.1, 0.2, 0.3},
		{-5, 5},
		{7},
		{3, 3, 3},
		{0, 0.3, 0.6, 0.9, 1.2, 1.5},
	}
	for _, vals := range cases {
		h := Histogram(vals)
		if len(h) != HistogramBuckets {
			t.Fatalf("%v: %d buckets", vals, len(h))
		}
		total := 0
		for _, b := range h {
			total += b.Count
		}
		if total != len(vals) {
			t.Fatalf("%v: counts sum %d want %d", vals, total, len(vals))
		}
		maxV := vals[0]
		for _, v := range vals {
			maxV = math.Max(maxV, v)
		}
		minV := vals[0]
		for _, v := range vals {
			minV = math.Min(minV, v)
		}
		if maxV > minV && h[HistogramBuckets-1].Count == 0 {
			t.Fatalf("%v: last bucket must hold the max", vals)
		}
	}
}

func TestHistogramDegenerateWidth(t *testing.T) {
	h := Histogram([]float64{4, 4})
	if h[0].Count != 2 || h[0].Low != 4 || h[0].High != 5 {
		t.Fatalf("degenerate bucket: %+v", h[0])
	}
	if h[4].Low != 8 || h[4].High != 9 {
		t.Fatalf("width 1 expected, got %+v", h[4])
	}
}

func TestTopCategoriesTiesAndUnknown(t *testing.T) {
	cells := []dataset.Cell{
		dataset.Text("b"), dataset.Text(""), dataset.Text("a"), dataset.Text("c"),
		dataset.Text("a"), dataset.Text("b"), dataset.Text("d"), dataset.Text("e"), dataset.Text("f"),
	}
	top, unique := TopCategories(cells, TopN)
	want := []CategoryCount{{"b", 2}, {"a", 2}, {UnknownValue, 1}, {"c", 1}, {"d", 1}}
	if !reflect.DeepEqual(top, want) {
		t.Fatalf("top: %+v", top)
	}
	if unique != 7 {
		t.Fatalf("unique: %d", unique)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(dataset.Parse("only header"))
	if s.Rows != 0 || len(s.Numeric) != 0 || len(s.Categorical) != 0 {
		t.Fatalf("empty summary: %+v", s)
	}
}

func TestMarkdown(t *testing.T) {
	d := dataset.Parse("id,status,amount\n1,active,10\n2,inactive,20\n3,active,30")
	d.Name = "sales.csv"
	md := Summarize(d).Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "File: sales.csv", "Rows: 3", "- amount: numeric (n=3) min 10, max 30, mean 20, sum 60", "active(2)", "[HISTOGRAMS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMetrics(t *testing.T) {
	d := dataset.Parse("id,name,status,amount\n1,A,active,1500\n2,B,Active,2300.5\n3,C,inactive,890.25\n4,D,pending,1000")
	m := Metrics(d)
	if len(m) != 4 {
		t.Fatalf("metrics: %+v", m)
	}
	if m[0].Value != "4" || m[1].Value != "2" || m[1].Change != "50%" || m[2].Value != "4" {
		t.Fatalf("metrics: %+v", m)
	}
	if m[3].Title != "Total id" || m[3].Value != "10" {
		t.Fatalf("sum metric: %+v", m[3])
	}
	if Metrics(dataset.Empty())[0].Value != "-" {
		t.Fatalf("empty metrics should be placeholders")
	}
}

func TestDataContext(t *testing.T) {
	d := dataset.Parse("a,b\n1,x\n2,y\n3,x")
	ctx, err := DataContext(d, Summarize(d))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"- Total Rows: 3", "- Columns: a, b", `"avg": "2.00"`, `"b": "y"`} {
		if !strings.Contains(ctx, want) {
			t.Fatalf("context missing %q:\n%s", want, ctx)
		}
	}
	if got, _ := DataContext(dataset.Empty(), Summarize(dataset.Empty())); got != "" {
		t.Fatalf("empty dataset should give empty context")
	}
}
