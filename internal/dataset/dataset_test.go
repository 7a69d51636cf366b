package dataset

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestParseEndToEnd(t *testing.T) {
	d := Parse("a,b\n1,x\n2,y\n3,x")
	if got := d.Columns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("columns: %v", got)
	}
	if d.Len() != 3 {
		t.Fatalf("rows: got %d want 3", d.Len())
	}
	c, ok := d.Rows()[1].Get("a")
	if !ok {
		t.Fatalf("missing column a")
	}
	if f, ok := c.Float(); !ok || f != 2 {
		t.Fatalf("a[1]: %+v", c)
	}
	c, _ = d.Rows()[2].Get("b")
	if s, ok := c.Str(); !ok || s != "x" {
		t.Fatalf("b[2]: %+v", c)
	}
}

func TestParseRowCountMatchesLines(t *testing.T) {
	inputs := []string{
		"h\n1",
		"id,name,amount\n1,John,1500.00\n2,Jane,2300.50\n3,Bob,890.25",
		"a,b,c\n,,\nx,,3\n4,5,6\n7,8,9",
	}
	for _, in := range inputs {
		d := Parse(in)
		lines := strings.Count(in, "\n") + 1
		if d.Len() != lines-1 {
			t.Fatalf("%q: rows %d, want %d", in, d.Len(), lines-1)
		}
		header := d.Columns()
		for i, r := range d.Rows() {
			if !reflect.DeepEqual(r.Columns(), header) {
				t.Fatalf("%q: row %d keys %v, want %v", in, i, r.Columns(), header)
			}
		}
	}
}

func TestParseCellTyping(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		num  float64
		text string
	}{
		{"3.14", KindNumber, 3.14, ""},
		{"  42 ", KindNumber, 42, ""},
		{`"7"`, KindNumber, 7, ""},
		{"-1e3", KindNumber, -1000, ""},
		{"12abc", KindText, 0, "12abc"},
		{"", KindText, 0, ""},
		{"NaN", KindText, 0, "NaN"},
		{"Inf", KindText, 0, "Inf"},
		{"0x10", KindText, 0, "0x10"},
		{`"hello"`, KindText, 0, "hello"},
	}
	for _, tc := range cases {
		c := ParseCell(tc.in)
		if c.Kind() != tc.kind {
			t.Fatalf("%q: kind %v want %v", tc.in, c.Kind(), tc.kind)
		}
		if tc.kind == KindNumber {
			if f, _ := c.Float(); f != tc.num {
				t.Fatalf("%q: got %v want %v", tc.in, f, tc.num)
			}
		} else if s, _ := c.Str(); s != tc.text {
			t.Fatalf("%q: got %q want %q", tc.in, s, tc.text)
		}
	}
}

func TestParseMalformedInputYieldsEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "a,b,c", "a,b\n"} {
		d := Parse(in)
		if !d.IsEmpty() {
			t.Fatalf("%q: expected empty dataset, got %d rows", in, d.Len())
		}
	}
}

func TestParseShortRowsPadded(t *testing.T) {
	d := Parse("a,b,c\n1\n2,3,4,5")
	r := d.Rows()[0]
	for _, col := range []string{"b", "c"} {
		c, ok := r.Get(col)
		if !ok || !c.IsEmpty() {
			t.Fatalf("%s: expected empty text cell, got %+v", col, c)
		}
	}
	if d.Rows()[1].Len() != 3 {
		t.Fatalf("extra cells must be dropped, got %d", d.Rows()[1].Len())
	}
}

func TestParseQuotesAndCRLF(t *testing.T) {
	d := Parse("\"name\",\"score\"\r\n\"Ann\",\"9.5\"\r\n")
	if got := d.Columns(); !reflect.DeepEqual(got, []string{"name", "score"}) {
		t.Fatalf("columns: %v", got)
	}
	c, _ := d.Rows()[0].Get("score")
	if f, ok := c.Float(); !ok || f != 9.5 {
		t.Fatalf("score: %+v", c)
	}
}

func TestQuotedCommaStillSplits(t *testing.T) {
	d := Parse("a,b\n\"x,y\",z")
	c, _ := d.Rows()[0].Get("a")
	if s, _ := c.Str(); s != "x" {
		t.Fatalf("quoted commas are not escapes, got %q", s)
	}
}

func TestDuplicateAndBlankHeaders(t *testing.T) {
	d := Parse("id,,id\n1,2,3")
	want := []string{"id", "Column_2", "id_2"}
	if got := d.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns: %v want %v", got, want)
	}
}

func TestRowJSONKeepsHeaderOrder(t *testing.T) {
	d := Parse("z,a\n1,x")
	b, err := json.Marshal(d.Rows()[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"z":1,"a":"x"}` {
		t.Fatalf("json: %s", b)
	}
}

func TestSort(t *testing.T) {
	d := Parse("n,s\n3,b\n,A\n1,c\n2,")
	asc := d.Sort("n", true)
	var got []string
	for _, r := range asc.Rows() {
		c, _ := r.Get("n")
		got = append(got, c.String())
	}
	if !reflect.DeepEqual(got, []string{"1", "2", "3", ""}) {
		t.Fatalf("asc: %v", got)
	}
	desc := d.Sort("s", false)
	got = got[:0]
	for _, r := range desc.Rows() {
		c, _ := r.Get("s")
		got = append(got, c.String())
	}
	if !reflect.DeepEqual(got, []string{"c", "b", "A", ""}) {
		t.Fatalf("desc: %v", got)
	}
	first, _ := d.Rows()[0].Get("n")
	if first.String() != "3" {
		t.Fatalf("Sort mutated input")
	}
}

func TestWriteCSV(t *testing.T) {
	d := New([]string{"name", "amount"}, [][]Cell{
		{Text("Doe, John"), Number(1500)},
		{Text(""), Number(2.5)},
	})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, d); err != nil {
		t.Fatal(err)
	}
	want := "name,amount\n\"Doe, John\",1500\n,2.5\n"
	if buf.String() != want {
		t.Fatalf("csv:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	d := Parse("city,pop\nOslo,700000\nBergen,285000")
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, d); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := FromXLSX(bytes.NewReader(buf.Bytes()), "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.Len() != 2 || !reflect.DeepEqual(back.Columns(), d.Columns()) {
		t.Fatalf("round trip: %v rows=%d", back.Columns(), back.Len())
	}
	c, _ := back.Rows()[1].Get("pop")
	if f, ok := c.Float(); !ok || f != 285000 {
		t.Fatalf("pop: %+v", c)
	}
	if _, err := FromXLSX(bytes.NewReader(buf.Bytes()), "Nope"); err == nil {
		t.Fatalf("expected missing sheet error")
	}
}
