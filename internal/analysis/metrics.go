package analysis

import (
	"fmt"
	"strings"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// Metric is one headline number shown above the data.
type Metric struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
}

// Metrics returns the four dashboard cards: total records, active count,
// column count and the sum of the first numeric column.
func Metrics(d *dataset.Dataset) []Metric {
	if d.IsEmpty() {
		return []Metric{
			{Title: "Total Records", Value: "-"},
			{Title: "Active Count", Value: "-"},
			{Title: "Columns", Value: "-"},
			{Title: "Sum", Value: "-"},
		}
	}
	total := d.Len()
	cols := d.Columns()
	out := []Metric{{Title: "Total Records", Value: formatInt(total)}}

	active := Metric{Title: "Active Count", Value: "-"}
	for _, c := range cols {
		if !strings.Contains(strings.ToLower(c), "status") {
			continue
		}
		cells, _ := d.Column(c)
		n := 0
		for _, cell := range cells {
			if strings.EqualFold(cell.String(), "active") {
				n++
			}
		}
		active.Value = formatInt(n)
		active.Change = fmt.Sprintf("%.0f%%", float64(n)*100/float64(total))
		break
	}
	out = append(out, active, Metric{Title: "Columns", Value: fmt.Sprintf("%d", len(cols))})

	// first column whose first row is numeric
	sum := Metric{Title: "Sum", Value: "-"}
	first := d.Rows()[0]
	for i, c := range cols {
		if _, ok := first.At(i).Float(); !ok {
			continue
		}
		cells, _ := d.Column(c)
		var t float64
		for _, v := range NumericValues(cells) {
			t += v
		}
		sum = Metric{Title: "Total " + c, Value: formatNum(t)}
		break
	}
	return append(out, sum)
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatInt(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
