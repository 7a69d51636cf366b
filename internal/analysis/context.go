package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/worktracker75-ui/datanav/internal/dataset"
)

// SampleRows is how many leading rows the assistant sees verbatim.
const SampleRows = 10

type columnStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg string  `json:"avg"`
	Sum float64 `json:"sum"`
}

// DataContext renders the uploaded data as a prompt block: row count,
// columns, the first rows and per-column numeric statistics. It returns ""
// for an empty dataset.
func DataContext(d *dataset.Dataset, s *Summary) (string, error) {
	if d.IsEmpty() {
		return "", nil
	}
	sample, err := json.MarshalIndent(d.Head(SampleRows).Rows(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sample rows: %w", err)
	}
	stats := make(map[string]columnStats, len(s.Numeric))
	for _, n := range s.Numeric {
		stats[n.Name] = columnStats{Min: n.Min, Max: n.Max, Avg: fmt.Sprintf("%.2f", n.Mean), Sum: n.Sum}
	}
	statsJSON, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode column stats: %w", err)
	}

	var b strings.Builder
	b.WriteString("UPLOADED CSV DATA:\n")
	b.WriteString(fmt.Sprintf("- Total Rows: %d\n", d.Len()))
	b.WriteString(fmt.Sprintf("- Columns: %s\n", strings.Join(d.Columns(), ", ")))
	b.WriteString(fmt.Sprintf("- Sample Data (first %d rows): %s\n", SampleRows, sample))
	b.WriteString(fmt.Sprintf("- Numeric Column Statistics: %s\n", statsJSON))
	b.WriteString("- Full Data Available for Analysis: Yes\n\n")
	b.WriteString("You have access to this CSV data. Answer questions about it directly.\n")
	b.WriteString("When creating reports, use this data to provide insights, trends, and visualizations.\n")
	return b.String(), nil
}
