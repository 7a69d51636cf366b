package report

import (
	"fmt"
	"time"

	"github.com/worktracker75-ui/datanav/internal/analysis"
	"github.com/worktracker75-ui/datanav/internal/dataset"
	"github.com/worktracker75-ui/datanav/internal/directive"
	"github.com/worktracker75-ui/datanav/internal/render"
)

const (
	metricCardHeight = 52.0
	chartHeight      = 170.0
	pieRadius        = 60.0
	// LinePoints caps the number of values drawn in the trend chart.
	LinePoints = 60
)

// Input is everything a report is built from.
type Input struct {
	Title     string
	Dataset   *dataset.Dataset
	Summary   *analysis.Summary
	Narrative string
	Generated time.Time
}

// Build lays out the report on layout l and returns the stamped pages.
func Build(in Input, l Layout) []Page {
	c, cur := NewCompositor(l)
	title := in.Title
	if title == "" {
		title = "Data Analysis Report"
	}
	d := in.Dataset
	if d == nil {
		d = dataset.Empty()
	}
	s := in.Summary
	if s == nil {
		s = analysis.Summarize(d)
	}
	sub := fmt.Sprintf("Generated %s · %d rows · %d columns", in.Generated.Format("2006-01-02 15:04"), s.Rows, len(s.Columns))
	if d.Name != "" {
		sub = d.Name + " · " + sub
	}
	cur = c.Title(cur, title, sub)

	cur = c.Heading(cur, "Key Metrics")
	cur = c.Block(cur, metricCardHeight, func(cv render.Canvas, r render.Rect) {
		drawMetrics(cv, analysis.Metrics(d), r)
	})

	if len(s.Numeric) > 0 {
		cur = c.Heading(cur, "Data Overview")
		for _, n := range s.Numeric {
			cur = c.Paragraph(cur, fmt.Sprintf("• %s: min %s, max %s, mean %s, sum %s (n=%d)",
				n.Name, render.FormatValue(n.Min), render.FormatValue(n.Max), render.FormatValue(n.Mean), render.FormatValue(n.Sum), n.Count))
		}
	}

	cur = charts(c, cur, d, s)

	if text := directive.StripFences(in.Narrative); text != "" {
		cur = c.Space(cur, blockGap)
		cur = c.Narrative(cur, text)
	}
	return c.Finish(cur)
}

func charts(c *Compositor, cur PageCursor, d *dataset.Dataset, s *analysis.Summary) PageCursor {
	if len(s.Numeric) > 0 {
		n := s.Numeric[0]
		cur = c.Heading(cur, "Visualization")
		cur = c.Paragraph(cur, "Distribution of "+n.Name)
		pairs := make([]render.Pair, len(n.Histogram))
		for i, b := range n.Histogram {
			pairs[i] = render.Pair{Label: b.Label, Value: float64(b.Count)}
		}
		cur = c.Block(cur, chartHeight, func(cv render.Canvas, r render.Rect) {
			render.Bar(cv, pairs, r)
		})
	}
	if cat, ok := pieColumn(s); ok {
		pairs := make([]render.Pair, len(cat.Top))
		for i, t := range cat.Top {
			pairs[i] = render.Pair{Label: t.Value, Value: float64(t.Count)}
		}
		cur = c.Paragraph(cur, "Top values of "+cat.Name)
		cur = c.Block(cur, render.PieHeight(pieRadius, len(pairs)), func(cv render.Canvas, r render.Rect) {
			render.Pie(cv, pairs, r.X+pieRadius+10, r.Y+pieRadius, pieRadius)
		})
	}
	if len(s.Numeric) > 0 {
		n := s.Numeric[0]
		col, _ := d.Column(n.Name)
		values := analysis.NumericValues(col)
		if len(values) > LinePoints {
			values = values[:LinePoints]
		}
		if len(values) >= 2 {
			cur = c.Paragraph(cur, "Trend of "+n.Name)
			cur = c.Block(cur, chartHeight*0.8, func(cv render.Canvas, r render.Rect) {
				render.Line(cv, values, r)
			})
		}
	}
	return cur
}

// pieColumn prefers a purely categorical column over a numeric one that
// only has gaps or stray text.
func pieColumn(s *analysis.Summary) (analysis.CategoricalSummary, bool) {
	for _, c := range s.Categorical {
		if _, numeric := s.NumericColumn(c.Name); !numeric {
			return c, true
		}
	}
	if len(s.Categorical) > 0 {
		return s.Categorical[0], true
	}
	return analysis.CategoricalSummary{}, false
}

func drawMetrics(cv render.Canvas, metrics []analysis.Metric, r render.Rect) {
	if len(metrics) == 0 {
		return
	}
	const gap = 8.0
	w := (r.W - gap*float64(len(metrics)-1)) / float64(len(metrics))
	for i, m := range metrics {
		x := r.X + float64(i)*(w+gap)
		cv.RoundedRect(x, r.Y, w, r.H, 6, render.ColorPanel, render.ColorBorder)
		cv.Text(x+8, r.Y+14, render.Truncate(m.Title, 22), render.TextStyle{Size: 7, Color: render.ColorMuted})
		cv.Text(x+8, r.Y+34, m.Value, render.TextStyle{Size: 14, Color: render.ColorText, Bold: true})
		if m.Change != "" {
			cv.Text(x+w-8-TextWidth(m.Change, 7), r.Y+34, m.Change, render.TextStyle{Size: 7, Color: render.SeriesColor(2)})
		}
	}
}
