package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Pair is one labelled value of a bar or pie series.
type Pair struct {
	Label string
	Value float64
}

// Rect is a target area in page units.
type Rect struct {
	X, Y, W, H float64
}

const (
	panelRadius = 6
	barTop      = 18
	barBottom   = 22
	barGap      = 8
	labelRunes  = 10
	chartFont   = 7

	// PieSegments is the number of triangles approximating each slice.
	PieSegments = 24
	legendRow   = 12

	// GridLines is the number of horizontal gridline intervals in a line chart.
	GridLines  = 4
	lineMargin = 10
	pointSize  = 2
)

// Bar draws a background panel and one bar per pair. The tallest bar fills
// the panel height minus the label margins. Negative values draw as empty bars.
func Bar(c Canvas, data []Pair, r Rect) {
	c.RoundedRect(r.X, r.Y, r.W, r.H, panelRadius, ColorPanel, ColorBorder)
	n := len(data)
	if n == 0 {
		return
	}
	maxV := 0.0
	for _, p := range data {
		maxV = math.Max(maxV, p.Value)
	}
	if maxV <= 0 {
		maxV = 1
	}
	plotH := r.H - barTop - barBottom
	barW := (r.W - barGap*float64(n+1)) / float64(n)
	if barW < 1 {
		barW = 1
	}
	valueStyle := TextStyle{Size: chartFont, Color: ColorText, Align: AlignCenter}
	labelStyle := TextStyle{Size: chartFont, Color: ColorMuted, Align: AlignCenter}
	for i, p := range data {
		h := math.Max(p.Value, 0) / maxV * plotH
		x := r.X + barGap + float64(i)*(barW+barGap)
		y := r.Y + barTop + plotH - h
		c.RoundedRect(x, y, barW, h, 2, SeriesColor(i), ColorNone)
		c.Text(x+barW/2, y-4, FormatValue(p.Value), valueStyle)
		c.Text(x+barW/2, r.Y+r.H-barBottom/2, Truncate(p.Label, labelRunes), labelStyle)
	}
}

// Slice is one computed pie slice. Angles are radians, Start measured
// clockwise on the page from 3 o'clock.
type Slice struct {
	Label   string
	Value   float64
	Percent float64
	Start   float64
	Sweep   float64
}

// PieSlices converts values into sweep angles starting at 12 o'clock and
// proceeding clockwise. Negative values count as zero. A zero total is
// replaced by 1 so every slice gets a zero sweep.
func PieSlices(data []Pair) []Slice {
	total := 0.0
	for _, p := range data {
		total += math.Max(p.Value, 0)
	}
	if total == 0 {
		total = 1
	}
	out := make([]Slice, 0, len(data))
	angle := -math.Pi / 2
	for _, p := range data {
		frac := math.Max(p.Value, 0) / total
		s := Slice{Label: p.Label, Value: p.Value, Percent: frac * 100, Start: angle, Sweep: frac * 2 * math.Pi}
		out = append(out, s)
		angle += s.Sweep
	}
	return out
}

// Pie draws each slice as a triangle fan around (cx, cy) and a legend below
// the pie. It returns the slices it drew.
func Pie(c Canvas, data []Pair, cx, cy, radius float64) []Slice {
	slices := PieSlices(data)
	for i, s := range slices {
		if s.Sweep <= 0 {
			continue
		}
		step := s.Sweep / PieSegments
		center := Point{cx, cy}
		for k := 0; k < PieSegments; k++ {
			a0 := s.Start + float64(k)*step
			a1 := a0 + step
			c.Triangle(center,
				Point{cx + radius*math.Cos(a0), cy + radius*math.Sin(a0)},
				Point{cx + radius*math.Cos(a1), cy + radius*math.Sin(a1)},
				SeriesColor(i))
		}
	}
	style := TextStyle{Size: chartFont + 1, Color: ColorText}
	y := cy + radius + legendRow + 4
	for i, s := range slices {
		c.Circle(cx-radius+3, y-3, 3, SeriesColor(i))
		c.Text(cx-radius+10, y, LegendLabel(s), style)
		y += legendRow
	}
	return slices
}

// PieHeight is the vertical space Pie uses below its top edge for n slices.
func PieHeight(radius float64, n int) float64 {
	return 2*radius + legendRow + 4 + float64(n)*legendRow
}

// LegendLabel formats a slice as "label (12.5%)".
func LegendLabel(s Slice) string {
	return fmt.Sprintf("%s (%.1f%%)", Truncate(s.Label, 24), s.Percent)
}

// Line draws gridlines, then the sequence scaled between its min and max,
// joined by segments with a dot on every point. Fewer than two values draw
// nothing. An all-equal sequence is drawn across the vertical center.
func Line(c Canvas, values []float64, r Rect) {
	if len(values) < 2 {
		return
	}
	plotW := r.W - 2*lineMargin
	plotH := r.H - 2*lineMargin
	for i := 0; i <= GridLines; i++ {
		y := r.Y + lineMargin + float64(i)*plotH/GridLines
		c.Line(r.X, y, r.X+r.W, y, 0.5, ColorGrid)
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	den := span
	if den == 0 {
		den = 1
	}
	pts := make([]Point, len(values))
	for i, v := range values {
		x := r.X + lineMargin + float64(i)*plotW/float64(len(values)-1)
		y := r.Y + r.H/2
		if span != 0 {
			y = r.Y + lineMargin + plotH - (v-lo)/den*plotH
		}
		pts[i] = Point{x, y}
	}
	for i := 1; i < len(pts); i++ {
		c.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y, 1.5, ColorAccent)
	}
	for _, p := range pts {
		c.Circle(p.X, p.Y, pointSize, ColorAccent)
	}
}

// Truncate shortens s to at most n runes, marking the cut with "..".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}

// FormatValue renders a chart value compactly (1.5k, 2.3M).
func FormatValue(v float64) string {
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return trimZeros(v/1e9, 1) + "B"
	case a >= 1e6:
		return trimZeros(v/1e6, 1) + "M"
	case a >= 1e4:
		return trimZeros(v/1e3, 1) + "k"
	default:
		return trimZeros(v, 2)
	}
}

func trimZeros(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

