// Package render draws bar, pie and line charts onto an abstract page canvas.
//
// Coordinates are page units with the origin at the top-left corner and y
// growing downward. Charts only issue primitives; a Canvas decides what they
// become (recorded ops, PDF paths, raster pixels).
package render

import "github.com/wcharczuk/go-chart/v2/drawing"

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// TextStyle describes one text run.
type TextStyle struct {
	Size  float64
	Color drawing.Color
	Bold  bool
	Align Align
}

// Canvas is the set of primitives charts and reports draw with.
type Canvas interface {
	// RoundedRect draws a rectangle with corner radius r. A zero-alpha fill
	// or stroke color skips that part.
	RoundedRect(x, y, w, h, r float64, fill, stroke drawing.Color)
	Triangle(a, b, c Point, fill drawing.Color)
	Circle(cx, cy, r float64, fill drawing.Color)
	Line(x1, y1, x2, y2, width float64, color drawing.Color)
	Text(x, y float64, s string, st TextStyle)
}

// Point is a page coordinate.
type Point struct{ X, Y float64 }

// OpKind identifies a recorded primitive.
type OpKind string

const (
	OpRect     OpKind = "rect"
	OpTriangle OpKind = "triangle"
	OpCircle   OpKind = "circle"
	OpLine     OpKind = "line"
	OpText     OpKind = "text"
)

// Op is one recorded draw call. Fields not used by Kind are zero.
type Op struct {
	Kind   OpKind
	Points []Point // triangle corners, line endpoints
	X, Y   float64
	W, H   float64
	R      float64
	Width  float64
	Fill   drawing.Color
	Stroke drawing.Color
	Text   string
	Style  TextStyle
}

// Recorder is a Canvas that keeps every call as an Op, in order.
type Recorder struct {
	Ops []Op
}

func (r *Recorder) RoundedRect(x, y, w, h, radius float64, fill, stroke drawing.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpRect, X: x, Y: y, W: w, H: h, R: radius, Fill: fill, Stroke: stroke})
}

func (r *Recorder) Triangle(a, b, c Point, fill drawing.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpTriangle, Points: []Point{a, b, c}, Fill: fill})
}

func (r *Recorder) Circle(cx, cy, radius float64, fill drawing.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpCircle, X: cx, Y: cy, R: radius, Fill: fill})
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, color drawing.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, Points: []Point{{x1, y1}, {x2, y2}}, Width: width, Stroke: color})
}

func (r *Recorder) Text(x, y float64, s string, st TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, X: x, Y: y, Text: s, Style: st})
}

// Replay issues every op onto c in recorded order.
func Replay(ops []Op, c Canvas) {
	for _, op := range ops {
		switch op.Kind {
		case OpRect:
			c.RoundedRect(op.X, op.Y, op.W, op.H, op.R, op.Fill, op.Stroke)
		case OpTriangle:
			c.Triangle(op.Points[0], op.Points[1], op.Points[2], op.Fill)
		case OpCircle:
			c.Circle(op.X, op.Y, op.R, op.Fill)
		case OpLine:
			c.Line(op.Points[0].X, op.Points[0].Y, op.Points[1].X, op.Points[1].Y, op.Width, op.Stroke)
		case OpText:
			c.Text(op.X, op.Y, op.Text, op.Style)
		}
	}
}
