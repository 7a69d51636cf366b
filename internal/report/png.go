package report

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/worktracker75-ui/datanav/internal/render"
)

// rasterDPI makes one font point one pixel.
const rasterDPI = 72

// rasterCanvas draws render primitives through an anti-aliased go-chart
// graphic context, one pixel per point. Text uses the chart's default
// truetype face; without it the fixed 7x13 face is used.
type rasterCanvas struct {
	img  *image.RGBA
	gc   *drawing.RasterGraphicContext
	face *truetype.Font
	err  error
}

func newRasterCanvas(img *image.RGBA) (*rasterCanvas, error) {
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, err
	}
	gc.SetDPI(rasterDPI)
	r := &rasterCanvas{img: img, gc: gc}
	if f, err := chart.GetDefaultFont(); err == nil {
		r.face = f
	}
	return r, nil
}

func (r *rasterCanvas) paint(fill, stroke drawing.Color) {
	switch {
	case fill.A > 0 && stroke.A > 0:
		r.gc.SetFillColor(fill)
		r.gc.SetStrokeColor(stroke)
		r.gc.FillStroke()
	case fill.A > 0:
		r.gc.SetFillColor(fill)
		r.gc.Fill()
	case stroke.A > 0:
		r.gc.SetStrokeColor(stroke)
		r.gc.Stroke()
	}
}

func (r *rasterCanvas) RoundedRect(x, y, w, h, radius float64, fill, stroke drawing.Color) {
	if w <= 0 || h <= 0 || (fill.A == 0 && stroke.A == 0) {
		return
	}
	radius = math.Max(0, math.Min(radius, math.Min(w, h)/2))
	gc := r.gc
	gc.BeginPath()
	gc.MoveTo(x+radius, y)
	gc.LineTo(x+w-radius, y)
	gc.QuadCurveTo(x+w, y, x+w, y+radius)
	gc.LineTo(x+w, y+h-radius)
	gc.QuadCurveTo(x+w, y+h, x+w-radius, y+h)
	gc.LineTo(x+radius, y+h)
	gc.QuadCurveTo(x, y+h, x, y+h-radius)
	gc.LineTo(x, y+radius)
	gc.QuadCurveTo(x, y, x+radius, y)
	gc.Close()
	gc.SetLineWidth(1)
	r.paint(fill, stroke)
}

func (r *rasterCanvas) Triangle(a, b, c render.Point, fill drawing.Color) {
	gc := r.gc
	gc.BeginPath()
	gc.MoveTo(a.X, a.Y)
	gc.LineTo(b.X, b.Y)
	gc.LineTo(c.X, c.Y)
	gc.Close()
	// stroke in the fill color to close the seams between fan segments
	gc.SetLineWidth(0.5)
	r.paint(fill, fill)
}

func (r *rasterCanvas) Circle(cx, cy, radius float64, fill drawing.Color) {
	if radius <= 0 {
		return
	}
	gc := r.gc
	gc.BeginPath()
	gc.MoveTo(cx+radius, cy)
	gc.ArcTo(cx, cy, radius, radius, 0, 2*math.Pi)
	gc.Close()
	r.paint(fill, drawing.ColorTransparent)
}

func (r *rasterCanvas) Line(x1, y1, x2, y2, width float64, c drawing.Color) {
	gc := r.gc
	gc.BeginPath()
	gc.MoveTo(x1, y1)
	gc.LineTo(x2, y2)
	gc.SetLineWidth(math.Max(width, 0.5))
	r.paint(drawing.ColorTransparent, c)
}

func (r *rasterCanvas) Text(x, y float64, s string, st render.TextStyle) {
	if s == "" {
		return
	}
	if r.face == nil {
		r.fixedText(x, y, s, st)
		return
	}
	gc := r.gc
	gc.SetFont(r.face)
	gc.SetFontSize(st.Size)
	gc.SetFillColor(st.Color)
	if st.Align == render.AlignCenter {
		left, _, right, _, err := gc.GetStringBounds(s)
		if err != nil {
			r.fail(err)
			return
		}
		x -= (right - left) / 2
	}
	if _, err := gc.FillStringAt(s, x, y); err != nil {
		r.fail(err)
	}
}

func (r *rasterCanvas) fixedText(x, y float64, s string, st render.TextStyle) {
	face := basicfont.Face7x13
	if st.Align == render.AlignCenter {
		x -= float64(font.MeasureString(face, s).Ceil()) / 2
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(st.Color),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(x)), Y: fixed.I(int(y))},
	}
	d.DrawString(s)
}

func (r *rasterCanvas) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// RenderPNG rasterizes one page on a white background.
func RenderPNG(p Page, l Layout) (*image.RGBA, error) {
	w, h := math.Ceil(l.Width), math.Ceil(l.Height)
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	c, err := newRasterCanvas(img)
	if err != nil {
		return nil, err
	}
	c.RoundedRect(0, 0, w, h, 0, drawing.ColorWhite, drawing.ColorTransparent)
	render.Replay(p.Ops, c)
	if c.err != nil {
		return nil, c.err
	}
	return img, nil
}

// WritePNG encodes one page as a PNG image.
func WritePNG(w io.Writer, p Page, l Layout) error {
	img, err := RenderPNG(p, l)
	if err != nil {
		return fmt.Errorf("png page %d: %w", p.Index+1, err)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png page %d: %w", p.Index+1, err)
	}
	return nil
}
