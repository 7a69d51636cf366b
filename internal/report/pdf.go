package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/worktracker75-ui/datanav/internal/render"
)

const pdfFont = "Helvetica"

// pdfCanvas draws render primitives onto the current fpdf page.
type pdfCanvas struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (p *pdfCanvas) RoundedRect(x, y, w, h, r float64, fill, stroke drawing.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	style := ""
	if fill.A > 0 {
		p.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		style += "F"
	}
	if stroke.A > 0 {
		p.pdf.SetDrawColor(int(stroke.R), int(stroke.G), int(stroke.B))
		p.pdf.SetLineWidth(0.5)
		style += "D"
	}
	if style == "" {
		return
	}
	if r > h/2 {
		r = h / 2
	}
	if r > w/2 {
		r = w / 2
	}
	p.pdf.RoundedRect(x, y, w, h, r, "1234", style)
}

func (p *pdfCanvas) Triangle(a, b, c render.Point, fill drawing.Color) {
	p.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	p.pdf.SetDrawColor(int(fill.R), int(fill.G), int(fill.B))
	p.pdf.SetLineWidth(0.1)
	p.pdf.Polygon([]fpdf.PointType{{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}, {X: c.X, Y: c.Y}}, "FD")
}

func (p *pdfCanvas) Circle(cx, cy, r float64, fill drawing.Color) {
	p.pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
	p.pdf.Circle(cx, cy, r, "F")
}

func (p *pdfCanvas) Line(x1, y1, x2, y2, width float64, color drawing.Color) {
	p.pdf.SetDrawColor(int(color.R), int(color.G), int(color.B))
	p.pdf.SetLineWidth(width)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *pdfCanvas) Text(x, y float64, s string, st render.TextStyle) {
	style := ""
	if st.Bold {
		style = "B"
	}
	p.pdf.SetFont(pdfFont, style, st.Size)
	p.pdf.SetTextColor(int(st.Color.R), int(st.Color.G), int(st.Color.B))
	s = p.tr(s)
	if st.Align == render.AlignCenter {
		x -= p.pdf.GetStringWidth(s) / 2
	}
	p.pdf.Text(x, y, s)
}

var measurer struct {
	once sync.Once
	mu   sync.Mutex
	pdf  *fpdf.Fpdf
	tr   func(string) string
}

// TextWidth is the width in points of s set in the regular body face at
// size, measured with the PDF font metrics.
func TextWidth(s string, size float64) float64 {
	measurer.once.Do(func() {
		measurer.pdf = fpdf.New("P", "pt", "A4", "")
		measurer.tr = measurer.pdf.UnicodeTranslatorFromDescriptor("")
	})
	measurer.mu.Lock()
	defer measurer.mu.Unlock()
	measurer.pdf.SetFont(pdfFont, "", size)
	return measurer.pdf.GetStringWidth(measurer.tr(s))
}

// WritePDF replays every page into a PDF document of layout l.
func WritePDF(w io.Writer, pages []Page, l Layout) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: l.Width, Ht: l.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	c := &pdfCanvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	for _, p := range pages {
		pdf.AddPage()
		render.Replay(p.Ops, c)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("pdf page %d: %w", p.Index+1, err)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf output: %w", err)
	}
	return nil
}
