// Package report lays out a dataset summary, charts and assistant narrative
// across fixed-size pages and writes them as PDF or PNG.
package report

import (
	"strconv"
	"strings"

	"github.com/worktracker75-ui/datanav/internal/render"
)

// Layout is the page geometry in points.
type Layout struct {
	Width, Height float64
	Margin        float64
	Footer        float64
}

// A4 is the default portrait layout.
var A4 = Layout{Width: 595.28, Height: 841.89, Margin: 40, Footer: 28}

// ContentWidth is the printable width between the side margins.
func (l Layout) ContentWidth() float64 { return l.Width - 2*l.Margin }

// Bottom is the lowest y a block may reach before the footer band.
func (l Layout) Bottom() float64 { return l.Height - l.Margin - l.Footer }

const (
	BodySize    = 10.0
	HeadingSize = 13.0
	TitleSize   = 18.0
	FooterSize  = 8.0
	lineFactor  = 1.45
	blockGap    = 10.0
)

// HeadingKeywords are the section titles rendered in the accent style.
var HeadingKeywords = []string{
	"data overview",
	"key metrics",
	"insights & patterns",
	"insights and patterns",
	"recommendations",
	"visualization",
	"summary",
}

// Page is one finished page. Its ops never change once the page is closed.
type Page struct {
	Index int
	Ops   []render.Op
}

// PageCursor is the position where the next block goes.
type PageCursor struct {
	Page int
	Y    float64
}

// Compositor accumulates pages. Each report uses its own Compositor; the
// cursor is passed in and returned by every block method.
type Compositor struct {
	layout  Layout
	pages   []Page
	current *render.Recorder
}

// NewCompositor opens the first page and returns it with the starting cursor.
func NewCompositor(l Layout) (*Compositor, PageCursor) {
	return &Compositor{layout: l, current: &render.Recorder{}}, PageCursor{Page: 0, Y: l.Margin}
}

// Layout returns the page geometry.
func (c *Compositor) Layout() Layout { return c.layout }

// Canvas is the recorder for the page under the cursor.
func (c *Compositor) Canvas() render.Canvas { return c.current }

// Ensure breaks to a new page when a block of height h does not fit below
// cur. A block taller than a whole page is placed at the top of a page and
// allowed to overflow.
func (c *Compositor) Ensure(cur PageCursor, h float64) PageCursor {
	if cur.Y+h <= c.layout.Bottom() || cur.Y <= c.layout.Margin {
		return cur
	}
	c.closePage(cur.Page)
	return PageCursor{Page: cur.Page + 1, Y: c.layout.Margin}
}

func (c *Compositor) closePage(index int) {
	c.pages = append(c.pages, Page{Index: index, Ops: c.current.Ops})
	c.current = &render.Recorder{}
}

// Space advances the cursor by h without drawing.
func (c *Compositor) Space(cur PageCursor, h float64) PageCursor {
	cur.Y += h
	return cur
}

// Title draws a large heading followed by a muted subtitle line.
func (c *Compositor) Title(cur PageCursor, title, subtitle string) PageCursor {
	h := TitleSize*lineFactor + BodySize*lineFactor
	cur = c.Ensure(cur, h)
	cur.Y += TitleSize
	c.current.Text(c.layout.Margin, cur.Y, title, render.TextStyle{Size: TitleSize, Color: render.ColorText, Bold: true})
	cur.Y += BodySize * lineFactor
	c.current.Text(c.layout.Margin, cur.Y, subtitle, render.TextStyle{Size: BodySize, Color: render.ColorMuted})
	cur.Y += blockGap
	return cur
}

// Heading draws one line in the accent style.
func (c *Compositor) Heading(cur PageCursor, text string) PageCursor {
	cur = c.Ensure(cur, HeadingSize*lineFactor+BodySize)
	cur.Y += HeadingSize * lineFactor
	c.current.Text(c.layout.Margin, cur.Y, text, render.TextStyle{Size: HeadingSize, Color: render.ColorAccent, Bold: true})
	cur.Y += HeadingSize * 0.4
	return cur
}

// Paragraph wraps text to the content width and draws it line by line,
// checking for a page break before every line.
func (c *Compositor) Paragraph(cur PageCursor, text string) PageCursor {
	style := render.TextStyle{Size: BodySize, Color: render.ColorText}
	lh := BodySize * lineFactor
	for _, line := range Wrap(text, c.layout.ContentWidth(), BodySize) {
		cur = c.Ensure(cur, lh)
		cur.Y += lh
		c.current.Text(c.layout.Margin, cur.Y, line, style)
	}
	return cur
}

// Narrative draws free text. Lines naming a known section become headings,
// the rest are wrapped paragraphs. Blank lines add a small gap.
func (c *Compositor) Narrative(cur PageCursor, text string) PageCursor {
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			cur = c.Space(cur, BodySize*0.6)
			continue
		}
		head, rest, ok := SplitHeading(line)
		if !ok {
			cur = c.Paragraph(cur, cleanBullet(line))
			continue
		}
		cur = c.Heading(cur, head)
		if rest != "" {
			cur = c.Paragraph(cur, cleanBullet(rest))
		}
	}
	return cur
}

// Block reserves h points of height and lets draw fill the reserved rect.
func (c *Compositor) Block(cur PageCursor, h float64, draw func(render.Canvas, render.Rect)) PageCursor {
	cur = c.Ensure(cur, h)
	draw(c.current, render.Rect{X: c.layout.Margin, Y: cur.Y, W: c.layout.ContentWidth(), H: h})
	cur.Y += h + blockGap
	return cur
}

// Finish closes the open page and stamps "Page i of N" on every page. The
// stamped pages are new values; the closed pages are left as they were.
func (c *Compositor) Finish(cur PageCursor) []Page {
	c.closePage(cur.Page)
	total := len(c.pages)
	out := make([]Page, total)
	style := render.TextStyle{Size: FooterSize, Color: render.ColorMuted, Align: render.AlignCenter}
	for i, p := range c.pages {
		var footer render.Recorder
		footer.Line(c.layout.Margin, c.layout.Height-c.layout.Margin-FooterSize*1.5,
			c.layout.Width-c.layout.Margin, c.layout.Height-c.layout.Margin-FooterSize*1.5, 0.5, render.ColorBorder)
		footer.Text(c.layout.Width/2, c.layout.Height-c.layout.Margin, FooterText(p.Index+1, total), style)
		ops := make([]render.Op, 0, len(p.Ops)+len(footer.Ops))
		ops = append(ops, p.Ops...)
		out[i] = Page{Index: p.Index, Ops: append(ops, footer.Ops...)}
	}
	return out
}

// FooterText is the page stamp.
func FooterText(page, total int) string {
	return "Page " + strconv.Itoa(page) + " of " + strconv.Itoa(total)
}

// IsHeading reports whether a narrative line is a known section title on
// its own, or a bold title followed by body text.
func IsHeading(line string) bool {
	_, _, ok := SplitHeading(line)
	return ok
}

// SplitHeading matches a line against the section titles. Markdown markers,
// a list number and a trailing colon are ignored: "## Key Metrics",
// "Recommendations:" and "1. **Data Overview**: 4 rows" all match, the last
// one with rest "4 rows". Sentences that merely start with a title do not.
func SplitHeading(line string) (heading, rest string, ok bool) {
	s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
	if i := strings.Index(s, ". "); i > 0 && i <= 2 && isDigits(s[:i]) {
		s = strings.TrimSpace(s[i+2:])
	}
	if strings.HasPrefix(s, "**") {
		if end := strings.Index(s[2:], "**"); end >= 0 {
			head := strings.Trim(s[2:2+end], ": \t")
			if isHeadingKeyword(head) {
				return head, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s[2+end+2:]), ":")), true
			}
		}
	}
	head := strings.Trim(strings.ReplaceAll(s, "**", ""), "_: \t")
	if isHeadingKeyword(head) {
		return head, "", true
	}
	return "", "", false
}

func isHeadingKeyword(s string) bool {
	s = strings.ToLower(s)
	for _, k := range HeadingKeywords {
		if s == k {
			return true
		}
	}
	return false
}

func cleanBullet(line string) string {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return "• " + strings.TrimSpace(line[len(p):])
		}
	}
	return strings.ReplaceAll(line, "**", "")
}

// Wrap breaks text into lines no wider than width at the given font size,
// splitting only at whitespace. A single token wider than width gets a line
// of its own.
func Wrap(text string, width, size float64) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		if cur.Len() == 0 {
			cur.WriteString(word)
			continue
		}
		if TextWidth(cur.String()+" "+word, size) > width {
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(word)
			continue
		}
		cur.WriteByte(' ')
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
