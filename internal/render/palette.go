package render

import "github.com/wcharczuk/go-chart/v2/drawing"

// Palette is the series color cycle.
var Palette = []drawing.Color{
	drawing.ColorFromHex("4F46E5"),
	drawing.ColorFromHex("06B6D4"),
	drawing.ColorFromHex("10B981"),
	drawing.ColorFromHex("F59E0B"),
	drawing.ColorFromHex("EF4444"),
	drawing.ColorFromHex("8B5CF6"),
}

var (
	ColorPanel  = drawing.ColorFromHex("F8FAFC")
	ColorBorder = drawing.ColorFromHex("E2E8F0")
	ColorGrid   = drawing.ColorFromHex("CBD5E1")
	ColorText   = drawing.ColorFromHex("1E293B")
	ColorMuted  = drawing.ColorFromHex("64748B")
	ColorAccent = drawing.ColorFromHex("4F46E5")
	ColorWhite  = drawing.ColorWhite

	// ColorNone has zero alpha and disables a fill or stroke.
	ColorNone = drawing.ColorTransparent
)

// SeriesColor returns the palette color for index i.
func SeriesColor(i int) drawing.Color {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
