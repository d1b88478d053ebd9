// Package figure renders the six-panel CR-39 proton analysis figure with
// gonum/plot and writes it as PDF and PNG.
package figure

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
)

// Style is the publication style applied to every panel. It is passed to the
// renderer explicitly; nothing in gonum/plot's package-level defaults is
// modified.
type Style struct {
	Typeface font.Typeface
	Variant  font.Variant

	SuptitleSize vg.Length
	TitleSize    vg.Length
	LabelSize    vg.Length
	TickSize     vg.Length
	LegendSize   vg.Length

	LineWidth   vg.Length
	MarkerWidth vg.Length // mean markers and fit curves
	AxisWidth   vg.Length

	Blue  color.Color
	Red   color.Color
	Green color.Color
	Gold  color.Color
	Navy  color.Color

	Width  vg.Length
	Height vg.Length
	DPI    int
}

// DefaultStyle returns the print style: serif fonts, 14×10 in at 300 DPI.
func DefaultStyle() Style {
	return Style{
		Typeface: "Liberation",
		Variant:  "Serif",

		SuptitleSize: vg.Points(12),
		TitleSize:    vg.Points(12),
		LabelSize:    vg.Points(12),
		TickSize:     vg.Points(11),
		LegendSize:   vg.Points(10),

		LineWidth:   vg.Points(1.8),
		MarkerWidth: vg.Points(1.5),
		AxisWidth:   vg.Points(1.2),

		Blue:  rgb(0x1f, 0x77, 0xb4),
		Red:   rgb(0xd6, 0x27, 0x28),
		Green: rgb(0x2c, 0xa0, 0x2c),
		Gold:  rgb(0xff, 0x7f, 0x0e),
		Navy:  rgb(0x00, 0x00, 0x80),

		Width:  14 * vg.Inch,
		Height: 10 * vg.Inch,
		DPI:    300,
	}
}

func rgb(r, g, b uint8) color.Color {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// withAlpha returns c at the given opacity (0-1).
func withAlpha(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(alpha * 255)}
}

// newPlot creates a plot with the style's fonts and line widths.
func (s Style) newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	s.font(&p.Title.TextStyle.Font, s.TitleSize)
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		s.font(&ax.Label.TextStyle.Font, s.LabelSize)
		s.font(&ax.Tick.Label.Font, s.TickSize)
		ax.LineStyle.Width = s.AxisWidth
		ax.Tick.LineStyle.Width = s.AxisWidth
	}
	s.font(&p.Legend.TextStyle.Font, s.LegendSize)
	p.Legend.Top = true
	return p
}

func (s Style) font(f *font.Font, size vg.Length) {
	f.Typeface = s.Typeface
	f.Variant = s.Variant
	f.Size = size
}
