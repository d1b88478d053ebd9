package figure

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"

	"github.com/banshee-data/cr39.report/internal/analysis"
)

// logCountGrid exposes a beam-spot histogram as a plotter.GridXYZ of
// log10(counts). Empty bins are NaN so the heat map leaves them blank.
type logCountGrid struct {
	g analysis.Grid2D
}

func (l logCountGrid) Dims() (c, r int) { return l.g.Bins(), l.g.Bins() }

func (l logCountGrid) Z(c, r int) float64 {
	n := l.g.Counts[c][r]
	if n <= 0 {
		return math.NaN()
	}
	return math.Log10(n)
}

func (l logCountGrid) X(c int) float64 { return 0.5 * (l.g.Edges[c] + l.g.Edges[c+1]) }
func (l logCountGrid) Y(r int) float64 { return 0.5 * (l.g.Edges[r] + l.g.Edges[r+1]) }

// densityGrid exposes a KDE evaluation as a plotter.GridXYZ.
type densityGrid struct {
	g analysis.DensityGrid
}

func (d densityGrid) Dims() (c, r int)   { return len(d.g.X), len(d.g.Y) }
func (d densityGrid) Z(c, r int) float64 { return d.g.Values[c][r] }
func (d densityGrid) X(c int) float64    { return d.g.X[c] }
func (d densityGrid) Y(r int) float64    { return d.g.Y[r] }

// solidPalette is a single-colour palette so contour lines share one colour.
type solidPalette struct {
	c color.Color
}

func (s solidPalette) Colors() []color.Color { return []color.Color{s.c} }

var _ palette.Palette = solidPalette{}
