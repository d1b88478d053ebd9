package figure

import (
	"errors"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// hexCell identifies a hexagon on one of the two offset lattices.
type hexCell struct {
	offset bool // second lattice, shifted by half a cell
	i, j   int
}

// HexBin is a plotter that bins (x, y) points into pointy-top hexagons and
// fills each hexagon with at least MinCount points by its count.
type HexBin struct {
	// ColorMap maps counts to fill colours. Its range is set from the data.
	ColorMap palette.ColorMap

	// Invert maps the highest count to the low end of ColorMap.
	Invert bool

	// MinCount hides hexagons with fewer points.
	MinCount int

	counts                 map[hexCell]int
	xmin, xmax, ymin, ymax float64
	sx, sy                 float64
}

// NewHexBin bins the points into a grid gridsize hexagons wide.
func NewHexBin(xs, ys []float64, gridsize int, cm palette.ColorMap) (*HexBin, error) {
	if len(xs) != len(ys) {
		return nil, errors.New("hexbin: x and y lengths differ")
	}
	if len(xs) == 0 {
		return nil, errors.New("hexbin: no points")
	}
	if gridsize <= 0 {
		return nil, errors.New("hexbin: gridsize must be positive")
	}

	h := &HexBin{
		ColorMap: cm,
		MinCount: 1,
		counts:   make(map[hexCell]int),
		xmin:     floats.Min(xs),
		xmax:     floats.Max(xs),
		ymin:     floats.Min(ys),
		ymax:     floats.Max(ys),
	}
	if h.xmax == h.xmin {
		h.xmin, h.xmax = h.xmin-0.5, h.xmax+0.5
	}
	if h.ymax == h.ymin {
		h.ymin, h.ymax = h.ymin-0.5, h.ymax+0.5
	}

	nx := float64(gridsize)
	ny := math.Max(1, math.Floor(nx/math.Sqrt(3)))
	h.sx = (h.xmax - h.xmin) / nx
	h.sy = (h.ymax - h.ymin) / ny

	for k := range xs {
		x := (xs[k] - h.xmin) / h.sx
		y := (ys[k] - h.ymin) / h.sy
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		i1, j1 := math.Round(x), math.Round(y)
		i2, j2 := math.Floor(x), math.Floor(y)
		d1 := (x-i1)*(x-i1) + 3*(y-j1)*(y-j1)
		d2 := (x-i2-0.5)*(x-i2-0.5) + 3*(y-j2-0.5)*(y-j2-0.5)
		if d1 < d2 {
			h.counts[hexCell{i: int(i1), j: int(j1)}]++
		} else {
			h.counts[hexCell{offset: true, i: int(i2), j: int(j2)}]++
		}
	}
	return h, nil
}

// Cells returns the number of non-empty hexagons.
func (h *HexBin) Cells() int {
	return len(h.counts)
}

// MaxCount returns the largest hexagon count.
func (h *HexBin) MaxCount() int {
	m := 0
	for _, n := range h.counts {
		if n > m {
			m = n
		}
	}
	return m
}

// Total returns the number of binned points.
func (h *HexBin) Total() int {
	t := 0
	for _, n := range h.counts {
		t += n
	}
	return t
}

func (h *HexBin) center(c hexCell) (float64, float64) {
	x, y := float64(c.i), float64(c.j)
	if c.offset {
		x += 0.5
		y += 0.5
	}
	return h.xmin + x*h.sx, h.ymin + y*h.sy
}

// hexVertices are the corner offsets in units of (sx, sy).
var hexVertices = [6][2]float64{
	{0.5, -1.0 / 6}, {0.5, 1.0 / 6}, {0, 1.0 / 3},
	{-0.5, 1.0 / 6}, {-0.5, -1.0 / 6}, {0, -1.0 / 3},
}

// Plot implements plot.Plotter.
func (h *HexBin) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	lo := float64(h.MinCount)
	hi := float64(h.MaxCount())
	if hi <= lo {
		hi = lo + 1
	}
	h.ColorMap.SetMin(lo)
	h.ColorMap.SetMax(hi)

	for cell, n := range h.counts {
		if n < h.MinCount {
			continue
		}
		v := float64(n)
		if h.Invert {
			v = lo + hi - v
		}
		col, err := h.ColorMap.At(math.Min(math.Max(v, lo), hi))
		if err != nil {
			continue
		}

		cx, cy := h.center(cell)
		pts := make([]vg.Point, len(hexVertices))
		for k, off := range hexVertices {
			pts[k] = vg.Point{X: trX(cx + off[0]*h.sx), Y: trY(cy + off[1]*h.sy)}
		}
		c.FillPolygon(col, c.ClipPolygonXY(pts))
	}
}

// DataRange implements plot.DataRanger.
func (h *HexBin) DataRange() (xmin, xmax, ymin, ymax float64) {
	return h.xmin, h.xmax, h.ymin, h.ymax
}

// ylOrRd is a yellow-orange-red sequential map, ordered dark to light so
// luminance increases; use it with HexBin.Invert to make dense cells dark.
func ylOrRd() palette.ColorMap {
	cm, err := moreland.NewLuminance([]color.Color{
		rgb(0x80, 0x00, 0x26),
		rgb(0xbd, 0x00, 0x26),
		rgb(0xe3, 0x1a, 0x1c),
		rgb(0xfc, 0x4e, 0x2a),
		rgb(0xfd, 0x8d, 0x3c),
		rgb(0xfe, 0xb2, 0x4c),
		rgb(0xfe, 0xd9, 0x76),
		rgb(0xff, 0xff, 0xcc),
	})
	if err != nil {
		return moreland.BlackBody()
	}
	return cm
}
