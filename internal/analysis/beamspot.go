package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Grid2D is a square two-dimensional histogram.
type Grid2D struct {
	Edges  []float64   // shared x and y bin edges
	Counts [][]float64 // Counts[ix][iy]
}

// Bins returns the number of bins per axis.
func (g Grid2D) Bins() int {
	return len(g.Counts)
}

// Max returns the largest bin count.
func (g Grid2D) Max() float64 {
	var m float64
	for _, col := range g.Counts {
		if len(col) > 0 {
			m = math.Max(m, floats.Max(col))
		}
	}
	return m
}

// Histogram2D counts (x, y) points into n×n bins over [lo, hi]². Points outside
// the window are dropped; the upper edge is inclusive.
func Histogram2D(xs, ys []float64, n int, lo, hi float64) Grid2D {
	if n <= 0 || !(hi > lo) {
		return Grid2D{}
	}
	g := Grid2D{
		Edges:  floats.Span(make([]float64, n+1), lo, hi),
		Counts: make([][]float64, n),
	}
	for i := range g.Counts {
		g.Counts[i] = make([]float64, n)
	}

	for i := range xs {
		if i >= len(ys) {
			break
		}
		x, y := xs[i], ys[i]
		if !(x >= lo && x <= hi && y >= lo && y <= hi) {
			continue
		}
		g.Counts[binIndex(x, lo, hi, n)][binIndex(y, lo, hi, n)]++
	}
	return g
}

// WindowHalfWidth returns the half-width of the square beam-spot window:
// the q-quantile of |x|, but never less than floor.
func WindowHalfWidth(xs []float64, floor, q float64) float64 {
	abs := make([]float64, 0, len(xs))
	for _, x := range Finite(xs) {
		abs = append(abs, math.Abs(x))
	}
	if len(abs) == 0 {
		return floor
	}
	sort.Float64s(abs)
	return math.Max(floor, Quantile(abs, q))
}
