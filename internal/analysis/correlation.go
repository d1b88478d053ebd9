package analysis

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Subsample draws min(k, n) distinct indices from [0, n) uniformly without
// replacement. The result is sorted and depends only on n, k and seed.
func Subsample(n, k int, seed int64) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	idx := make([]int, k)
	if k == n {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	sampleuv.WithoutReplacement(idx, n, rand.NewPCG(uint64(seed), uint64(seed)))
	sort.Ints(idx)
	return idx
}

// PositivePairs keeps the (x, y) pairs where both values are strictly positive.
func PositivePairs(xs, ys []float64) (px, py []float64) {
	for i := range xs {
		if i >= len(ys) {
			break
		}
		if xs[i] > 0 && ys[i] > 0 {
			px = append(px, xs[i])
			py = append(py, ys[i])
		}
	}
	return px, py
}

// DensityGrid is a kernel density estimate evaluated on a regular grid.
type DensityGrid struct {
	X      []float64   // column coordinates
	Y      []float64   // row coordinates
	Values [][]float64 // Values[ix][iy]
}

// EstimateDensity2D builds a Gaussian kernel density estimate of the (x, y)
// sample using Scott's bandwidth rule with the full sample covariance, and
// evaluates it on an n×n grid spanning the sample range. It returns false for
// fewer than three points, a degenerate range or a singular covariance.
func EstimateDensity2D(xs, ys []float64, n int) (DensityGrid, bool) {
	m := len(xs)
	if m < 3 || len(ys) != m || n < 2 {
		return DensityGrid{}, false
	}
	xmin, xmax := floats.Min(xs), floats.Max(xs)
	ymin, ymax := floats.Min(ys), floats.Max(ys)
	if !(xmax > xmin) || !(ymax > ymin) {
		return DensityGrid{}, false
	}

	data := mat.NewDense(m, 2, nil)
	for i := 0; i < m; i++ {
		data.Set(i, 0, xs[i])
		data.Set(i, 1, ys[i])
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	// Scott's factor n^(-1/(d+4)) for d = 2.
	factor := math.Pow(float64(m), -1.0/6.0)
	cov.ScaleSym(factor*factor, &cov)

	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return DensityGrid{}, false
	}
	det := chol.Det()
	if !(det > 0) || math.IsInf(det, 0) {
		return DensityGrid{}, false
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return DensityGrid{}, false
	}
	a, b, c := inv.At(0, 0), inv.At(0, 1), inv.At(1, 1)
	norm := 1 / (float64(m) * 2 * math.Pi * math.Sqrt(det))

	g := DensityGrid{
		X:      floats.Span(make([]float64, n), xmin, xmax),
		Y:      floats.Span(make([]float64, n), ymin, ymax),
		Values: make([][]float64, n),
	}
	for ix, gx := range g.X {
		col := make([]float64, n)
		for iy, gy := range g.Y {
			var sum float64
			for i := 0; i < m; i++ {
				dx, dy := gx-xs[i], gy-ys[i]
				sum += math.Exp(-0.5 * (a*dx*dx + 2*b*dx*dy + c*dy*dy))
			}
			col[iy] = sum * norm
		}
		g.Values[ix] = col
	}
	return g, true
}

// ContourLevels returns the given percentiles (0-100) of the strictly positive
// grid densities as increasing, de-duplicated contour levels. It returns false
// when the grid holds no positive density.
func ContourLevels(g DensityGrid, percentiles []float64) ([]float64, bool) {
	var pos []float64
	for _, col := range g.Values {
		pos = append(pos, Positive(col)...)
	}
	if len(pos) == 0 || len(percentiles) == 0 {
		return nil, false
	}
	sort.Float64s(pos)

	levels := make([]float64, 0, len(percentiles))
	for _, p := range percentiles {
		v := Quantile(pos, p/100)
		if len(levels) == 0 || v > levels[len(levels)-1] {
			levels = append(levels, v)
		}
	}
	return levels, true
}
