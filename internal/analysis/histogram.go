// Package analysis derives the binned and fitted views drawn in the CR-39
// figure: density histograms, the beam-spot grid, the radial fluence profile
// with its Gaussian fit, and the energy-LET kernel density estimate.
//
// Every function is a pure aggregate over its inputs. Operations that can fail
// numerically return (value, ok) so the caller can drop an overlay and keep the
// raw data.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is a one-dimensional equal-width histogram.
type Histogram struct {
	Edges   []float64 // len(Counts)+1 bin edges
	Counts  []float64
	Density []float64 // Counts / (total * width); integrates to 1
}

// Len returns the number of bins.
func (h Histogram) Len() int {
	return len(h.Counts)
}

// Empty reports whether no values were binned.
func (h Histogram) Empty() bool {
	return floats.Sum(h.Counts) == 0
}

// DensityHistogram bins values into n equal-width bins spanning their range.
// The last bin is closed on the right. A degenerate range is widened by 0.5 on
// each side. Non-finite values are ignored; with no finite values the result
// has no bins.
func DensityHistogram(values []float64, n int) Histogram {
	finite := Finite(values)
	if len(finite) == 0 || n <= 0 {
		return Histogram{}
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	counts := make([]float64, n)
	for _, v := range finite {
		counts[binIndex(v, lo, hi, n)]++
	}

	total := float64(len(finite))
	density := make([]float64, n)
	for i, c := range counts {
		density[i] = c / (total * (edges[i+1] - edges[i]))
	}

	return Histogram{Edges: edges, Counts: counts, Density: density}
}

// binIndex maps v in [lo, hi] onto one of n equal bins, right edge inclusive.
func binIndex(v, lo, hi float64, n int) int {
	i := int(math.Floor((v - lo) / (hi - lo) * float64(n)))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Finite returns the finite values of xs.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Positive returns the values of xs strictly greater than zero.
func Positive(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > 0 {
			out = append(out, x)
		}
	}
	return out
}

// Mean returns the arithmetic mean of xs, or false when xs is empty.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}
