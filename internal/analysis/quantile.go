package analysis

import "math"

// Quantile returns the p-quantile of sorted, interpolating linearly between
// the order statistics around rank p·(n-1). This matches numpy's default
// percentile. p is clamped to [0, 1]; an empty slice gives NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	p = math.Min(math.Max(p, 0), 1)

	h := p * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
