package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// RadialProfile is the hit fluence binned into concentric shells around the
// beam axis.
type RadialProfile struct {
	Edges   []float64 // shell radii, from 0 to the window half-width
	Mid     []float64 // shell mid-radii
	Counts  []float64
	Area    []float64 // annulus area π(r₂² − r₁²)
	Fluence []float64 // Counts / Area, hits per mm²
}

// Shells returns the number of radial shells.
func (p RadialProfile) Shells() int {
	return len(p.Counts)
}

// NewRadialProfile bins hit radii r = √(x²+y²) into edges-1 equal shells
// spanning [0, rMax]. Radii beyond rMax are dropped.
func NewRadialProfile(xs, ys []float64, rMax float64, edges int) RadialProfile {
	if edges < 2 || !(rMax > 0) {
		return RadialProfile{}
	}
	n := edges - 1
	p := RadialProfile{
		Edges:   floats.Span(make([]float64, edges), 0, rMax),
		Mid:     make([]float64, n),
		Counts:  make([]float64, n),
		Area:    make([]float64, n),
		Fluence: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		r1, r2 := p.Edges[i], p.Edges[i+1]
		p.Mid[i] = 0.5 * (r1 + r2)
		p.Area[i] = math.Pi * (r2*r2 - r1*r1)
	}

	for i := range xs {
		if i >= len(ys) {
			break
		}
		r := math.Hypot(xs[i], ys[i])
		if math.IsNaN(r) || r > rMax {
			continue
		}
		p.Counts[binIndex(r, 0, rMax, n)]++
	}

	for i := range p.Counts {
		p.Fluence[i] = p.Counts[i] / p.Area[i]
	}
	return p
}

// GaussianFit is a zero-mean radial Gaussian A·exp(−r²/2σ²).
type GaussianFit struct {
	Amplitude float64
	Sigma     float64 // mm
}

// Eval returns the fitted fluence at radius r.
func (g GaussianFit) Eval(r float64) float64 {
	return g.Amplitude * math.Exp(-r*r/(2*g.Sigma*g.Sigma))
}

// initialSigmaMM is the starting beam width for the fit.
const initialSigmaMM = 1.5

// FitRadialGaussian least-squares fits a GaussianFit to the profile's fluence
// at the shell mid-radii, starting from (max fluence, 1.5 mm). It returns false
// when there is nothing to fit or the minimiser does not converge to a finite,
// non-degenerate result.
func FitRadialGaussian(p RadialProfile) (GaussianFit, bool) {
	if p.Shells() < 2 || len(p.Mid) != len(p.Fluence) {
		return GaussianFit{}, false
	}
	for _, f := range p.Fluence {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return GaussianFit{}, false
		}
	}
	scale := floats.Max(p.Fluence)
	if !(scale > 0) {
		return GaussianFit{}, false
	}

	// Fit in units of the peak fluence so the amplitude starts at 1.
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, s := x[0], x[1]
			if s == 0 {
				return math.Inf(1)
			}
			var sse float64
			for i, r := range p.Mid {
				d := a*math.Exp(-r*r/(2*s*s)) - p.Fluence[i]/scale
				sse += d * d
			}
			return sse
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 2000,
		FuncEvaluations: 10000,
	}
	result, err := optimize.Minimize(problem, []float64{1, initialSigmaMM}, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		return GaussianFit{}, false
	}
	switch result.Status {
	case optimize.NotTerminated, optimize.Failure, optimize.IterationLimit,
		optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
		return GaussianFit{}, false
	}

	fit := GaussianFit{Amplitude: result.X[0] * scale, Sigma: math.Abs(result.X[1])}
	if math.IsNaN(fit.Amplitude) || math.IsInf(fit.Amplitude, 0) ||
		math.IsNaN(fit.Sigma) || math.IsInf(fit.Sigma, 0) || fit.Sigma == 0 {
		return GaussianFit{}, false
	}
	return fit, true
}
