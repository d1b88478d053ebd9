package figure

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/cr39.report/internal/analysis"
	"github.com/banshee-data/cr39.report/internal/config"
	"github.com/banshee-data/cr39.report/internal/monitoring"
	"github.com/banshee-data/cr39.report/internal/tracks"
)

// contourPercentiles are the density percentiles drawn over the correlation
// panel.
var contourPercentiles = []float64{20, 50, 80, 95}

// Params are the binning and sampling constants of the figure.
type Params struct {
	EnergyBins     int
	LETBins        int
	LengthBins     int
	SpotBins       int
	RadialEdges    int
	WindowFloorMM  float64
	WindowQuantile float64
	SubsampleSize  int
	SubsampleSeed  int64
	KDEGrid        int
	HexbinGridsize int
}

// ParamsFromConfig reads the figure constants from cfg.
func ParamsFromConfig(cfg *config.AnalysisConfig) Params {
	return Params{
		EnergyBins:     cfg.GetEnergyBins(),
		LETBins:        cfg.GetLETBins(),
		LengthBins:     cfg.GetLengthBins(),
		SpotBins:       cfg.GetSpotBins(),
		RadialEdges:    cfg.GetRadialEdges(),
		WindowFloorMM:  cfg.GetWindowFloorMM(),
		WindowQuantile: cfg.GetWindowQuantile(),
		SubsampleSize:  cfg.GetSubsampleSize(),
		SubsampleSeed:  cfg.GetSubsampleSeed(),
		KDEGrid:        cfg.GetKDEGrid(),
		HexbinGridsize: cfg.GetHexbinGridsize(),
	}
}

// Report describes what the renderer derived, including which optional
// overlays were available.
type Report struct {
	WindowHalfWidthMM float64
	Fit               analysis.GaussianFit
	FitOK             bool
	SubsampleSize     int
	CorrelationPoints int // subsample pairs with positive energy and LET
	HexbinCells       int // non-empty hexagons in the correlation panel
	DensityOK         bool
	FailedPanels      []string
}

// Panel is one cell of the figure: a plot and an optional colour bar drawn to
// its right.
type Panel struct {
	Name     string
	Plot     *plot.Plot
	ColorBar *plot.Plot
}

type builder struct {
	hits   tracks.Events
	params Params
	style  Style
	report Report

	window float64
}

// Build derives the six panels from the hit subset. Panels are independent:
// one that cannot be built is logged, recorded in the report and replaced by
// an empty placeholder.
func Build(hits tracks.Events, total int, params Params, style Style) (*Figure, Report) {
	b := &builder{hits: hits, params: params, style: style}
	b.window = analysis.WindowHalfWidth(hits.EntryX(), params.WindowFloorMM, params.WindowQuantile)
	b.report.WindowHalfWidthMM = b.window

	steps := []struct {
		name  string
		title string
		build func() (*Panel, error)
	}{
		{"energy", "Deposited energy spectrum", b.energyPanel},
		{"let", "Linear energy transfer in CR-39", b.letPanel},
		{"length", "Proton track length in CR-39", b.lengthPanel},
		{"beamspot", "Proton beam spot on CR-39", b.beamSpotPanel},
		{"radial", "Radial fluence profile", b.radialPanel},
		{"correlation", "LET vs Edep correlation", b.correlationPanel},
	}

	fig := &Figure{Title: Suptitle(total), Style: style}
	for _, st := range steps {
		p, err := buildPanel(st.build)
		if err != nil {
			monitoring.Stagef("renderer", "panel %s unavailable: %v", st.name, err)
			b.report.FailedPanels = append(b.report.FailedPanels, st.name)
			p = &Panel{Plot: style.newPlot(st.title+" (unavailable)", "", "")}
		}
		p.Name = st.name
		fig.Panels = append(fig.Panels, p)
	}
	return fig, b.report
}

// buildPanel runs build, turning a panic into an error. A nil panel without
// an error is also reported as a failure.
func buildPanel(build func() (*Panel, error)) (p *Panel, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	p, err = build()
	if err == nil && p == nil {
		err = errors.New("no panel")
	}
	return p, err
}

// densityPanel draws a density histogram with a dashed mean marker.
func (b *builder) densityPanel(values []float64, bins int, fill color.Color,
	title, xlabel, ylabel, meanLabel string) (*Panel, error) {

	p := b.style.newPlot(title, xlabel, ylabel)
	h := analysis.DensityHistogram(values, bins)
	if h.Empty() {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return &Panel{Plot: p}, nil
	}

	hist := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, h.Len()),
		Width:     h.Edges[1] - h.Edges[0],
		FillColor: withAlpha(fill, 0.85),
		LineStyle: draw.LineStyle{Color: color.White, Width: vg.Points(0.3)},
	}
	ymax := 0.0
	for i := range h.Counts {
		hist.Bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: h.Density[i]}
		ymax = math.Max(ymax, h.Density[i])
	}
	p.Add(hist)

	mean, ok := analysis.Mean(analysis.Finite(values))
	if !ok {
		return &Panel{Plot: p}, nil
	}
	marker, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: ymax * 1.05}})
	if err != nil {
		return nil, fmt.Errorf("mean marker: %w", err)
	}
	b.dashed(&marker.LineStyle, b.style.Red)
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf(meanLabel, mean), marker)
	return &Panel{Plot: p}, nil
}

func (b *builder) dashed(ls *draw.LineStyle, c color.Color) {
	ls.Color = c
	ls.Width = b.style.MarkerWidth
	ls.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
}

func (b *builder) energyPanel() (*Panel, error) {
	return b.densityPanel(b.hits.Edep(), b.params.EnergyBins, b.style.Blue,
		"Deposited energy spectrum", "Edep (MeV)", "Probability density (1/MeV)",
		"<Edep> = %.2f MeV")
}

func (b *builder) letPanel() (*Panel, error) {
	return b.densityPanel(analysis.Positive(b.hits.LET()), b.params.LETBins, b.style.Green,
		"Linear energy transfer in CR-39", "LET (MeV/mm)", "Probability density (mm/MeV)",
		"<LET> = %.1f MeV/mm")
}

func (b *builder) lengthPanel() (*Panel, error) {
	return b.densityPanel(analysis.Positive(b.hits.TrackLen()), b.params.LengthBins, b.style.Gold,
		"Proton track length in CR-39", "Track length l (mm)", "Probability density (1/mm)",
		"<l> = %.4f mm")
}

func (b *builder) beamSpotPanel() (*Panel, error) {
	w := b.window
	grid := analysis.Histogram2D(b.hits.EntryX(), b.hits.EntryY(), b.params.SpotBins, -w, w)
	if grid.Bins() == 0 {
		return nil, errors.New("empty beam-spot window")
	}

	p := b.style.newPlot("Proton beam spot on CR-39", "x (mm)", "y (mm)")
	p.X.Min, p.X.Max = -w, w
	p.Y.Min, p.Y.Max = -w, w

	zmax := math.Log10(math.Max(grid.Max(), 1))
	if zmax <= 0 {
		zmax = 1
	}
	heatMap := moreland.ExtendedBlackBody()
	hm := plotter.NewHeatMap(logCountGrid{grid}, heatMap.Palette(255))
	hm.Min, hm.Max = 0, zmax
	hm.NaN = color.Transparent
	p.Add(hm)

	barMap := moreland.ExtendedBlackBody()
	barMap.SetMin(0)
	barMap.SetMax(zmax)
	cb := b.style.newPlot("", "", "log10(counts / bin)")
	cb.Add(&plotter.ColorBar{ColorMap: barMap, Vertical: true})
	cb.HideX()

	return &Panel{Plot: p, ColorBar: cb}, nil
}

func (b *builder) radialPanel() (*Panel, error) {
	prof := analysis.NewRadialProfile(b.hits.EntryX(), b.hits.EntryY(), b.window, b.params.RadialEdges)

	p := b.style.newPlot("Radial fluence profile", "Radial distance r (mm)", "Fluence (protons/mm²)")
	p.X.Min, p.X.Max = 0, b.window
	if prof.Shells() == 0 {
		return &Panel{Plot: p}, nil
	}

	pts := make(plotter.XYs, prof.Shells())
	for i := range pts {
		pts[i] = plotter.XY{X: prof.Mid[i], Y: prof.Fluence[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("fluence line: %w", err)
	}
	line.Color = b.style.Blue
	line.Width = b.style.LineWidth
	p.Add(line)
	p.Legend.Add("Geant4", line)

	fit, ok := analysis.FitRadialGaussian(prof)
	b.report.Fit, b.report.FitOK = fit, ok
	if !ok {
		monitoring.Stagef("renderer", "radial Gaussian fit did not converge, plotting data only")
		return &Panel{Plot: p}, nil
	}

	curve := plotter.NewFunction(fit.Eval)
	curve.XMin, curve.XMax = 0, b.window
	curve.Samples = 300
	b.dashed(&curve.LineStyle, b.style.Red)
	p.Add(curve)
	p.Legend.Add(fmt.Sprintf("Gaussian fit σ = %.2f mm", fit.Sigma), curve)
	return &Panel{Plot: p}, nil
}

func (b *builder) correlationPanel() (*Panel, error) {
	p := b.style.newPlot("LET vs Edep correlation", "Edep (MeV)", "LET (MeV/mm)")

	idx := analysis.Subsample(len(b.hits), b.params.SubsampleSize, b.params.SubsampleSeed)
	b.report.SubsampleSize = len(idx)
	edep := make([]float64, len(idx))
	let := make([]float64, len(idx))
	for k, i := range idx {
		edep[k] = b.hits[i].EdepMeV
		let[k] = b.hits[i].LETMeVPerMM
	}
	xs, ys := analysis.PositivePairs(edep, let)
	b.report.CorrelationPoints = len(xs)
	if len(xs) == 0 {
		return &Panel{Plot: p}, nil
	}

	hb, err := NewHexBin(xs, ys, b.params.HexbinGridsize, ylOrRd())
	if err != nil {
		return nil, err
	}
	hb.Invert = true
	p.Add(hb)
	b.report.HexbinCells = hb.Cells()
	monitoring.Stagef("renderer", "correlation: %d pairs in %d hexagons", hb.Total(), hb.Cells())

	grid, ok := analysis.EstimateDensity2D(xs, ys, b.params.KDEGrid)
	if ok {
		var levels []float64
		levels, ok = analysis.ContourLevels(grid, contourPercentiles)
		if ok {
			c := plotter.NewContour(densityGrid{grid}, levels, solidPalette{b.style.Navy})
			c.LineStyles = []draw.LineStyle{{Color: withAlpha(b.style.Navy, 0.7), Width: vg.Points(0.8)}}
			p.Add(c)
		}
	}
	b.report.DensityOK = ok
	if !ok {
		monitoring.Stagef("renderer", "density estimate unavailable, drawing hexbin only")
	}
	return &Panel{Plot: p}, nil
}
