package figure

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/cr39.report/internal/config"
	"github.com/banshee-data/cr39.report/internal/fsutil"
	"github.com/banshee-data/cr39.report/internal/testutil"
	"github.com/banshee-data/cr39.report/internal/tracks"
)

// smallStyle keeps rasterisation cheap in tests.
func smallStyle() Style {
	s := DefaultStyle()
	s.Width, s.Height = 7*vg.Inch, 5*vg.Inch
	s.DPI = 40
	return s
}

func defaultParams(t *testing.T) Params {
	t.Helper()
	return ParamsFromConfig(config.EmptyAnalysisConfig())
}

func TestParamsFromConfig_Defaults(t *testing.T) {
	p := ParamsFromConfig(config.EmptyAnalysisConfig())
	assert.Equal(t, Params{
		EnergyBins:     120,
		LETBins:        100,
		LengthBins:     100,
		SpotBins:       80,
		RadialEdges:    60,
		WindowFloorMM:  8,
		WindowQuantile: 0.995,
		SubsampleSize:  8000,
		SubsampleSeed:  1,
		KDEGrid:        80,
		HexbinGridsize: 50,
	}, p)
}

func TestSuptitle(t *testing.T) {
	title := Suptitle(50000)
	assert.Contains(t, title, "2.5 MeV protons")
	assert.Contains(t, title, "3 cm")
	assert.Contains(t, title, "1.31 g/cm³")
	assert.Contains(t, title, "0.5 mm")
	assert.Contains(t, title, "N_events = 50,000")
}

func TestBuild_Synthetic(t *testing.T) {
	testutil.MuteLogs(t)
	tbl := tracks.Synthesize(4000, 42)

	fig, rep := Build(tbl.Hits(), tbl.Len(), defaultParams(t), smallStyle())
	require.Len(t, fig.Panels, 6)

	names := make([]string, len(fig.Panels))
	for i, p := range fig.Panels {
		names[i] = p.Name
		assert.NotNil(t, p.Plot)
	}
	assert.Equal(t, []string{"energy", "let", "length", "beamspot", "radial", "correlation"}, names)
	assert.NotNil(t, fig.Panels[3].ColorBar, "beam spot should carry a colour bar")

	assert.Empty(t, rep.FailedPanels)
	assert.Equal(t, 8.0, rep.WindowHalfWidthMM, "standard-normal spot stays inside the 8 mm floor")
	assert.Equal(t, len(tbl.Hits()), rep.SubsampleSize)
	assert.Equal(t, rep.SubsampleSize, rep.CorrelationPoints)
	assert.Greater(t, rep.HexbinCells, 1)
	require.True(t, rep.FitOK)
	assert.InDelta(t, 1.0, rep.Fit.Sigma, 0.25)
	assert.True(t, rep.DensityOK)
}

func TestBuild_SubsampleCapped(t *testing.T) {
	testutil.MuteLogs(t)
	tbl := tracks.Synthesize(3000, 7)
	params := defaultParams(t)
	params.SubsampleSize = 500

	_, rep := Build(tbl.Hits(), tbl.Len(), params, smallStyle())
	assert.Equal(t, 500, rep.SubsampleSize)
}

func TestBuild_NoHits(t *testing.T) {
	testutil.MuteLogs(t)

	fig, rep := Build(nil, 0, defaultParams(t), smallStyle())
	require.Len(t, fig.Panels, 6)
	assert.False(t, rep.FitOK)
	assert.False(t, rep.DensityOK)
	assert.Zero(t, rep.SubsampleSize)
	assert.Zero(t, rep.HexbinCells)
	assert.Equal(t, 8.0, rep.WindowHalfWidthMM)

	fsys := fsutil.NewMemoryFileSystem()
	paths, err := fig.Save(fsys, "out", "empty")
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestBuild_WideBeamWidensWindow(t *testing.T) {
	testutil.MuteLogs(t)
	hits := make(tracks.Events, 200)
	for i := range hits {
		x := float64(i%40) - 20 // |x| up to 20 mm
		hits[i] = tracks.Event{EventID: int64(i), EdepMeV: 2.3, TrackLenMM: 0.47, LETMeVPerMM: 4.9,
			EntryXMM: x, EntryYMM: 0, Hit: true}
	}
	_, rep := Build(hits, len(hits), defaultParams(t), smallStyle())
	assert.Greater(t, rep.WindowHalfWidthMM, 8.0)
	assert.LessOrEqual(t, rep.WindowHalfWidthMM, 20.0)
}

func TestSave_WritesPDFAndPNG(t *testing.T) {
	testutil.MuteLogs(t)
	tbl := tracks.Synthesize(2000, 42)
	fig, _ := Build(tbl.Hits(), tbl.Len(), defaultParams(t), smallStyle())

	fsys := fsutil.NewMemoryFileSystem()
	paths, err := fig.Save(fsys, "results", "cr39_proton_analysis")
	require.NoError(t, err)

	wantPDF := filepath.Join("results", "cr39_proton_analysis.pdf")
	wantPNG := filepath.Join("results", "cr39_proton_analysis.png")
	assert.Equal(t, []string{wantPDF, wantPNG}, paths)

	pdf, ok := fsys.Bytes(wantPDF)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "pdf header")

	png, ok := fsys.Bytes(wantPNG)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "png header")
}

func TestSave_ReadOnly(t *testing.T) {
	testutil.MuteLogs(t)
	tbl := tracks.Synthesize(500, 42)
	fig, _ := Build(tbl.Hits(), tbl.Len(), defaultParams(t), smallStyle())

	fsys := fsutil.NewMemoryFileSystem()
	fsys.SetReadOnly(true)
	_, err := fig.Save(fsys, "out", "fig")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fsutil.ErrReadOnly))
}

func TestDraw_PanicIsContained(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	tbl := tracks.Synthesize(500, 42)
	fig, _ := Build(tbl.Hits(), tbl.Len(), defaultParams(t), smallStyle())
	fig.Panels[1].Plot.Add(panicPlotter{})

	fsys := fsutil.NewMemoryFileSystem()
	_, err := fig.Save(fsys, ".", "fig")
	require.NoError(t, err)

	found := false
	for _, l := range logs.Lines() {
		if strings.Contains(l, "panel let failed to draw") {
			found = true
		}
	}
	assert.True(t, found, "logs: %q", logs.Lines())
}

func TestBuild_LogsHexbinOccupancy(t *testing.T) {
	logs := testutil.CaptureLogs(t)
	hits := tracks.Events{
		{EdepMeV: 2.3, LETMeVPerMM: 4.9, Hit: true},
		{EdepMeV: 2.3, LETMeVPerMM: 4.9, Hit: true},
		{EdepMeV: 2.3, LETMeVPerMM: 4.9, Hit: true},
	}
	_, rep := Build(hits, len(hits), defaultParams(t), smallStyle())

	assert.Equal(t, 1, rep.HexbinCells)
	assert.True(t, logs.Contains("[renderer] correlation: 3 pairs in 1 hexagons"), "logs: %q", logs.Lines())
}

func TestBuildPanel(t *testing.T) {
	ok := &Panel{Plot: smallStyle().newPlot("ok", "", "")}

	tests := []struct {
		name    string
		build   func() (*Panel, error)
		want    *Panel
		wantErr string
	}{
		{"success", func() (*Panel, error) { return ok, nil }, ok, ""},
		{"error", func() (*Panel, error) { return nil, errors.New("no data") }, nil, "no data"},
		{"panic", func() (*Panel, error) { panic("index out of range") }, nil, "panic: index out of range"},
		{"nil panel", func() (*Panel, error) { return nil, nil }, nil, "no panel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := buildPanel(tt.build)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.want, p)
		})
	}
}
