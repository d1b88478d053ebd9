package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/cr39.report/internal/security"
	"github.com/banshee-data/cr39.report/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the constants of the CR-39 analysis pipeline.
// Every field is optional; a nil field falls back to the built-in default
// returned by its Get* accessor, so an empty config reproduces the fixed
// figure exactly.
type AnalysisConfig struct {
	// Input/output
	InputPath   *string `json:"input_path,omitempty"`
	OutputDir   *string `json:"output_dir,omitempty"`
	OutputBase  *string `json:"output_base,omitempty"` // file name without extension
	ArchivePath *string `json:"archive_path,omitempty"` // empty disables the run archive

	// Synthetic fallback
	SyntheticEvents *int   `json:"synthetic_events,omitempty"`
	SyntheticSeed   *int64 `json:"synthetic_seed,omitempty"`

	// Correlation panel sampling
	SubsampleSeed *int64 `json:"subsample_seed,omitempty"`
	SubsampleSize *int   `json:"subsample_size,omitempty"`

	// Binning
	EnergyBins     *int `json:"energy_bins,omitempty"`
	LETBins        *int `json:"let_bins,omitempty"`
	LengthBins     *int `json:"length_bins,omitempty"`
	SpotBins       *int `json:"spot_bins,omitempty"`
	RadialEdges    *int `json:"radial_edges,omitempty"`
	KDEGrid        *int `json:"kde_grid,omitempty"`
	HexbinGridsize *int `json:"hexbin_gridsize,omitempty"`

	// Beam-spot window
	WindowFloorMM  *float64 `json:"window_floor_mm,omitempty"`
	WindowQuantile *float64 `json:"window_quantile,omitempty"`

	DPI *int `json:"dpi,omitempty"`

	// Summary
	LETUnit *string `json:"let_unit,omitempty"` // unit of the converted mean LET row
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field explicitly set to
// its built-in default.
func DefaultAnalysisConfig() *AnalysisConfig {
	e := EmptyAnalysisConfig()
	return &AnalysisConfig{
		InputPath:       ptrString(e.GetInputPath()),
		OutputDir:       ptrString(e.GetOutputDir()),
		OutputBase:      ptrString(e.GetOutputBase()),
		ArchivePath:     ptrString(e.GetArchivePath()),
		SyntheticEvents: ptrInt(e.GetSyntheticEvents()),
		SyntheticSeed:   ptrInt64(e.GetSyntheticSeed()),
		SubsampleSeed:   ptrInt64(e.GetSubsampleSeed()),
		SubsampleSize:   ptrInt(e.GetSubsampleSize()),
		EnergyBins:      ptrInt(e.GetEnergyBins()),
		LETBins:         ptrInt(e.GetLETBins()),
		LengthBins:      ptrInt(e.GetLengthBins()),
		SpotBins:        ptrInt(e.GetSpotBins()),
		RadialEdges:     ptrInt(e.GetRadialEdges()),
		KDEGrid:         ptrInt(e.GetKDEGrid()),
		HexbinGridsize:  ptrInt(e.GetHexbinGridsize()),
		WindowFloorMM:   ptrFloat64(e.GetWindowFloorMM()),
		WindowQuantile:  ptrFloat64(e.GetWindowQuantile()),
		DPI:             ptrInt(e.GetDPI()),
		LETUnit:         ptrString(e.GetLETUnit()),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields keep
// their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that set values are usable.
func (c *AnalysisConfig) Validate() error {
	positive := []struct {
		name string
		v    *int
	}{
		{"synthetic_events", c.SyntheticEvents},
		{"subsample_size", c.SubsampleSize},
		{"energy_bins", c.EnergyBins},
		{"let_bins", c.LETBins},
		{"length_bins", c.LengthBins},
		{"spot_bins", c.SpotBins},
		{"kde_grid", c.KDEGrid},
		{"hexbin_gridsize", c.HexbinGridsize},
		{"dpi", c.DPI},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, *p.v)
		}
	}

	if c.RadialEdges != nil && *c.RadialEdges < 2 {
		return fmt.Errorf("radial_edges must be at least 2, got %d", *c.RadialEdges)
	}
	if c.KDEGrid != nil && *c.KDEGrid < 2 {
		return fmt.Errorf("kde_grid must be at least 2, got %d", *c.KDEGrid)
	}
	if c.WindowFloorMM != nil && *c.WindowFloorMM <= 0 {
		return fmt.Errorf("window_floor_mm must be positive, got %f", *c.WindowFloorMM)
	}
	if c.WindowQuantile != nil {
		if q := *c.WindowQuantile; q <= 0 || q > 1 {
			return fmt.Errorf("window_quantile must be in (0, 1], got %f", q)
		}
	}
	if c.LETUnit != nil && !units.IsValid(*c.LETUnit) {
		return fmt.Errorf("let_unit must be one of %v, got %q", units.ValidUnits, *c.LETUnit)
	}
	if c.OutputBase != nil {
		if err := security.ValidateBaseName(*c.OutputBase); err != nil {
			return fmt.Errorf("output_base: %w", err)
		}
	}
	return nil
}

// GetInputPath returns the event table path or the default.
func (c *AnalysisConfig) GetInputPath() string {
	if c.InputPath == nil || *c.InputPath == "" {
		return "cr39_output.csv"
	}
	return *c.InputPath
}

// GetOutputDir returns the figure output directory or the default.
func (c *AnalysisConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "."
	}
	return *c.OutputDir
}

// GetOutputBase returns the figure base name or the default.
func (c *AnalysisConfig) GetOutputBase() string {
	if c.OutputBase == nil || *c.OutputBase == "" {
		return "cr39_proton_analysis"
	}
	return *c.OutputBase
}

// GetArchivePath returns the archive database path; empty means disabled.
func (c *AnalysisConfig) GetArchivePath() string {
	if c.ArchivePath == nil {
		return ""
	}
	return *c.ArchivePath
}

func (c *AnalysisConfig) GetSyntheticEvents() int {
	if c.SyntheticEvents == nil {
		return 50000
	}
	return *c.SyntheticEvents
}

func (c *AnalysisConfig) GetSyntheticSeed() int64 {
	if c.SyntheticSeed == nil {
		return 42
	}
	return *c.SyntheticSeed
}

func (c *AnalysisConfig) GetSubsampleSeed() int64 {
	if c.SubsampleSeed == nil {
		return 1
	}
	return *c.SubsampleSeed
}

func (c *AnalysisConfig) GetSubsampleSize() int {
	if c.SubsampleSize == nil {
		return 8000
	}
	return *c.SubsampleSize
}

func (c *AnalysisConfig) GetEnergyBins() int {
	if c.EnergyBins == nil {
		return 120
	}
	return *c.EnergyBins
}

func (c *AnalysisConfig) GetLETBins() int {
	if c.LETBins == nil {
		return 100
	}
	return *c.LETBins
}

func (c *AnalysisConfig) GetLengthBins() int {
	if c.LengthBins == nil {
		return 100
	}
	return *c.LengthBins
}

func (c *AnalysisConfig) GetSpotBins() int {
	if c.SpotBins == nil {
		return 80
	}
	return *c.SpotBins
}

// GetRadialEdges returns the number of radial bin edges; shells = edges-1.
func (c *AnalysisConfig) GetRadialEdges() int {
	if c.RadialEdges == nil {
		return 60
	}
	return *c.RadialEdges
}

func (c *AnalysisConfig) GetKDEGrid() int {
	if c.KDEGrid == nil {
		return 80
	}
	return *c.KDEGrid
}

func (c *AnalysisConfig) GetHexbinGridsize() int {
	if c.HexbinGridsize == nil {
		return 50
	}
	return *c.HexbinGridsize
}

// GetWindowFloorMM returns the minimum beam-spot half-width in mm.
func (c *AnalysisConfig) GetWindowFloorMM() float64 {
	if c.WindowFloorMM == nil {
		return 8.0
	}
	return *c.WindowFloorMM
}

// GetWindowQuantile returns the |x| quantile used to widen the window.
func (c *AnalysisConfig) GetWindowQuantile() float64 {
	if c.WindowQuantile == nil {
		return 0.995
	}
	return *c.WindowQuantile
}

func (c *AnalysisConfig) GetDPI() int {
	if c.DPI == nil {
		return 300
	}
	return *c.DPI
}

// GetLETUnit returns the unit of the converted mean LET in the summary.
func (c *AnalysisConfig) GetLETUnit() string {
	if c.LETUnit == nil || *c.LETUnit == "" {
		return units.KeVPerUM
	}
	return *c.LETUnit
}
