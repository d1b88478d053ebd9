// Command cr39-analysis reads a Geant4 CR-39 event table, prints its hit
// statistics and writes the six-panel proton analysis figure.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/cr39.report/internal/archive"
	"github.com/banshee-data/cr39.report/internal/config"
	"github.com/banshee-data/cr39.report/internal/figure"
	"github.com/banshee-data/cr39.report/internal/fsutil"
	"github.com/banshee-data/cr39.report/internal/monitoring"
	"github.com/banshee-data/cr39.report/internal/timeutil"
	"github.com/banshee-data/cr39.report/internal/tracks"
	"github.com/banshee-data/cr39.report/internal/version"
)

var (
	inputPath   = flag.String("input", "", "Event table CSV (default cr39_output.csv; synthetic data when missing)")
	outputDir   = flag.String("output-dir", "", "Directory for the PDF and PNG figures (default: working directory)")
	configPath  = flag.String("config", "", "Path to a JSON analysis config (default: built-in defaults)")
	archivePath = flag.String("archive", "", "SQLite run archive; empty disables archiving")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var clock timeutil.Clock = timeutil.RealClock{}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("cr39-analysis", version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg, *inputPath, *outputDir, *archivePath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	if err := run(context.Background(), cfg, fsutil.OSFileSystem{}, os.Stdout); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path == "" {
		return config.DefaultAnalysisConfig(), nil
	}
	return config.LoadAnalysisConfig(path)
}

// applyFlags overrides config values with the flags that were given.
func applyFlags(cfg *config.AnalysisConfig, input, outDir, archivePath string) {
	if input != "" {
		cfg.InputPath = &input
	}
	if outDir != "" {
		cfg.OutputDir = &outDir
	}
	if archivePath != "" {
		cfg.ArchivePath = &archivePath
	}
}

// run is the whole pipeline: load, summarise, render, and optionally archive.
func run(ctx context.Context, cfg *config.AnalysisConfig, fsys fsutil.FileSystem, stdout io.Writer) error {
	start := clock.Now()
	defer func() {
		monitoring.Stagef("main", "finished in %s", clock.Since(start).Round(time.Millisecond))
	}()

	table, err := tracks.Load(fsys, cfg.GetInputPath(), tracks.LoadOptions{
		SyntheticEvents: cfg.GetSyntheticEvents(),
		SyntheticSeed:   cfg.GetSyntheticSeed(),
	})
	if err != nil {
		return err
	}

	if table.Synthetic() {
		monitoring.Stagef("main", "no event table, reporting synthetic data")
	}

	summary := tracks.Summarize(table)
	if err := summary.Render(stdout, cfg.GetLETUnit()); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	if !summary.HasHits() {
		monitoring.Stagef("main", "no events reached the CR-39; statistics and panels are empty")
	}

	style := figure.DefaultStyle()
	style.DPI = cfg.GetDPI()
	fig, report := figure.Build(table.Hits(), table.Len(), figure.ParamsFromConfig(cfg), style)
	if _, err := fig.Save(fsys, cfg.GetOutputDir(), cfg.GetOutputBase()); err != nil {
		return err
	}

	if cfg.GetArchivePath() == "" {
		return nil
	}
	return archiveRun(ctx, cfg.GetArchivePath(), table, summary, report)
}

func archiveRun(ctx context.Context, path string, table *tracks.Table, s tracks.Summary, rep figure.Report) error {
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.RecordRun(ctx, newRunRecord(table, s, rep))
	if err != nil {
		return err
	}
	monitoring.Stagef("archive", "recorded run %s", id)
	return nil
}

func newRunRecord(table *tracks.Table, s tracks.Summary, rep figure.Report) archive.RunRecord {
	rec := archive.RunRecord{
		Source:            table.Source,
		TotalEvents:       s.Total,
		Hits:              s.Hits,
		SkippedRows:       table.Skipped,
		HitFractionPct:    s.HitFractionPct,
		MeanEdepMeV:       s.MeanEdepMeV,
		StdEdepMeV:        s.StdEdepMeV,
		MeanLETMeVPerMM:   s.MeanLETMeVPerMM,
		MeanTrackLenMM:    s.MeanTrackLenMM,
		WindowHalfWidthMM: rep.WindowHalfWidthMM,
		DensityOK:         rep.DensityOK,
		ToolVersion:       version.Version,
	}
	if rep.FitOK {
		sigma := rep.Fit.Sigma
		rec.FitSigmaMM = &sigma
	}
	return rec
}
