// Package archive keeps a SQLite record of analysis runs so results from
// different simulation batches can be compared later.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/cr39.report/internal/monitoring"
	"github.com/banshee-data/cr39.report/internal/timeutil"
)

// RunRecord is one archived analysis run. Float statistics that were not
// available are NaN; FitSigmaMM is nil when the radial fit did not converge.
type RunRecord struct {
	RunID  string
	Source string

	TotalEvents int
	Hits        int
	SkippedRows int

	HitFractionPct    float64
	MeanEdepMeV       float64
	StdEdepMeV        float64
	MeanLETMeVPerMM   float64
	MeanTrackLenMM    float64
	WindowHalfWidthMM float64
	FitSigmaMM        *float64
	DensityOK         bool

	ToolVersion string
	CreatedAt   time.Time
}

// Archive is an open run database.
type Archive struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the SQLite database at path and brings its
// schema up to date.
func Open(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure archive %s: %w", path, err)
	}

	a := &Archive{db: db, clock: timeutil.RealClock{}}
	if err := a.migrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate archive %s: %w", path, err)
	}
	monitoring.Stagef("archive", "opened %s", path)
	return a, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordRun inserts rec and returns its run ID. A fresh UUID is assigned when
// rec.RunID is empty and the current time when rec.CreatedAt is zero.
func (a *Archive) RecordRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = a.clock.Now()
	}

	var sigma sql.NullFloat64
	if rec.FitSigmaMM != nil {
		sigma = nullFloat(*rec.FitSigmaMM)
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, source, total_events, hits, skipped_rows,
			hit_fraction_pct, mean_edep_mev, std_edep_mev, mean_let_mev_mm,
			mean_track_len_mm, window_half_width_mm, fit_sigma_mm,
			density_ok, tool_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Source, rec.TotalEvents, rec.Hits, rec.SkippedRows,
		nullFloat(rec.HitFractionPct), nullFloat(rec.MeanEdepMeV), nullFloat(rec.StdEdepMeV),
		nullFloat(rec.MeanLETMeVPerMM), nullFloat(rec.MeanTrackLenMM),
		nullFloat(rec.WindowHalfWidthMM), sigma,
		rec.DensityOK, rec.ToolVersion, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run %s: %w", rec.RunID, err)
	}
	return rec.RunID, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT run_id, source, total_events, hits, skipped_rows,
			hit_fraction_pct, mean_edep_mev, std_edep_mev, mean_let_mev_mm,
			mean_track_len_mm, window_half_width_mm, fit_sigma_mm,
			density_ok, tool_version, created_at
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var frac, mean, std, let, length, window, sigma sql.NullFloat64
		var created int64
		if err := rows.Scan(
			&rec.RunID, &rec.Source, &rec.TotalEvents, &rec.Hits, &rec.SkippedRows,
			&frac, &mean, &std, &let, &length, &window, &sigma,
			&rec.DensityOK, &rec.ToolVersion, &created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.HitFractionPct = floatOrNaN(frac)
		rec.MeanEdepMeV = floatOrNaN(mean)
		rec.StdEdepMeV = floatOrNaN(std)
		rec.MeanLETMeVPerMM = floatOrNaN(let)
		rec.MeanTrackLenMM = floatOrNaN(length)
		rec.WindowHalfWidthMM = floatOrNaN(window)
		if sigma.Valid {
			v := sigma.Float64
			rec.FitSigmaMM = &v
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// nullFloat stores non-finite values as NULL; SQLite has no NaN.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
