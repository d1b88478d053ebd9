package archive

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cr39.report/internal/testutil"
	"github.com/banshee-data/cr39.report/internal/timeutil"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	testutil.MuteLogs(t)

	a, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_AppliesMigrations(t *testing.T) {
	a := openTestArchive(t)

	version, dirty, err := a.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestOpen_Reopen(t *testing.T) {
	testutil.MuteLogs(t)

	path := filepath.Join(t.TempDir(), "runs.db")
	a, err := Open(path)
	require.NoError(t, err)
	_, err = a.RecordRun(context.Background(), RunRecord{Source: "synthetic", ToolVersion: "dev"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := Open(path)
	require.NoError(t, err)
	defer b.Close()
	runs, err := b.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRecordRun_RoundTrip(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	sigma := 1.04
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := a.RecordRun(ctx, RunRecord{
		Source:            "cr39_output.csv",
		TotalEvents:       50000,
		Hits:              49000,
		SkippedRows:       3,
		HitFractionPct:    98.0,
		MeanEdepMeV:       2.35,
		StdEdepMeV:        0.08,
		MeanLETMeVPerMM:   5.0,
		MeanTrackLenMM:    0.47,
		WindowHalfWidthMM: 8,
		FitSigmaMM:        &sigma,
		DensityOK:         true,
		ToolVersion:       "1.2.3",
		CreatedAt:         created,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "run id should be a UUID")

	runs, err := a.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, id, got.RunID)
	assert.Equal(t, "cr39_output.csv", got.Source)
	assert.Equal(t, 50000, got.TotalEvents)
	assert.Equal(t, 49000, got.Hits)
	assert.Equal(t, 3, got.SkippedRows)
	assert.InDelta(t, 2.35, got.MeanEdepMeV, 1e-12)
	require.NotNil(t, got.FitSigmaMM)
	assert.InDelta(t, 1.04, *got.FitSigmaMM, 1e-12)
	assert.True(t, got.DensityOK)
	assert.Equal(t, "1.2.3", got.ToolVersion)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestRecordRun_UnavailableStatistics(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	_, err := a.RecordRun(ctx, RunRecord{
		Source:          "synthetic",
		MeanEdepMeV:     math.NaN(),
		StdEdepMeV:      math.NaN(),
		MeanLETMeVPerMM: math.NaN(),
		MeanTrackLenMM:  math.Inf(1),
		ToolVersion:     "dev",
	})
	require.NoError(t, err)

	runs, err := a.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, math.IsNaN(runs[0].MeanEdepMeV))
	assert.True(t, math.IsNaN(runs[0].StdEdepMeV))
	assert.True(t, math.IsNaN(runs[0].MeanTrackLenMM))
	assert.Nil(t, runs[0].FitSigmaMM)
	assert.False(t, runs[0].DensityOK)
}

func TestListRuns_NewestFirst(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := a.RecordRun(ctx, RunRecord{
			Source:      "synthetic",
			TotalEvents: i,
			ToolVersion: "dev",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := a.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[4], runs[0].RunID)
	assert.Equal(t, ids[3], runs[1].RunID)
	assert.Equal(t, ids[2], runs[2].RunID)

	all, err := a.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRecordRun_DefaultsTimestamp(t *testing.T) {
	a := openTestArchive(t)
	fixed := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	a.clock = timeutil.NewMockClock(fixed)

	_, err := a.RecordRun(context.Background(), RunRecord{Source: "synthetic", ToolVersion: "dev"})
	require.NoError(t, err)

	runs, err := a.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, fixed.Equal(runs[0].CreatedAt))
}

func TestRecordRun_DuplicateID(t *testing.T) {
	a := openTestArchive(t)
	ctx := context.Background()

	rec := RunRecord{RunID: uuid.NewString(), Source: "synthetic", ToolVersion: "dev"}
	_, err := a.RecordRun(ctx, rec)
	require.NoError(t, err)
	_, err = a.RecordRun(ctx, rec)
	assert.Error(t, err)
}
