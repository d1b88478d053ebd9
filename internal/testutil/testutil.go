// Package testutil provides shared test helpers and fixtures.
//
// This package centralises the log muting and event-table fixtures used by
// the tracks, figure and archive tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/cr39.report/internal/monitoring"
)

// NtupleHeader is the comment block Geant4's wcsv ntuple writer puts at the
// top of the event table.
const NtupleHeader = `#class tools::wcsv::ntuple
#title CR39
#separator 44
#vector_separator 59
#column int EventID
#column double Edep_MeV
#column double TrackLen_mm
#column double LET_MeV_mm
#column double EntryX_mm
#column double EntryY_mm
#column int Hit
`

// EventRow formats one positional event row, without a trailing newline.
func EventRow(id int, edep, length, let, x, y float64, hit int) string {
	return fmt.Sprintf("%d,%g,%g,%g,%g,%g,%d", id, edep, length, let, x, y, hit)
}

// EventTable joins rows into an ntuple document, one row per line.
func EventTable(rows ...string) []byte {
	var b strings.Builder
	b.WriteString(NtupleHeader)
	for _, r := range rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// MuteLogs silences monitoring output until the test ends.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// LogRecorder collects formatted log lines.
type LogRecorder struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the recorded lines.
func (r *LogRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Contains reports whether any recorded line contains substr.
func (r *LogRecorder) Contains(substr string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// CaptureLogs routes monitoring output into a recorder until the test ends.
func CaptureLogs(t testing.TB) *LogRecorder {
	t.Helper()
	rec := &LogRecorder{}
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.lines = append(rec.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return rec
}
