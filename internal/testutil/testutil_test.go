package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/banshee-data/cr39.report/internal/monitoring"
)

func TestEventRow(t *testing.T) {
	got := EventRow(3, 2.35, 0.47, 5, -0.5, 1.25, 1)
	if got != "3,2.35,0.47,5,-0.5,1.25,1" {
		t.Errorf("EventRow = %q", got)
	}
}

func TestEventTable(t *testing.T) {
	doc := EventTable("0,1,1,1,0,0,1", "1,0,0,0,0,0,0")
	if !bytes.HasPrefix(doc, []byte("#class tools::wcsv::ntuple\n")) {
		t.Error("table should start with the ntuple header")
	}
	lines := strings.Split(strings.TrimSpace(string(doc)), "\n")
	if got := lines[len(lines)-1]; got != "1,0,0,0,0,0,0" {
		t.Errorf("last line = %q", got)
	}
}

func TestCaptureLogs(t *testing.T) {
	rec := CaptureLogs(t)
	monitoring.Stagef("loader", "read %d events", 12)

	lines := rec.Lines()
	if len(lines) != 1 || lines[0] != "[loader] read 12 events" {
		t.Errorf("captured lines = %q", lines)
	}
	if !rec.Contains("12 events") {
		t.Error("Contains should find a recorded substring")
	}
	if rec.Contains("renderer") {
		t.Error("Contains should not match an absent substring")
	}
}

func TestMuteLogs_Restores(t *testing.T) {
	var called bool
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	monitoring.SetLogger(func(string, ...interface{}) { called = true })

	t.Run("muted", func(t *testing.T) {
		MuteLogs(t)
		monitoring.Logf("hidden")
	})
	if called {
		t.Fatal("MuteLogs should silence output inside the subtest")
	}

	monitoring.Logf("visible")
	if !called {
		t.Error("logger should be restored after the subtest")
	}
}
