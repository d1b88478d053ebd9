// Package tracks loads and summarises per-event proton track records produced
// by the CR-39 detector simulation.
package tracks

// Column names written by the simulation's run action, in positional order.
const (
	ColEventID  = "EventID"
	ColEdep     = "Edep_MeV"
	ColTrackLen = "TrackLen_mm"
	ColLET      = "LET_MeV_mm"
	ColEntryX   = "EntryX_mm"
	ColEntryY   = "EntryY_mm"
	ColHit      = "Hit"
)

// Columns lists the recognised columns in their positional order.
var Columns = []string{ColEventID, ColEdep, ColTrackLen, ColLET, ColEntryX, ColEntryY, ColHit}

// SourceSynthetic is the Table.Source of generated data.
const SourceSynthetic = "synthetic"

// Event is one simulated primary proton.
type Event struct {
	EventID     int64
	EdepMeV     float64 // deposited energy
	TrackLenMM  float64 // path length inside the detector
	LETMeVPerMM float64 // Edep/TrackLen, computed upstream
	EntryXMM    float64
	EntryYMM    float64
	Hit         bool // registered in the detector volume
}

// Events is an ordered collection of event records. Every analysis over it is
// order-independent.
type Events []Event

// Edep returns the deposited energies in MeV.
func (es Events) Edep() []float64 {
	return es.column(func(e Event) float64 { return e.EdepMeV })
}

// TrackLen returns the track lengths in mm.
func (es Events) TrackLen() []float64 {
	return es.column(func(e Event) float64 { return e.TrackLenMM })
}

// LET returns the linear energy transfer values in MeV/mm.
func (es Events) LET() []float64 {
	return es.column(func(e Event) float64 { return e.LETMeVPerMM })
}

// EntryX returns the entry x coordinates in mm.
func (es Events) EntryX() []float64 {
	return es.column(func(e Event) float64 { return e.EntryXMM })
}

// EntryY returns the entry y coordinates in mm.
func (es Events) EntryY() []float64 {
	return es.column(func(e Event) float64 { return e.EntryYMM })
}

func (es Events) column(f func(Event) float64) []float64 {
	out := make([]float64, len(es))
	for i, e := range es {
		out[i] = f(e)
	}
	return out
}

// Table is the loaded event collection and where it came from.
type Table struct {
	Events  Events
	Source  string // input path, or SourceSynthetic
	Skipped int    // malformed rows dropped while parsing
}

// Len returns the total number of events.
func (t *Table) Len() int {
	return len(t.Events)
}

// Synthetic reports whether the table was generated rather than read.
func (t *Table) Synthetic() bool {
	return t.Source == SourceSynthetic
}

// Hits returns exactly the events whose hit flag is set.
func (t *Table) Hits() Events {
	hits := make(Events, 0, len(t.Events))
	for _, e := range t.Events {
		if e.Hit {
			hits = append(hits, e)
		}
	}
	return hits
}
