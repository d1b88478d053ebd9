package tracks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/cr39.report/internal/fsutil"
	"github.com/banshee-data/cr39.report/internal/monitoring"
)

// LoadOptions controls the synthetic fallback used when the input is absent.
type LoadOptions struct {
	SyntheticEvents int
	SyntheticSeed   int64
}

// Load reads the event table at path. A missing file is not an error: a
// deterministic synthetic table is generated instead. Any other failure to
// open or read an existing file is returned.
func Load(fsys fsutil.FileSystem, path string, opts LoadOptions) (*Table, error) {
	if !fsys.Exists(path) {
		monitoring.Stagef("loader", "%s not found, generating %d synthetic events (seed %d)",
			path, opts.SyntheticEvents, opts.SyntheticSeed)
		t := Synthesize(opts.SyntheticEvents, opts.SyntheticSeed)
		monitoring.Stagef("loader", "loaded %d events", t.Len())
		return t, nil
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event table: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read event table %s: %w", path, err)
	}
	t.Source = path

	monitoring.Stagef("loader", "loaded %d events from %s (%d malformed rows skipped)",
		t.Len(), path, t.Skipped)
	return t, nil
}

// ReadCSV parses a Geant4 wcsv ntuple style table. Lines starting with '#'
// are comments. An optional header row selects columns by name; otherwise the
// seven columns are positional. A first line naming only some of the columns
// is skipped like any other malformed line. Rows with the wrong number of fields, broken
// quoting or an unparseable numeric field are skipped and counted. A hit flag
// that does not parse is treated as "not hit".
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	t := &Table{}
	var idx columnIndex
	first := true

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				t.Skipped++
				continue
			}
			return nil, err
		}

		if first {
			first = false
			named, kind := headerIndex(rec)
			switch kind {
			case fullHeader:
				idx = named
				continue
			case partialHeader:
				idx = positionalIndex()
				t.Skipped++
				continue
			}
			idx = positionalIndex()
		}

		ev, ok := idx.parse(rec)
		if !ok {
			t.Skipped++
			continue
		}
		t.Events = append(t.Events, ev)
	}
	return t, nil
}

// columnIndex maps each recognised column to its field position in a row.
type columnIndex struct {
	pos    [7]int
	fields int
}

func positionalIndex() columnIndex {
	return columnIndex{pos: [7]int{0, 1, 2, 3, 4, 5, 6}, fields: len(Columns)}
}

type headerKind int

const (
	noHeader headerKind = iota
	partialHeader
	fullHeader
)

// headerIndex classifies the first row. Only a row naming all seven columns
// selects columns by name; a row naming some of them is treated as a stray
// line and the table falls back to positional columns.
func headerIndex(rec []string) (columnIndex, headerKind) {
	lookup := make(map[string]int, len(rec))
	for i, name := range rec {
		lookup[strings.ToLower(strings.TrimSpace(name))] = i
	}

	idx := columnIndex{fields: len(rec)}
	found := 0
	for c, name := range Columns {
		i, ok := lookup[strings.ToLower(name)]
		if !ok {
			continue
		}
		idx.pos[c] = i
		found++
	}

	switch found {
	case 0:
		return columnIndex{}, noHeader
	case len(Columns):
		return idx, fullHeader
	default:
		return columnIndex{}, partialHeader
	}
}

func (ci columnIndex) parse(rec []string) (Event, bool) {
	if len(rec) != ci.fields {
		return Event{}, false
	}

	var vals [6]float64
	for c := 0; c < 6; c++ {
		v, ok := parseNumber(rec[ci.pos[c]])
		if !ok {
			return Event{}, false
		}
		vals[c] = v
	}

	hitVal, ok := parseNumber(rec[ci.pos[6]])
	hit := ok && hitVal == 1

	return Event{
		EventID:     int64(vals[0]),
		EdepMeV:     vals[1],
		TrackLenMM:  vals[2],
		LETMeVPerMM: vals[3],
		EntryXMM:    vals[4],
		EntryYMM:    vals[5],
		Hit:         hit,
	}, true
}

// parseNumber treats empty fields and NaN as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
