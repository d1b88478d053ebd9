package tracks

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/cr39.report/internal/units"
)

// Summary holds the descriptive statistics of a table's hit subset.
// Statistics over an empty subset are NaN and render as "n/a".
type Summary struct {
	Total          int
	Hits           int
	HitFractionPct float64

	MeanEdepMeV     float64
	StdEdepMeV      float64 // sample standard deviation
	MeanLETMeVPerMM float64
	MeanTrackLenMM  float64
}

// Summarize computes the hit statistics of t.
func Summarize(t *Table) Summary {
	hits := t.Hits()
	s := Summary{
		Total:           t.Len(),
		Hits:            len(hits),
		MeanEdepMeV:     math.NaN(),
		StdEdepMeV:      math.NaN(),
		MeanLETMeVPerMM: math.NaN(),
		MeanTrackLenMM:  math.NaN(),
	}
	if s.Total > 0 {
		s.HitFractionPct = 100 * float64(s.Hits) / float64(s.Total)
	}
	if s.Hits == 0 {
		return s
	}

	s.MeanEdepMeV, s.StdEdepMeV = stat.MeanStdDev(hits.Edep(), nil)
	s.MeanLETMeVPerMM = stat.Mean(hits.LET(), nil)
	s.MeanTrackLenMM = stat.Mean(hits.TrackLen(), nil)
	return s
}

// HasHits reports whether any hit statistics are available.
func (s Summary) HasHits() bool {
	return s.Hits > 0
}

// Render writes the summary as a console table. Mean LET is shown in MeV/mm
// and, unless letUnit is MeV/mm itself, converted to letUnit.
func (s Summary) Render(w io.Writer, letUnit string) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Quantity", "Value"})

	tw.AppendRow(table.Row{"Events", fmt.Sprintf("%d", s.Total)})
	tw.AppendRow(table.Row{"Hits in CR-39", fmt.Sprintf("%d  (%.1f %%)", s.Hits, s.HitFractionPct)})
	tw.AppendRow(table.Row{"Mean Edep", formatMeanStd(s.MeanEdepMeV, s.StdEdepMeV, "MeV")})
	tw.AppendRow(table.Row{"Mean LET", formatValue(s.MeanLETMeVPerMM, "%.3f MeV/mm")})
	if letUnit != units.MeVPerMM {
		tw.AppendRow(table.Row{"Mean LET (" + letUnit + ")", formatValue(
			units.ConvertLET(s.MeanLETMeVPerMM, letUnit), letFormat(letUnit))})
	}
	tw.AppendRow(table.Row{"Mean track length", formatValue(s.MeanTrackLenMM, "%.4f mm")})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func letFormat(unit string) string {
	if unit == units.MeVCM2PerG {
		return "%.1f " + unit
	}
	return "%.3f " + unit
}

func formatValue(v float64, format string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf(format, v)
}

func formatMeanStd(mean, std float64, unit string) string {
	if math.IsNaN(mean) {
		return "n/a"
	}
	if math.IsNaN(std) {
		return fmt.Sprintf("%.3f %s", mean, unit)
	}
	return fmt.Sprintf("%.3f +/- %.3f %s", mean, std, unit)
}
