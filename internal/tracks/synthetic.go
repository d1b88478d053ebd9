package tracks

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic beam parameters: 2.5 MeV protons mostly stopping in 0.5 mm CR-39.
const (
	syntheticMissFraction = 0.02
	syntheticEdepMean     = 2.35 // MeV
	syntheticEdepSigma    = 0.08
	syntheticLenMean      = 0.47 // mm
	syntheticLenSigma     = 0.02
	syntheticSpotSigma    = 1.0 // mm, pencil beam divergence
)

// Synthesize generates n demo events from a fixed seed. About 2% of events
// are misses with zero energy and length. Each column is drawn in full before
// the next so the table depends only on n and seed.
func Synthesize(n int, seed int64) *Table {
	if n < 0 {
		n = 0
	}
	src := rand.NewPCG(uint64(seed), uint64(seed))

	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}
	edepDist := distuv.Normal{Mu: syntheticEdepMean, Sigma: syntheticEdepSigma, Src: src}
	lenDist := distuv.Normal{Mu: syntheticLenMean, Sigma: syntheticLenSigma, Src: src}
	spotDist := distuv.Normal{Mu: 0, Sigma: syntheticSpotSigma, Src: src}

	events := make(Events, n)
	for i := range events {
		events[i].EventID = int64(i)
		events[i].Hit = unif.Rand() > syntheticMissFraction
	}
	for i := range events {
		e := edepDist.Rand()
		if events[i].Hit {
			events[i].EdepMeV = e
		}
	}
	for i := range events {
		l := lenDist.Rand()
		if events[i].Hit {
			events[i].TrackLenMM = l
		}
	}
	for i := range events {
		if l := events[i].TrackLenMM; l > 0 {
			events[i].LETMeVPerMM = events[i].EdepMeV / l
		}
	}
	for i := range events {
		events[i].EntryXMM = spotDist.Rand()
	}
	for i := range events {
		events[i].EntryYMM = spotDist.Rand()
	}

	return &Table{Events: events, Source: SourceSynthetic}
}
