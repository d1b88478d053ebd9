// Package units provides shared constants and conversions for LET units
package units

// CR39DensityGCM3 is the density of CR-39 (allyl diglycol carbonate) in g/cm³.
const CR39DensityGCM3 = 1.31

// LET unit constants
const (
	MeVPerMM   = "MeV/mm"
	KeVPerUM   = "keV/um"
	MeVPerCM   = "MeV/cm"
	MeVCM2PerG = "MeV cm2/g" // mass stopping power in CR-39
)

// ValidUnits contains all valid LET unit values
var ValidUnits = []string{MeVPerMM, KeVPerUM, MeVPerCM, MeVCM2PerG}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ConvertLET converts a linear energy transfer from MeV/mm to the target units.
// Event tables store LET in MeV/mm.
func ConvertLET(letMeVPerMM float64, targetUnits string) float64 {
	switch targetUnits {
	case KeVPerUM:
		return letMeVPerMM // 1 MeV/mm == 1 keV/um
	case MeVPerCM:
		return letMeVPerMM * 10
	case MeVCM2PerG:
		return letMeVPerMM * 10 / CR39DensityGCM3
	default:
		return letMeVPerMM
	}
}
