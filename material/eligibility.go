package material

// ============================================================================
// ELIGIBILITY FILTER — Composition-Based Screening
// ============================================================================
// Pure set-membership predicate used to build filtered sub-corpora. All
// three rules are independent checks AND-combined; evaluation order does
// not matter and the filter has no side effects.
// ============================================================================

// firstFourRows is the closed allow-list: every element of periodic-table
// rows 1–4, 36 symbols H through Kr.
var firstFourRows = toSet([]string{
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni",
	"Cu", "Zn", "Ga", "Ge", "As", "Se", "Br", "Kr",
})

// nobleGases within the first four rows.
var nobleGases = toSet([]string{"He", "Ne", "Ar", "Kr"})

// earlyTransitionMetals is the excluded Sc→Ni range.
var earlyTransitionMetals = toSet([]string{
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni",
})

// IsEligible reports whether a material with the given element set passes
// the composition screen:
//
//  1. every element belongs to the first four periodic-table rows,
//  2. no element is a noble gas, and
//  3. no element is a transition metal in the Sc→Ni range.
//
// An empty set is vacuously eligible — all three rules hold over nothing.
// Upstream validation rejects empty-atom records, so the case never arises
// from ingested data, but the behavior is defined rather than accidental.
func IsEligible(elements map[string]bool) bool {
	for sym := range elements {
		if !firstFourRows[sym] {
			return false
		}
		if nobleGases[sym] {
			return false
		}
		if earlyTransitionMetals[sym] {
			return false
		}
	}
	return true
}

// EligibleRecord applies IsEligible to a record's derived element set.
func EligibleRecord(rec *StructureRecord) bool {
	return IsEligible(rec.ElementSet())
}
