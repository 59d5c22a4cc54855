package material

import "sort"

// ============================================================================
// STRUCTURE RECORD — Canonical Material Value Type
// ============================================================================
// One material: atoms + lattice + computed properties. Built once by the
// ingestor and never mutated afterwards — downstream consumers (filter,
// stats, store) only read. The element set is always derived from the atom
// list, so the two can never disagree.
// ============================================================================

// Atom is one site in a structure: an element symbol and its position.
type Atom struct {
	Symbol   string     `json:"symbol"`
	Position [3]float64 `json:"position"`
}

// StructureRecord is one material's atoms, lattice, and computed properties.
//
// Cell holds the three lattice vectors as rows. An all-zero cell means
// "unknown cell / non-periodic", never a valid unit cell. Properties maps
// recognized property keys to values; an absent key means the property was
// not reported for this material — absence is distinct from zero.
type StructureRecord struct {
	MaterialID string             `json:"material_id,omitempty"`
	Formula    string             `json:"formula,omitempty"`
	Atoms      []Atom             `json:"atoms"`
	Cell       [3][3]float64      `json:"cell"`
	Periodic   [3]bool            `json:"periodic"`
	Properties map[string]float64 `json:"properties,omitempty"`
}

// Elements returns the distinct element symbols appearing in Atoms,
// sorted ascending for deterministic reporting.
func (r *StructureRecord) Elements() []string {
	set := r.ElementSet()
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// ElementSet returns the membership set of element symbols in Atoms.
func (r *StructureRecord) ElementSet() map[string]bool {
	set := make(map[string]bool, len(r.Atoms))
	for _, a := range r.Atoms {
		set[a.Symbol] = true
	}
	return set
}

// Property looks up a computed property. The second return reports
// presence — callers must not treat a missing property as zero.
func (r *StructureRecord) Property(name string) (float64, bool) {
	v, ok := r.Properties[name]
	return v, ok
}

// HasCell reports whether the lattice is known (any non-zero component).
func (r *StructureRecord) HasCell() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if r.Cell[i][j] != 0 {
				return true
			}
		}
	}
	return false
}

// ============================================================================
// RECOGNIZED PROPERTY KEYS
// ============================================================================

// Scalar property keys carried through from the raw database export.
const (
	PropBandgap                  = "bandgap"
	PropTotalMagnetization       = "total_magnetization"
	PropDecompositionEnergy      = "decomposition_energy"
	PropExfoliationEnergyPerAtom = "exfoliation_energy_per_atom"
	PropEnergy                   = "energy"
	PropEnergyPerAtom            = "energy_per_atom"
)

// KnownProperties lists every property key the ingestor copies through.
var KnownProperties = []string{
	PropBandgap,
	PropTotalMagnetization,
	PropDecompositionEnergy,
	PropExfoliationEnergyPerAtom,
	PropEnergy,
	PropEnergyPerAtom,
}

// KnownProperty reports whether name is a recognized scalar property key.
func KnownProperty(name string) bool {
	for _, k := range KnownProperties {
		if k == name {
			return true
		}
	}
	return false
}
