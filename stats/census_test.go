package stats

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// CENSUS TESTS
// ============================================================================

func recWithAtoms(syms ...string) *material.StructureRecord {
	atoms := make([]material.Atom, len(syms))
	for i, s := range syms {
		atoms[i] = material.Atom{Symbol: s}
	}
	return &material.StructureRecord{Atoms: atoms}
}

func TestCensusCounts(t *testing.T) {
	recs := []*material.StructureRecord{
		recWithAtoms("C", "C", "H"), // C and H once each
		recWithAtoms("C", "O"),
		recWithAtoms("B", "N"),
	}

	acc, err := Census(NewSliceSource(recs))
	if err != nil {
		t.Fatalf("Census failed: %v", err)
	}

	want := map[string]int{"C": 2, "H": 1, "O": 1, "B": 1, "N": 1}
	if got := acc.Counts(); !reflect.DeepEqual(got, want) {
		t.Errorf("Counts() = %v, want %v", got, want)
	}
	if acc.Records() != 3 {
		t.Errorf("Records() = %d, want 3", acc.Records())
	}
}

// Structure-presence count, not atom count: 50 carbons still count once.
func TestCensusCountsStructuresNotAtoms(t *testing.T) {
	syms := make([]string, 50)
	for i := range syms {
		syms[i] = "C"
	}
	acc, err := Census(NewSliceSource([]*material.StructureRecord{recWithAtoms(syms...)}))
	if err != nil {
		t.Fatalf("Census failed: %v", err)
	}
	if got := acc.Counts()["C"]; got != 1 {
		t.Errorf("C count = %d, want 1", got)
	}
}

func TestCensusOrdering(t *testing.T) {
	recs := []*material.StructureRecord{
		recWithAtoms("S", "Mo"),
		recWithAtoms("S", "W"),
		recWithAtoms("Mo", "Se"),
	}
	acc, err := Census(NewSliceSource(recs))
	if err != nil {
		t.Fatalf("Census failed: %v", err)
	}

	// Count descending, symbol ascending on ties.
	want := []CensusEntry{
		{"Mo", 2}, {"S", 2}, {"Se", 1}, {"W", 1},
	}
	if got := acc.Entries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entries() = %v, want %v", got, want)
	}
}

func TestCensusEmptyCorpus(t *testing.T) {
	_, err := Census(NewSliceSource(nil))
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}
