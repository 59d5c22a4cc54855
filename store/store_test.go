package store

import (
	"io"
	"testing"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// STORE TESTS
// ============================================================================

func carbonRecord(id, formula string) *material.StructureRecord {
	return &material.StructureRecord{
		MaterialID: id,
		Formula:    formula,
		Atoms:      []material.Atom{{Symbol: "C"}},
		Periodic:   [3]bool{true, true, true},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndIterateInWriteOrder(t *testing.T) {
	s := openTestStore(t)

	want := []string{"2dm-1", "2dm-2", "2dm-3"}
	for _, id := range want {
		if _, err := s.Append(carbonRecord(id, "C")); err != nil {
			t.Fatalf("Append(%s) failed: %v", id, err)
		}
	}

	n, err := s.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3", n, err)
	}

	var got []string
	err = s.Iterate(func(id string, rec *material.StructureRecord) error {
		got = append(got, rec.MaterialID)
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("iteration order = %v, want %v", got, want)
		}
	}
}

func TestAppendAssignsIDWhenMissing(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Append(carbonRecord("", "C"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" {
		t.Error("store must assign an id when the record carries none")
	}

	id, err = s.Append(carbonRecord("2dm-9", "C"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id != "2dm-9" {
		t.Errorf("store id = %q, want the record's material_id", id)
	}
}

func TestSourceStreamsAllRecords(t *testing.T) {
	s := openTestStore(t)
	for i, f := range []string{"MoS2", "BN", "C"} {
		rec := carbonRecord("", f)
		rec.MaterialID = string(rune('a' + i))
		if _, err := s.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	// Two independent sources read the same sequence without sharing a cursor.
	for pass := 0; pass < 2; pass++ {
		src := s.Source()
		var formulas []string
		for {
			rec, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			formulas = append(formulas, rec.Formula)
		}
		src.Close()

		if len(formulas) != 3 || formulas[0] != "MoS2" || formulas[2] != "C" {
			t.Fatalf("pass %d read %v, want [MoS2 BN C]", pass, formulas)
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := carbonRecord("2dm-5", "CH4")
	in.Properties = map[string]float64{material.PropBandgap: 1.25}
	in.Cell = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if _, err := s.Append(in); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var out *material.StructureRecord
	err := s.Iterate(func(id string, rec *material.StructureRecord) error {
		out = rec
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}

	if out.Formula != "CH4" || out.Cell[0][0] != 1 {
		t.Errorf("round-tripped record mismatch: %+v", out)
	}
	if v, ok := out.Property(material.PropBandgap); !ok || v != 1.25 {
		t.Errorf("round-tripped property = %v, %v; want 1.25, true", v, ok)
	}
}
