package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// RECORD INGESTOR — Raw Nested JSON → StructureRecord
// ============================================================================
// The raw source is one nested record per material, fields possibly missing
// at any nesting level. Ingestion is atomic per record: either every site
// resolves to a symbol and position, or the whole record fails with
// MalformedRecordError. The ingestor never mutates its input, never skips
// on its own, and is deterministic — the same bytes always produce a
// field-identical StructureRecord.
// ============================================================================

// MalformedRecordError reports a raw record whose atom sites could not be
// resolved. The pipeline driver decides whether to skip or abort.
type MalformedRecordError struct {
	MaterialID string // raw material_id when one was readable, else empty
	Line       int    // 1-based input line for Reader-sourced records, else 0
	Reason     string
}

func (e *MalformedRecordError) Error() string {
	var b strings.Builder
	b.WriteString("malformed record")
	if e.MaterialID != "" {
		fmt.Fprintf(&b, " %s", e.MaterialID)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// ============================================================================
// RAW SHAPES
// ============================================================================
// Pointer fields distinguish "absent" from "present with zero value" for
// every scalar property — absence must never be coerced to zero.

type rawMaterial struct {
	MaterialID               string        `json:"material_id"`
	FormulaPretty            string        `json:"formula_pretty"`
	Structure                *rawStructure `json:"structure"`
	Thermo                   *rawThermo    `json:"thermo"`
	Bandgap                  *float64      `json:"bandgap"`
	TotalMagnetization       *float64      `json:"total_magnetization"`
	DecompositionEnergy      *float64      `json:"decomposition_energy"`
	ExfoliationEnergyPerAtom *float64      `json:"exfoliation_energy_per_atom"`
}

type rawStructure struct {
	Lattice *rawLattice `json:"lattice"`
	Sites   []rawSite   `json:"sites"`
}

type rawLattice struct {
	Matrix [][]float64 `json:"matrix"`
}

type rawSite struct {
	XYZ     []float64    `json:"xyz"`
	Species []rawSpecies `json:"species"`
}

type rawSpecies struct {
	Element string `json:"element"`
}

// ============================================================================
// PARSING
// ============================================================================

// ParseRecord converts one raw nested record into a StructureRecord.
func ParseRecord(data []byte) (*material.StructureRecord, error) {
	var raw rawMaterial
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedRecordError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return buildRecord(&raw)
}

func buildRecord(raw *rawMaterial) (*material.StructureRecord, error) {
	fail := func(reason string) (*material.StructureRecord, error) {
		return nil, &MalformedRecordError{MaterialID: raw.MaterialID, Reason: reason}
	}

	if raw.Structure == nil || len(raw.Structure.Sites) == 0 {
		return fail("no atom sites")
	}

	atoms := make([]material.Atom, 0, len(raw.Structure.Sites))
	for i, site := range raw.Structure.Sites {
		if len(site.Species) == 0 || site.Species[0].Element == "" {
			return fail(fmt.Sprintf("site %d has no resolvable element", i))
		}
		sym := site.Species[0].Element
		if !material.IsElement(sym) {
			return fail(fmt.Sprintf("site %d has unrecognized element %q", i, sym))
		}
		if len(site.XYZ) != 3 {
			return fail(fmt.Sprintf("site %d has no position", i))
		}
		atoms = append(atoms, material.Atom{
			Symbol:   sym,
			Position: [3]float64{site.XYZ[0], site.XYZ[1], site.XYZ[2]},
		})
	}

	// Missing lattice.matrix → zero cell ("unknown"), not an error.
	var cell [3][3]float64
	if raw.Structure.Lattice != nil && raw.Structure.Lattice.Matrix != nil {
		m := raw.Structure.Lattice.Matrix
		if len(m) != 3 {
			return fail("lattice matrix is not 3x3")
		}
		for i, row := range m {
			if len(row) != 3 {
				return fail("lattice matrix is not 3x3")
			}
			cell[i] = [3]float64{row[0], row[1], row[2]}
		}
	}

	rec := &material.StructureRecord{
		MaterialID: raw.MaterialID,
		Formula:    raw.FormulaPretty,
		Atoms:      atoms,
		Cell:       cell,
		Periodic:   [3]bool{true, true, true},
		Properties: collectProperties(raw),
	}
	return rec, nil
}

// collectProperties copies recognized scalar properties that are present in
// the raw record. Absent keys are omitted — never defaulted to zero.
func collectProperties(raw *rawMaterial) map[string]float64 {
	props := make(map[string]float64)
	put := func(key string, v *float64) {
		if v != nil {
			props[key] = *v
		}
	}

	put(material.PropBandgap, raw.Bandgap)
	put(material.PropTotalMagnetization, raw.TotalMagnetization)
	put(material.PropDecompositionEnergy, raw.DecompositionEnergy)
	put(material.PropExfoliationEnergyPerAtom, raw.ExfoliationEnergyPerAtom)
	if raw.Thermo != nil {
		put(material.PropEnergy, raw.Thermo.Energy)
		put(material.PropEnergyPerAtom, raw.Thermo.EnergyPerAtom)
	}
	return props
}

type rawThermo struct {
	Energy        *float64 `json:"energy"`
	EnergyPerAtom *float64 `json:"energy_per_atom"`
}

// ============================================================================
// JSON-LINES READER
// ============================================================================

// Reader ingests a JSON-lines stream, one raw record per line. Each Next
// call parses one record; a per-record failure is returned to the caller
// without consuming the rest of the stream, so the driver can choose
// skip-and-continue or abort.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader wraps a JSON-lines stream. Lines can be large — the scanner
// buffer grows to 16 MiB before a record is rejected as oversized.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{scanner: sc}
}

// Next returns the next StructureRecord. Blank lines are skipped. Returns
// io.EOF at end of input; a *MalformedRecordError carries the line number.
func (r *Reader) Next() (*material.StructureRecord, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		rec, err := ParseRecord([]byte(text))
		if err != nil {
			if mr, ok := err.(*MalformedRecordError); ok {
				mr.Line = r.line
			}
			return nil, err
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return nil, io.EOF
}

// Line reports the 1-based number of the last line consumed.
func (r *Reader) Line() int { return r.line }
