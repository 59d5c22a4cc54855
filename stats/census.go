package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// ELEMENT CENSUS — Structure-Presence Counts
// ============================================================================
// For each element, how many structures contain at least one atom of it:
// one increment per (record, distinct element) pair. A structure with 50
// carbon atoms contributes 1 to carbon's count, not 50. The result is
// sparse — elements nothing contains do not appear.
// ============================================================================

// CensusEntry is one element's structure-presence count.
type CensusEntry struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// CensusAccumulator counts element presence across one pass. Create one per
// census call; state is private to the call.
type CensusAccumulator struct {
	records int
	counts  map[string]int
}

// NewCensus creates an empty accumulator.
func NewCensus() *CensusAccumulator {
	return &CensusAccumulator{counts: make(map[string]int)}
}

// Observe folds one record: each distinct element in it counts once.
func (c *CensusAccumulator) Observe(rec *material.StructureRecord) {
	c.records++
	for sym := range rec.ElementSet() {
		c.counts[sym]++
	}
}

// Records reports how many records were observed.
func (c *CensusAccumulator) Records() int { return c.records }

// Counts returns a copy of the sparse symbol → count mapping.
func (c *CensusAccumulator) Counts() map[string]int {
	out := make(map[string]int, len(c.counts))
	for sym, n := range c.counts {
		out[sym] = n
	}
	return out
}

// Entries returns the census ordered by count descending, symbol ascending
// as tie-break — deterministic for reporting.
func (c *CensusAccumulator) Entries() []CensusEntry {
	entries := make([]CensusEntry, 0, len(c.counts))
	for sym, n := range c.counts {
		entries = append(entries, CensusEntry{Symbol: sym, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries
}

// Census runs one full pass of src. A zero-record stream is ErrEmptyCorpus.
func Census(src Source) (*CensusAccumulator, error) {
	acc := NewCensus()
	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("census: %w", err)
		}
		acc.Observe(rec)
	}
	if acc.records == 0 {
		return nil, fmt.Errorf("census: %w", ErrEmptyCorpus)
	}
	return acc, nil
}
