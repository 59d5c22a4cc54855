package stats

import (
	"errors"
	"io"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// RECORD SOURCE — Forward-Only Stream Access
// ============================================================================
// Every stats consumer reads records through a Source: one pass, in order,
// no seeking or replay. Two pipeline stages must never share a Source —
// each stage obtains its own iteration from the underlying store, since a
// store cursor is not safe for concurrent advancement by multiple logical
// consumers.
// ============================================================================

// Errors shared by the aggregation and census passes.
var (
	// ErrEmptyCorpus: statistics over zero records are undefined, not zero.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrUnknownProperty: the requested metric was present in no record of
	// the corpus — likely a caller typo rather than sparse data.
	ErrUnknownProperty = errors.New("unknown property")
)

// Source yields StructureRecords one at a time. Next returns io.EOF when
// the stream is exhausted.
type Source interface {
	Next() (*material.StructureRecord, error)
}

// SliceSource adapts an in-memory record slice to a Source.
type SliceSource struct {
	records []*material.StructureRecord
	pos     int
}

// NewSliceSource wraps records as a single-use forward-only Source.
func NewSliceSource(records []*material.StructureRecord) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (*material.StructureRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
