package store

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/lattica-org/lattica/material"
)

// ============================================================================
// STRUCTURE-RECORD STORE — Append/Iterate over BadgerDB
// ============================================================================
// The pipeline treats the store as a sequential sink and source: append one
// record, iterate all records in write order. Keys are a monotonic
// sequence, so badger's ordered key iteration replays write order exactly.
// Single-writer — concurrent appenders are out of scope.
// ============================================================================

const (
	recordPrefix = "rec/"
	sequenceKey  = "seq/record"
	seqBandwidth = 128
)

// envelope is the stored value: the record plus store-assigned metadata.
type envelope struct {
	ID       string                    `json:"id"`
	StoredAt time.Time                 `json:"stored_at"`
	Record   *material.StructureRecord `json:"record"`
}

// Store is a persistent, write-ordered collection of StructureRecords.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens (or creates) a store in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &Store{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("close store: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

// Append persists one record at the end of the write order and returns its
// store id: the record's material_id, or a generated uuid when the source
// carried none.
func (s *Store) Append(rec *material.StructureRecord) (string, error) {
	n, err := s.seq.Next()
	if err != nil {
		return "", fmt.Errorf("append: %w", err)
	}

	id := rec.MaterialID
	if id == "" {
		id = uuid.NewString()
	}

	env := envelope{ID: id, StoredAt: time.Now().UTC(), Record: rec}
	val, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("append %s: %w", id, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(n), val)
	})
	if err != nil {
		return "", fmt.Errorf("append %s: %w", id, err)
	}
	return id, nil
}

// Iterate replays every record in write order. A non-nil error from fn
// stops the iteration and is returned.
func (s *Store) Iterate(fn func(id string, rec *material.StructureRecord) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			})
			if err != nil {
				return fmt.Errorf("iterate: %w", err)
			}
			if err := fn(env.ID, env.Record); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(recordPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// recordKey encodes the sequence number so lexicographic key order equals
// write order.
func recordKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", recordPrefix, n))
}

// ============================================================================
// RECORD SOURCE — Independent Forward-Only Iterations
// ============================================================================

// RecordSource streams the store's records in write order. It satisfies
// stats.Source. Each call to Store.Source opens an independent iteration —
// concurrent pipeline stages must not share one.
type RecordSource struct {
	txn    *badger.Txn
	it     *badger.Iterator
	prefix []byte
	opened bool
	closed bool
}

// Source opens a new forward-only iteration over the store. Close it when
// done; Next closes it automatically on reaching the end.
func (s *Store) Source() *RecordSource {
	txn := s.db.NewTransaction(false)
	return &RecordSource{
		txn:    txn,
		it:     txn.NewIterator(badger.DefaultIteratorOptions),
		prefix: []byte(recordPrefix),
	}
}

// Next returns the next record in write order, io.EOF at the end.
func (r *RecordSource) Next() (*material.StructureRecord, error) {
	if r.closed {
		return nil, io.EOF
	}
	if !r.opened {
		r.it.Seek(r.prefix)
		r.opened = true
	} else {
		r.it.Next()
	}
	if !r.it.ValidForPrefix(r.prefix) {
		r.Close()
		return nil, io.EOF
	}

	var env envelope
	err := r.it.Item().Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("read record: %w", err)
	}
	return env.Record, nil
}

// Close releases the iteration. Safe to call more than once.
func (r *RecordSource) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.it.Close()
	r.txn.Discard()
}
