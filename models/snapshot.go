package models

import (
	"encoding/json"
	"time"
)

// Snapshot is the full local materialization of a collection at a point in
// time: an insertion-ordered mapping from record ID to record, plus the
// timestamp of the last successful full sync.
//
// The zero value is not usable; construct snapshots with NewSnapshot. A
// Snapshot is not safe for concurrent use; the sync engine owns it
// exclusively and guards access with its own lock.
type Snapshot[T any] struct {
	order   []string
	records map[string]Record[T]

	// CapturedAt is the timestamp of the last successful full sync that
	// produced this snapshot.
	CapturedAt time.Time
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot[T any]() *Snapshot[T] {
	return &Snapshot[T]{records: make(map[string]Record[T])}
}

// Get returns the record with the given id, if present.
func (s *Snapshot[T]) Get(id string) (Record[T], bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Put inserts or replaces a record. A new id is appended to the insertion
// order; an existing id keeps its position.
func (s *Snapshot[T]) Put(rec Record[T]) {
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
}

// Delete removes the record with the given id, if present.
func (s *Snapshot[T]) Delete(id string) {
	if _, exists := s.records[id]; !exists {
		return
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of records in the snapshot.
func (s *Snapshot[T]) Len() int {
	return len(s.records)
}

// IDs returns the record ids in insertion order. The returned slice is a
// copy.
func (s *Snapshot[T]) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// All returns every record in insertion order.
func (s *Snapshot[T]) All() []Record[T] {
	out := make([]Record[T], 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Clone returns a deep copy of the snapshot's structure. Payloads are copied
// by value; pointer-bearing payload types share the pointed-to data.
func (s *Snapshot[T]) Clone() *Snapshot[T] {
	c := &Snapshot[T]{
		order:      make([]string, len(s.order)),
		records:    make(map[string]Record[T], len(s.records)),
		CapturedAt: s.CapturedAt,
	}
	copy(c.order, s.order)
	for id, rec := range s.records {
		c.records[id] = rec
	}
	return c
}

// persistedSnapshot is the JSON form of a Snapshot. Records are stored as an
// ordered array so the insertion order survives a save/load round trip.
type persistedSnapshot[T any] struct {
	CapturedAt time.Time   `json:"captured_at"`
	Records    []Record[T] `json:"records"`
}

// MarshalJSON implements json.Marshaler.
func (s *Snapshot[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(persistedSnapshot[T]{
		CapturedAt: s.CapturedAt,
		Records:    s.All(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot[T]) UnmarshalJSON(b []byte) error {
	var p persistedSnapshot[T]
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	s.order = s.order[:0]
	s.records = make(map[string]Record[T], len(p.Records))
	s.CapturedAt = p.CapturedAt
	for _, rec := range p.Records {
		s.Put(rec)
	}
	return nil
}
