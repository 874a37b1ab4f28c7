package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/models"
)

// Store persists the snapshot of a single collection through a Backend.
// At most one snapshot exists per collection name at any time; Save replaces
// it atomically (the Backend contract guarantees a reader never observes a
// half-written value).
//
// Staleness is a property of the reader, not the store: Load takes the
// caller's maxAge, so different callers may apply different freshness
// requirements to the same stored data.
type Store[T any] struct {
	backend    Backend
	collection string
	logger     *logger.Logger
}

// NewStore binds a typed snapshot store to one collection name.
func NewStore[T any](backend Backend, collection string, log *logger.Logger) *Store[T] {
	return &Store[T]{
		backend:    backend,
		collection: collection,
		logger:     log,
	}
}

// Collection returns the collection name the store is bound to.
func (s *Store[T]) Collection() string {
	return s.collection
}

// Load returns the persisted snapshot. It returns an error matching
// ErrSnapshotNotFound when no snapshot exists, or when maxAge > 0 and the
// snapshot's CapturedAt is older than maxAge (such errors also match
// ErrSnapshotStale).
func (s *Store[T]) Load(maxAge time.Duration) (*models.Snapshot[T], error) {
	raw, ok, err := s.backend.Get(s.collection)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", s.collection, err)
	}
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", s.collection, ErrSnapshotNotFound)
	}

	snap := models.NewSnapshot[T]()
	if err = json.Unmarshal(raw, snap); err != nil {
		s.logger.Err(err).Str("collection", s.collection).Msg("failed to decode persisted snapshot")
		return nil, fmt.Errorf("%w: decode snapshot %q: %w", ErrCorruptSnapshot, s.collection, err)
	}

	if maxAge > 0 && time.Since(snap.CapturedAt) > maxAge {
		return nil, fmt.Errorf("collection %q captured at %s: %w: %w",
			s.collection, snap.CapturedAt.Format(time.RFC3339), ErrSnapshotStale, ErrSnapshotNotFound)
	}

	return snap, nil
}

// Save persists the snapshot, replacing the previous one atomically. A
// failure is reported to the caller (and logged); the caller's in-memory
// snapshot remains authoritative.
func (s *Store[T]) Save(snap *models.Snapshot[T]) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Err(err).Str("collection", s.collection).Msg("failed to encode snapshot")
		return fmt.Errorf("encode snapshot %q: %w", s.collection, err)
	}

	if err = s.backend.Set(s.collection, raw); err != nil {
		s.logger.Err(err).Str("collection", s.collection).Msg("failed to persist snapshot")
		return fmt.Errorf("persist snapshot %q: %w", s.collection, err)
	}
	return nil
}

// Clear removes the persisted snapshot for the collection.
func (s *Store[T]) Clear() error {
	if err := s.backend.Remove(s.collection); err != nil {
		s.logger.Err(err).Str("collection", s.collection).Msg("failed to clear snapshot")
		return fmt.Errorf("clear snapshot %q: %w", s.collection, err)
	}
	return nil
}
