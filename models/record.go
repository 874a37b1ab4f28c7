package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncMarker describes the synchronization state of a single record relative
// to the remote source of truth.
type SyncMarker string

const (
	// Clean means the record matches the last value confirmed by the remote
	// source.
	Clean SyncMarker = "clean"

	// PendingCreate means the record was created locally and the remote
	// source has never seen it.
	PendingCreate SyncMarker = "pending_create"

	// PendingUpdate means the record carries a local edit that the remote
	// source has not confirmed yet.
	PendingUpdate SyncMarker = "pending_update"

	// PendingDelete means the record was deleted locally; it is kept as a
	// tombstone until the remote source confirms the deletion.
	PendingDelete SyncMarker = "pending_delete"
)

// Valid reports whether m is one of the defined marker values.
func (m SyncMarker) Valid() bool {
	switch m {
	case Clean, PendingCreate, PendingUpdate, PendingDelete:
		return true
	}
	return false
}

// UnmarshalJSON validates the marker on decode so a corrupt snapshot is
// rejected instead of silently producing an unknown state.
func (m *SyncMarker) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	marker := SyncMarker(s)
	if !marker.Valid() {
		return fmt.Errorf("unknown sync marker %q", s)
	}
	*m = marker
	return nil
}

// Record is a uniquely identified, timestamped unit of domain data tracked by
// the sync engine. The payload type is opaque to the engine; only ID,
// LastModified and Marker participate in reconciliation.
type Record[T any] struct {
	// ID is stable and unique within a collection.
	ID string `json:"id"`

	// LastModified is set by whichever side (client or server) last wrote
	// the record.
	LastModified time.Time `json:"last_modified"`

	// Marker indicates whether the record carries an unconfirmed local
	// mutation.
	Marker SyncMarker `json:"sync_marker"`

	// Payload is the domain data itself.
	Payload T `json:"payload"`
}

// WireRecord is the transport representation used between the engine's HTTP
// collaborators and the reference record server: the payload travels as an
// opaque JSON document.
type WireRecord = Record[json.RawMessage]
