// Package resolve implements the pure conflict-resolution policy applied when
// a local and a remote copy of the same record are reconciled.
package resolve

import (
	"errors"
	"fmt"

	"dario.cat/mergo"

	"github.com/cliniclink/recordsync/models"
)

// ErrConflictUnresolvable is returned when a caller-supplied merge function
// fails. The reconciliation pass that hit it terminates and the involved
// records keep their pending markers.
var ErrConflictUnresolvable = errors.New("conflict unresolvable")

// MergeFunc combines two confirmed divergent copies of a record under the
// Merge strategy. It receives the local and remote copies and returns the
// merged record.
type MergeFunc[T any] func(local, remote models.Record[T]) (models.Record[T], error)

// Resolve produces the surviving record for one id given its local and remote
// copies (either may be nil). A nil result means the record is dropped from
// the reconciled snapshot.
//
// The policy, in order:
//   - remote only                     → take remote, mark Clean
//   - local only, local pending       → keep local (unconfirmed create/edit)
//   - local only, local clean         → drop (remote deleted it)
//   - both, local pending             → local wins unconditionally: an
//     unconfirmed local mutation is never overwritten by a concurrent
//     remote read; it stays pending until explicitly confirmed
//   - both, local clean               → apply strategy; Merge without a
//     merge function falls back to last-write-wins on LastModified, with
//     exact ties going to the remote copy
func Resolve[T any](local, remote *models.Record[T], strategy models.Strategy, merge MergeFunc[T]) (*models.Record[T], error) {
	switch {
	case local == nil && remote == nil:
		return nil, nil

	case local == nil:
		taken := *remote
		taken.Marker = models.Clean
		return &taken, nil

	case remote == nil:
		if local.Marker != models.Clean {
			kept := *local
			return &kept, nil
		}
		return nil, nil
	}

	if local.Marker != models.Clean {
		kept := *local
		return &kept, nil
	}

	switch strategy {
	case models.ClientWins:
		kept := *local
		return &kept, nil

	case models.Merge:
		if merge != nil {
			merged, err := merge(*local, *remote)
			if err != nil {
				return nil, fmt.Errorf("%w: merge %q: %w", ErrConflictUnresolvable, local.ID, err)
			}
			merged.ID = local.ID
			merged.Marker = models.Clean
			return &merged, nil
		}
		return lastWriteWins(local, remote), nil

	default: // ServerWins, and the safe default for unknown strategies
		taken := *remote
		taken.Marker = models.Clean
		return &taken, nil
	}
}

// lastWriteWins picks the copy with the later LastModified. An exact tie
// resolves to remote, since the remote is the source of truth for
// simultaneous confirmation.
func lastWriteWins[T any](local, remote *models.Record[T]) *models.Record[T] {
	if local.LastModified.After(remote.LastModified) {
		kept := *local
		kept.Marker = models.Clean
		return &kept
	}
	taken := *remote
	taken.Marker = models.Clean
	return &taken
}

// StructMerge is a ready-made MergeFunc for struct payloads: it overlays the
// remote payload's non-zero fields on top of the local payload, keeping the
// later LastModified. Useful when callers want field-level merging without
// writing their own function.
func StructMerge[T any](local, remote models.Record[T]) (models.Record[T], error) {
	merged := local
	if err := mergo.Merge(&merged.Payload, remote.Payload, mergo.WithOverride); err != nil {
		return models.Record[T]{}, fmt.Errorf("merge payloads: %w", err)
	}
	if remote.LastModified.After(merged.LastModified) {
		merged.LastModified = remote.LastModified
	}
	return merged, nil
}
