package models

import "time"

// SyncStatus is the externally observable state of the sync engine for one
// collection.
type SyncStatus string

const (
	// StatusSynced means the local snapshot matches the last confirmed
	// remote state and no local mutations are queued.
	StatusSynced SyncStatus = "synced"

	// StatusPending means local mutations are queued and connectivity is
	// present, but no reconciliation pass is running.
	StatusPending SyncStatus = "pending"

	// StatusSyncing means a reconciliation pass is in flight.
	StatusSyncing SyncStatus = "syncing"

	// StatusOffline means no connectivity; mutations accumulate locally.
	StatusOffline SyncStatus = "offline"

	// StatusError means the last sync attempt failed; a manual ForceSync or
	// a reconnect retries it.
	StatusError SyncStatus = "error"
)

// StatusUpdate is pushed to status observers after every state transition.
type StatusUpdate struct {
	// Status is the engine state after the transition.
	Status SyncStatus

	// PendingCount is the number of records carrying an unconfirmed local
	// mutation.
	PendingCount int

	// LastSyncedAt is the CapturedAt of the last successfully reconciled
	// snapshot; zero if no sync has succeeded yet.
	LastSyncedAt time.Time

	// Err holds the failure of the last pass when Status is StatusError,
	// nil otherwise.
	Err error
}

// Strategy selects the policy used to resolve two confirmed (non-pending)
// divergent copies of the same record.
type Strategy string

const (
	// ServerWins takes the remote copy.
	ServerWins Strategy = "server_wins"

	// ClientWins keeps the local copy.
	ClientWins Strategy = "client_wins"

	// Merge applies a caller-supplied merge function, falling back to
	// last-write-wins by LastModified when none is supplied. Exact
	// timestamp ties resolve to the remote copy, since the remote is the
	// source of truth for simultaneous confirmation.
	Merge Strategy = "merge"
)

// Outcome is the result of one reconciliation pass.
type Outcome[T any] struct {
	// Snapshot is the reconciled collection snapshot.
	Snapshot *Snapshot[T]

	// Confirmed lists ids whose pending mutation was confirmed by the
	// remote source during this pass and transitioned to Clean (or, for
	// confirmed deletions, were purged).
	Confirmed []string

	// Failed lists ids whose submission was attempted but not confirmed;
	// they keep their pending marker for a later retry.
	Failed []string
}
