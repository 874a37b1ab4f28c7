package engine

import "errors"

var (
	// ErrOffline is returned by Refresh and ForceSync when no connectivity
	// is present. Local mutations keep accumulating and are reconciled on
	// reconnect.
	ErrOffline = errors.New("no connectivity")

	// ErrSyncFailed is returned by Refresh while the engine sits in the
	// Error state; a manual ForceSync (or a reconnect) retries the pass.
	ErrSyncFailed = errors.New("last sync attempt failed")
)
