// Package engine orchestrates offline-first replication of one record
// collection: it caches remote records locally, tracks unconfirmed local
// mutations, reconciles local and remote state when connectivity returns,
// and exposes a consistent, queryable view regardless of network
// availability.
//
// The package is transport- and storage-agnostic: records are fetched
// through an injected [RemoteSource], optionally submitted through a
// [RemoteWriter], and persisted through a [store.Backend].
package engine

import (
	"context"

	"github.com/cliniclink/recordsync/models"
)

// RemoteSource is the injected fetch collaborator. The engine never assumes
// a specific transport or query language; implementations are responsible
// for their own timeout, which the engine treats as an ordinary fetch
// failure.
type RemoteSource[T any] interface {
	// FetchAll returns the full remote snapshot of the collection.
	FetchAll(ctx context.Context) ([]models.Record[T], error)
}

// RemoteWriter is the optional push collaborator. When configured, a sync
// pass submits pending records before fetching; records whose ids come back
// confirmed transition to Clean (confirmed deletions are purged), the rest
// keep their pending marker for a later retry.
//
// Without a writer the engine is fetch-only and pending records survive
// every pass untouched.
type RemoteWriter[T any] interface {
	// Push submits records carrying pending markers and returns the ids the
	// remote source confirmed.
	Push(ctx context.Context, records []models.Record[T]) (confirmed []string, err error)
}

// StatusObserver receives push-based status notifications after every state
// transition. Observers must not block; they are invoked synchronously from
// the engine's notification path.
type StatusObserver func(models.StatusUpdate)
