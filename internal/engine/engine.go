package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/monitor"
	"github.com/cliniclink/recordsync/internal/resolve"
	"github.com/cliniclink/recordsync/internal/store"
	"github.com/cliniclink/recordsync/internal/track"
	"github.com/cliniclink/recordsync/models"
)

// Options tune an Engine. The zero value is usable: ServerWins strategy, no
// merge function, no staleness bound, UTC wall clock.
type Options[T any] struct {
	// Strategy resolves two confirmed divergent copies of a record.
	// Defaults to ServerWins.
	Strategy models.Strategy

	// Merge is the caller-supplied merge function for the Merge strategy.
	// When nil, Merge falls back to last-write-wins.
	Merge resolve.MergeFunc[T]

	// MaxAge bounds the staleness of the persisted snapshot loaded at
	// startup; an older snapshot is ignored. Zero disables the check.
	MaxAge time.Duration

	// IDOf extracts the record id from a payload on Upsert. When nil or
	// when it returns the empty string, a new UUID is assigned.
	IDOf func(payload T) string

	// Clock supplies timestamps; tests override it. Defaults to
	// time.Now().UTC.
	Clock func() time.Time

	// Metrics, when non-nil, receives sync-pass counters and the pending
	// gauge.
	Metrics *Metrics
}

// Engine owns the collection snapshot for one collection name and runs the
// synchronization state machine. All access to the snapshot goes through the
// engine's lock; at most one reconciliation pass is in flight at any time.
type Engine[T any] struct {
	store   *store.Store[T]
	source  RemoteSource[T]
	writer  RemoteWriter[T]
	monitor *monitor.Monitor
	logger  *logger.Logger
	opts    Options[T]

	group singleflight.Group

	mu      sync.RWMutex
	snap    *models.Snapshot[T]
	status  models.SyncStatus
	lastErr error
	syncing bool
	discard bool
	journal []journalOp[T]

	obsMu     sync.RWMutex
	observers []StatusObserver
}

// journalOp records an upsert or delete issued while a sync pass is in
// flight, so it can be re-applied to the snapshot that pass produces.
type journalOp[T any] struct {
	deleteID string
	record   models.Record[T]
}

func (op journalOp[T]) apply(snap *models.Snapshot[T]) {
	if op.deleteID != "" {
		snap.Delete(op.deleteID)
		return
	}
	snap.Put(op.record)
}

// NewEngine constructs an Engine, loading any persisted snapshot that
// satisfies opts.MaxAge. The monitor may be nil, in which case the engine
// assumes permanent connectivity (useful in tests); otherwise the engine
// registers for its online/offline transitions.
func NewEngine[T any](
	st *store.Store[T],
	source RemoteSource[T],
	writer RemoteWriter[T],
	mon *monitor.Monitor,
	log *logger.Logger,
	opts Options[T],
) *Engine[T] {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.Strategy == "" {
		opts.Strategy = models.ServerWins
	}

	e := &Engine[T]{
		store:   st,
		source:  source,
		writer:  writer,
		monitor: mon,
		logger:  log,
		opts:    opts,
	}

	snap, err := st.Load(opts.MaxAge)
	switch {
	case err == nil:
		e.snap = snap
	case errors.Is(err, store.ErrSnapshotNotFound):
		e.snap = models.NewSnapshot[T]()
	default:
		log.Warn().Err(err).Str("collection", st.Collection()).
			Msg("could not load persisted snapshot, starting empty")
		e.snap = models.NewSnapshot[T]()
	}

	e.status = e.initialStatus()
	e.opts.Metrics.setPending(track.CountPending(e.snap))

	if mon != nil {
		mon.OnOnline(e.handleOnline)
		mon.OnOffline(e.handleOffline)
	}

	return e
}

func (e *Engine[T]) initialStatus() models.SyncStatus {
	if !e.online() {
		return models.StatusOffline
	}
	if track.CountPending(e.snap) > 0 {
		return models.StatusPending
	}
	return models.StatusSynced
}

func (e *Engine[T]) online() bool {
	return e.monitor == nil || e.monitor.Online()
}

// Subscribe registers a status observer and immediately pushes the current
// state so new subscribers do not have to wait for the next transition.
func (e *Engine[T]) Subscribe(fn StatusObserver) {
	e.obsMu.Lock()
	e.observers = append(e.observers, fn)
	e.obsMu.Unlock()

	fn(e.Status())
}

// Status returns the current state, pending count, last successful sync
// timestamp and last error.
func (e *Engine[T]) Status() models.StatusUpdate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.statusLocked()
}

func (e *Engine[T]) statusLocked() models.StatusUpdate {
	return models.StatusUpdate{
		Status:       e.status,
		PendingCount: track.CountPending(e.snap),
		LastSyncedAt: e.snap.CapturedAt,
		Err:          e.lastErr,
	}
}

func (e *Engine[T]) notify(update models.StatusUpdate) {
	e.opts.Metrics.setPending(update.PendingCount)

	e.obsMu.RLock()
	observers := make([]StatusObserver, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.RUnlock()

	for _, fn := range observers {
		fn(update)
	}
}

// Get returns the record with the given id from the local snapshot. It is
// local-only and never blocks on the network. Records awaiting deletion
// confirmation are not visible.
func (e *Engine[T]) Get(id string) (models.Record[T], bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, ok := e.snap.Get(id)
	if !ok || rec.Marker == models.PendingDelete {
		return models.Record[T]{}, false
	}
	return rec, true
}

// GetAll returns every visible record in insertion order.
func (e *Engine[T]) GetAll() []models.Record[T] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.Record[T]
	for _, rec := range e.snap.All() {
		if rec.Marker != models.PendingDelete {
			out = append(out, rec)
		}
	}
	return out
}

// Upsert applies a local create or edit: the record is marked pending,
// persisted immediately, and an opportunistic sync is triggered if
// connectivity is present. The local state change is synchronous; the
// network reconciliation is observed via the status stream.
func (e *Engine[T]) Upsert(payload T) models.Record[T] {
	id := ""
	if e.opts.IDOf != nil {
		id = e.opts.IDOf(payload)
	}
	if id == "" {
		id = newRecordID()
	}

	e.mu.Lock()
	marker := models.PendingCreate
	if existing, ok := e.snap.Get(id); ok && existing.Marker != models.PendingCreate {
		marker = models.PendingUpdate
	}

	rec := models.Record[T]{
		ID:           id,
		LastModified: e.opts.Clock(),
		Marker:       marker,
		Payload:      payload,
	}
	e.applyLocalLocked(journalOp[T]{record: rec})
	update, trigger := e.afterMutationLocked()
	e.mu.Unlock()

	e.notify(update)
	if trigger {
		go e.sync(context.Background())
	}
	return rec
}

// Delete marks the record for deletion. The tombstone is persisted
// immediately and purged once the remote source confirms. Deleting a record
// the remote has never seen removes it outright; deleting a missing id is a
// no-op.
func (e *Engine[T]) Delete(id string) {
	e.mu.Lock()
	existing, ok := e.snap.Get(id)
	if !ok {
		e.mu.Unlock()
		return
	}

	var op journalOp[T]
	if existing.Marker == models.PendingCreate {
		op = journalOp[T]{deleteID: id}
	} else {
		existing.Marker = models.PendingDelete
		existing.LastModified = e.opts.Clock()
		op = journalOp[T]{record: existing}
	}
	e.applyLocalLocked(op)
	update, trigger := e.afterMutationLocked()
	e.mu.Unlock()

	e.notify(update)
	if trigger {
		go e.sync(context.Background())
	}
}

// applyLocalLocked applies a mutation to the live snapshot, journals it when
// a pass is in flight, and persists. Persistence failures are logged and
// reported through the status stream's pending view, never thrown: the
// in-memory state stays authoritative.
func (e *Engine[T]) applyLocalLocked(op journalOp[T]) {
	op.apply(e.snap)
	if e.syncing {
		e.journal = append(e.journal, op)
	}
	if err := e.store.Save(e.snap); err != nil {
		e.logger.Err(err).Str("collection", e.store.Collection()).
			Msg("failed to persist local mutation, in-memory state remains authoritative")
	}
}

// afterMutationLocked computes the post-mutation status. It returns the
// update to publish and whether an opportunistic sync should start.
func (e *Engine[T]) afterMutationLocked() (models.StatusUpdate, bool) {
	switch {
	case e.syncing:
		// the in-flight pass will fold the journal into its result
	case !e.online():
		e.status = models.StatusOffline
	default:
		e.status = models.StatusPending
	}

	trigger := e.status == models.StatusPending
	return e.statusLocked(), trigger
}

// Refresh forces a reconciliation pass even if the cache is fresh. It
// returns ErrOffline without connectivity and ErrSyncFailed while the engine
// sits in the Error state (use ForceSync to retry from Error). Concurrent
// calls coalesce into a single pass and share its result.
func (e *Engine[T]) Refresh(ctx context.Context) error {
	e.mu.RLock()
	errored := e.status == models.StatusError
	lastErr := e.lastErr
	e.mu.RUnlock()
	if errored {
		if lastErr != nil {
			return fmt.Errorf("%w: %w", ErrSyncFailed, lastErr)
		}
		return ErrSyncFailed
	}

	if !e.online() {
		return ErrOffline
	}
	return e.sync(ctx)
}

// ForceSync retries reconciliation regardless of the Error state, after
// re-validating connectivity. Used for the manual retry affordance.
func (e *Engine[T]) ForceSync(ctx context.Context) error {
	if e.monitor != nil && !e.monitor.Check(ctx) {
		return ErrOffline
	}

	e.mu.Lock()
	if e.status == models.StatusError {
		e.lastErr = nil
	}
	e.mu.Unlock()

	return e.sync(ctx)
}

// Clear wipes the local snapshot and in-memory state. Used on logout/reset.
func (e *Engine[T]) Clear() error {
	e.mu.Lock()
	e.snap = models.NewSnapshot[T]()
	e.journal = nil
	e.lastErr = nil
	if e.online() {
		e.status = models.StatusSynced
	} else {
		e.status = models.StatusOffline
	}
	clearErr := e.store.Clear()
	update := e.statusLocked()
	e.mu.Unlock()

	e.notify(update)
	return clearErr
}

// sync runs one reconciliation pass, coalescing concurrent requests: a
// second request while one is in flight shares the first pass's outcome
// instead of issuing a duplicate fetch.
func (e *Engine[T]) sync(ctx context.Context) error {
	_, err, _ := e.group.Do("sync", func() (any, error) {
		return nil, e.syncOnce(ctx)
	})
	return err
}

func (e *Engine[T]) syncOnce(ctx context.Context) error {
	e.mu.Lock()
	e.syncing = true
	e.discard = false
	e.journal = nil
	e.status = models.StatusSyncing
	base := e.snap.Clone()
	update := e.statusLocked()
	e.mu.Unlock()
	e.notify(update)

	outcome, err := e.reconcile(ctx, base)

	e.mu.Lock()
	e.syncing = false

	if e.discard {
		// connectivity was lost mid-flight: the pass's result is discarded
		// and the Offline state set by the monitor callback stands
		e.journal = nil
		e.mu.Unlock()
		e.opts.Metrics.observePass("discarded")
		return nil
	}

	if err != nil {
		// the existing local snapshot is untouched and every pending marker
		// survives for a later retry
		e.journal = nil
		e.lastErr = err
		e.status = models.StatusError
		update = e.statusLocked()
		e.mu.Unlock()

		e.opts.Metrics.observePass("error")
		e.logger.Err(err).Str("collection", e.store.Collection()).Msg("sync pass failed")
		e.notify(update)
		return err
	}

	// mutations issued during the pass win over its result
	for _, op := range e.journal {
		op.apply(outcome.Snapshot)
	}
	e.journal = nil

	outcome.Snapshot.CapturedAt = e.opts.Clock()
	e.snap = outcome.Snapshot
	if saveErr := e.store.Save(e.snap); saveErr != nil {
		e.logger.Err(saveErr).Str("collection", e.store.Collection()).
			Msg("failed to persist reconciled snapshot, in-memory state remains authoritative")
	}

	e.lastErr = nil
	pending := track.CountPending(e.snap)
	if pending > 0 {
		e.status = models.StatusPending
	} else {
		e.status = models.StatusSynced
	}
	update = e.statusLocked()
	e.mu.Unlock()

	e.opts.Metrics.observePass("success")
	e.logger.Info().
		Str("collection", e.store.Collection()).
		Int("records", outcome.Snapshot.Len()).
		Int("pending", pending).
		Int("confirmed", len(outcome.Confirmed)).
		Int("failed", len(outcome.Failed)).
		Msg("sync pass completed")
	e.notify(update)
	return nil
}

// reconcile performs the fetch-and-merge half of a pass against the base
// snapshot captured when the pass began. It never touches the engine's live
// state.
func (e *Engine[T]) reconcile(ctx context.Context, base *models.Snapshot[T]) (*models.Outcome[T], error) {
	confirmed, failed := e.submitPending(ctx, base)

	remote, err := e.source.FetchAll(ctx)
	if err != nil {
		e.opts.Metrics.observeFetchFailure()
		return nil, fmt.Errorf("fetch remote snapshot: %w", err)
	}

	remoteIdx := make(map[string]models.Record[T], len(remote))
	for _, rec := range remote {
		remoteIdx[rec.ID] = rec
	}

	result := models.NewSnapshot[T]()

	// local ids first, preserving their insertion order
	for _, id := range base.IDs() {
		local, _ := base.Get(id)
		var remoteRec *models.Record[T]
		if r, ok := remoteIdx[id]; ok {
			remoteRec = &r
			e.opts.Metrics.observeConflict()
		}

		resolved, resolveErr := resolve.Resolve(&local, remoteRec, e.opts.Strategy, e.opts.Merge)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if resolved != nil {
			result.Put(*resolved)
		}
	}

	// then remote-only ids, in remote order
	seen := make(map[string]struct{}, base.Len())
	for _, id := range base.IDs() {
		seen[id] = struct{}{}
	}
	for _, rec := range remote {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		resolved, resolveErr := resolve.Resolve(nil, &rec, e.opts.Strategy, e.opts.Merge)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if resolved != nil {
			result.Put(*resolved)
		}
	}

	return &models.Outcome[T]{Snapshot: result, Confirmed: confirmed, Failed: failed}, nil
}

// submitPending pushes pending records through the optional writer and folds
// confirmations into base. A push failure is partial, not fatal: unconfirmed
// records simply stay pending.
func (e *Engine[T]) submitPending(ctx context.Context, base *models.Snapshot[T]) (confirmed, failed []string) {
	pending := track.PendingRecords(base)
	if e.writer == nil || len(pending) == 0 {
		return nil, nil
	}

	ids, err := e.writer.Push(ctx, pending)
	if err != nil {
		e.logger.Warn().Err(err).Int("pending", len(pending)).
			Msg("push of pending records failed, keeping markers for retry")
		for _, rec := range pending {
			failed = append(failed, rec.ID)
		}
		return nil, failed
	}

	confirmedSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		confirmedSet[id] = struct{}{}
	}

	for _, rec := range pending {
		if _, ok := confirmedSet[rec.ID]; !ok {
			failed = append(failed, rec.ID)
			continue
		}
		confirmed = append(confirmed, rec.ID)
		if rec.Marker == models.PendingDelete {
			base.Delete(rec.ID)
			continue
		}
		rec.Marker = models.Clean
		base.Put(rec)
	}
	return confirmed, failed
}

// handleOnline reacts to a validated reconnect: with pending mutations a
// pass starts immediately, otherwise the engine settles back to Synced.
func (e *Engine[T]) handleOnline() {
	e.mu.Lock()
	if e.status != models.StatusOffline {
		e.mu.Unlock()
		return
	}
	pending := track.CountPending(e.snap)
	if pending == 0 {
		e.status = models.StatusSynced
	}
	update := e.statusLocked()
	e.mu.Unlock()

	e.notify(update)
	if pending > 0 {
		go e.sync(context.Background())
	}
}

// handleOffline enters the Offline state, remembering (via the snapshot)
// the pending count so the engine resumes correctly on reconnect. An
// in-flight pass is not cancelled; its eventual result is discarded.
func (e *Engine[T]) handleOffline() {
	e.mu.Lock()
	if e.syncing {
		e.discard = true
	}
	e.status = models.StatusOffline
	update := e.statusLocked()
	e.mu.Unlock()

	e.notify(update)
}
