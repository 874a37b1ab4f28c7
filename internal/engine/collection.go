package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/cliniclink/recordsync/models"
)

func newRecordID() string {
	return uuid.NewString()
}

// Collection is the application-facing view over one synchronized
// collection. It narrows the Engine to the read/write/refresh surface the
// caller needs and hides the reconciliation machinery.
type Collection[T any] struct {
	name   string
	engine *Engine[T]
}

// NewCollection wraps an Engine as a named collection view.
func NewCollection[T any](name string, e *Engine[T]) *Collection[T] {
	return &Collection[T]{name: name, engine: e}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Get returns the record with the given id, if visible. Always answers from
// the local snapshot.
func (c *Collection[T]) Get(id string) (models.Record[T], bool) {
	return c.engine.Get(id)
}

// GetAll returns every visible record in insertion order.
func (c *Collection[T]) GetAll() []models.Record[T] {
	return c.engine.GetAll()
}

// Upsert creates or edits a record locally and returns it with the assigned
// id and pending marker. Reconciliation with the remote source happens
// asynchronously; watch Subscribe for confirmation.
func (c *Collection[T]) Upsert(payload T) models.Record[T] {
	return c.engine.Upsert(payload)
}

// Delete marks the record for deletion. Unknown ids are ignored.
func (c *Collection[T]) Delete(id string) {
	c.engine.Delete(id)
}

// Refresh forces a reconciliation pass even if the cache is fresh.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	return c.engine.Refresh(ctx)
}

// ForceSync retries reconciliation from the Error state after re-validating
// connectivity.
func (c *Collection[T]) ForceSync(ctx context.Context) error {
	return c.engine.ForceSync(ctx)
}

// Status reports the current synchronization state.
func (c *Collection[T]) Status() models.StatusUpdate {
	return c.engine.Status()
}

// Subscribe registers fn for status updates; it is invoked immediately with
// the current state and after every subsequent transition.
func (c *Collection[T]) Subscribe(fn StatusObserver) {
	c.engine.Subscribe(fn)
}

// Clear wipes the collection's local snapshot and persisted copy.
func (c *Collection[T]) Clear() error {
	return c.engine.Clear()
}
