package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniclink/recordsync/models"
)

func TestCollection_ReadWriteSurface(t *testing.T) {
	st := newTestStore(t)
	source := &stubSource{}
	source.set([]models.Record[observation]{
		cleanRecord("rec-1", observation{Patient: "p-102", Kind: "bp", Value: 120}, testNow),
	}, nil)

	col := NewCollection("observations", newTestEngine(t, st, source, nil, nil))
	assert.Equal(t, "observations", col.Name())

	require.NoError(t, col.Refresh(context.Background()))

	got, ok := col.Get("rec-1")
	require.True(t, ok)
	assert.Equal(t, models.Clean, got.Marker)
	assert.Len(t, col.GetAll(), 1)

	rec := col.Upsert(observation{Patient: "p-105", Kind: "temp", Value: 36.8})
	assert.Equal(t, models.PendingCreate, rec.Marker)

	col.Delete("rec-1")
	_, ok = col.Get("rec-1")
	assert.False(t, ok)

	status := col.Status()
	assert.Equal(t, 2, status.PendingCount)
}

func TestCollection_SubscribeAndClear(t *testing.T) {
	st := newTestStore(t)
	mon, _ := offlineMonitor(t)
	col := NewCollection("observations", newTestEngine(t, st, &stubSource{}, nil, mon))

	var last models.StatusUpdate
	col.Subscribe(func(u models.StatusUpdate) { last = u })
	assert.Equal(t, models.StatusOffline, last.Status)

	col.Upsert(observation{Patient: "p-102"})
	assert.Equal(t, 1, last.PendingCount)

	require.NoError(t, col.Clear())
	assert.Zero(t, col.Status().PendingCount)
	assert.Empty(t, col.GetAll())
}
