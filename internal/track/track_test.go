package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cliniclink/recordsync/models"
)

func snapWith(markers ...models.SyncMarker) *models.Snapshot[string] {
	snap := models.NewSnapshot[string]()
	for i, m := range markers {
		snap.Put(models.Record[string]{
			ID:           string(rune('a' + i)),
			LastModified: time.Now(),
			Marker:       m,
			Payload:      "payload",
		})
	}
	return snap
}

func TestIsPending(t *testing.T) {
	tests := []struct {
		marker models.SyncMarker
		want   bool
	}{
		{models.Clean, false},
		{models.PendingCreate, true},
		{models.PendingUpdate, true},
		{models.PendingDelete, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.marker), func(t *testing.T) {
			rec := models.Record[string]{ID: "x", Marker: tt.marker}
			assert.Equal(t, tt.want, IsPending(rec))
		})
	}
}

func TestCountPending(t *testing.T) {
	assert.Zero(t, CountPending[string](nil))
	assert.Zero(t, CountPending(snapWith(models.Clean, models.Clean)))
	assert.Equal(t, 2, CountPending(snapWith(models.Clean, models.PendingUpdate, models.PendingDelete)))
}

func TestPendingRecords_InsertionOrder(t *testing.T) {
	snap := snapWith(models.PendingCreate, models.Clean, models.PendingDelete)

	pending := PendingRecords(snap)

	assert.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}
