package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniclink/recordsync/internal/logger"
	"github.com/cliniclink/recordsync/internal/service"
	"github.com/cliniclink/recordsync/internal/store"
	"github.com/cliniclink/recordsync/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	storages := store.Storages{RecordRepository: store.NewMemoryRecordRepository()}
	services := service.NewServices(storages, logger.Nop())
	handler := NewHandler(services, logger.Nop())

	srv := httptest.NewServer(handler.Init())
	t.Cleanup(srv.Close)
	return srv
}

func wireRecord(t *testing.T, id string, marker models.SyncMarker, payload string) models.WireRecord {
	t.Helper()
	return models.WireRecord{
		ID:           id,
		LastModified: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Marker:       marker,
		Payload:      json.RawMessage(payload),
	}
}

func pushBatch(t *testing.T, srv *httptest.Server, collection string, records ...models.WireRecord) []string {
	t.Helper()

	body, err := json.Marshal(pushRequest{Collection: collection, Records: records})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/api/records/push", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed pushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed.Confirmed
}

func listCollection(t *testing.T, srv *httptest.Server, collection string) []models.WireRecord {
	t.Helper()

	resp, err := http.Get(srv.URL + "/api/records/?collection=" + collection)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []models.WireRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func TestHandler_Ping(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestHandler_TraceIDEchoed(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set("X-Trace-ID", "trace-from-client")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "trace-from-client", resp.Header.Get("X-Trace-ID"))
}

func TestHandler_ListRequiresCollection(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/records/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_PushThenList(t *testing.T) {
	srv := newTestServer(t)

	confirmed := pushBatch(t, srv, "vitals",
		wireRecord(t, "obs-1", models.PendingCreate, `{"value":98.6}`),
		wireRecord(t, "obs-2", models.PendingCreate, `{"value":72}`),
	)
	assert.ElementsMatch(t, []string{"obs-1", "obs-2"}, confirmed)

	records := listCollection(t, srv, "vitals")
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, models.Clean, rec.Marker)
	}
	assert.Equal(t, "obs-1", records[0].ID)
	assert.Equal(t, "obs-2", records[1].ID)
}

func TestHandler_PushConfirmsDeletes(t *testing.T) {
	srv := newTestServer(t)

	pushBatch(t, srv, "vitals", wireRecord(t, "obs-1", models.PendingCreate, `{}`))

	confirmed := pushBatch(t, srv, "vitals", wireRecord(t, "obs-1", models.PendingDelete, `{}`))
	assert.Equal(t, []string{"obs-1"}, confirmed)

	assert.Empty(t, listCollection(t, srv, "vitals"))
}

func TestHandler_PushEmptyBatch(t *testing.T) {
	srv := newTestServer(t)

	confirmed := pushBatch(t, srv, "vitals")
	assert.Empty(t, confirmed)
}

func TestHandler_PushInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/records/push", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_UpsertRecord(t *testing.T) {
	srv := newTestServer(t)

	body, err := json.Marshal(wireRecord(t, "ignored-id", models.PendingUpdate, `{"value":120}`))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/records/obs-9?collection=vitals", bytes.NewReader(body))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.WireRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stored))
	assert.Equal(t, "obs-9", stored.ID, "path id wins over the body id")
	assert.Equal(t, models.Clean, stored.Marker)

	records := listCollection(t, srv, "vitals")
	require.Len(t, records, 1)
	assert.Equal(t, "obs-9", records[0].ID)
}

func TestHandler_DeleteRecord(t *testing.T) {
	srv := newTestServer(t)

	pushBatch(t, srv, "vitals", wireRecord(t, "obs-1", models.PendingCreate, `{}`))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/records/obs-1?collection=vitals", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Empty(t, listCollection(t, srv, "vitals"))
}

func TestHandler_DeleteMissingRecord(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/records/ghost?collection=vitals", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_CollectionsAreIsolated(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 3; i++ {
		pushBatch(t, srv, "vitals", wireRecord(t, fmt.Sprintf("obs-%d", i), models.PendingCreate, `{}`))
	}
	pushBatch(t, srv, "allergies", wireRecord(t, "al-1", models.PendingCreate, `{}`))

	assert.Len(t, listCollection(t, srv, "vitals"), 3)
	assert.Len(t, listCollection(t, srv, "allergies"), 1)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty collection", service.ErrEmptyCollection, http.StatusBadRequest},
		{"empty record id", service.ErrEmptyRecordID, http.StatusBadRequest},
		{"record not found", store.ErrRecordNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("outer: %w", store.ErrRecordNotFound), http.StatusNotFound},
		{"query error", store.ErrExecutingQuery, http.StatusInternalServerError},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}
