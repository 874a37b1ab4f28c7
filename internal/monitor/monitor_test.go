package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliniclink/recordsync/internal/logger"
)

// stubProbe reports a settable reachability result.
type stubProbe struct {
	reachable atomic.Bool
}

func (s *stubProbe) Check(_ context.Context) bool {
	return s.reachable.Load()
}

func newTestMonitor(t *testing.T, probe Probe, grace time.Duration) *Monitor {
	t.Helper()
	return NewMonitor(probe, 5*time.Millisecond, grace, logger.Nop())
}

func TestMonitor_StartsWithValidatedState(t *testing.T) {
	probe := &stubProbe{}
	probe.reachable.Store(true)
	m := newTestMonitor(t, probe, 10*time.Millisecond)

	m.Start(context.Background())
	defer m.Stop()

	assert.True(t, m.Online())
}

// TestMonitor_FlapWithinGraceIsDebounced verifies that a connectivity loss
// shorter than the grace window never surfaces as an offline transition.
func TestMonitor_FlapWithinGraceIsDebounced(t *testing.T) {
	probe := &stubProbe{}
	probe.reachable.Store(true)

	var wentOffline atomic.Int32
	m := newTestMonitor(t, probe, 200*time.Millisecond)
	m.OnOffline(func() { wentOffline.Add(1) })

	m.Start(context.Background())
	defer m.Stop()

	// brief flap, well inside the grace window
	probe.reachable.Store(false)
	time.Sleep(30 * time.Millisecond)
	probe.reachable.Store(true)
	time.Sleep(50 * time.Millisecond)

	assert.True(t, m.Online())
	assert.Zero(t, wentOffline.Load(), "flap inside grace window must not transition to offline")
}

// TestMonitor_SustainedLossGoesOffline verifies that an outage longer than
// the grace window fires OnOffline exactly once, and that a later recovery
// fires OnOnline.
func TestMonitor_SustainedLossGoesOffline(t *testing.T) {
	probe := &stubProbe{}
	probe.reachable.Store(true)

	var offline, online atomic.Int32
	m := newTestMonitor(t, probe, 20*time.Millisecond)
	m.OnOffline(func() { offline.Add(1) })
	m.OnOnline(func() { online.Add(1) })

	m.Start(context.Background())
	defer m.Stop()

	probe.reachable.Store(false)
	require.Eventually(t, func() bool { return !m.Online() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), offline.Load())

	probe.reachable.Store(true)
	require.Eventually(t, func() bool { return m.Online() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), online.Load())
}

// TestMonitor_CheckRevalidates verifies that Check runs a fresh probe and
// reports the raw result immediately.
func TestMonitor_CheckRevalidates(t *testing.T) {
	probe := &stubProbe{}
	probe.reachable.Store(false)
	m := newTestMonitor(t, probe, time.Minute)

	assert.False(t, m.Check(context.Background()))

	probe.reachable.Store(true)
	assert.True(t, m.Check(context.Background()))
}

func TestHTTPProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	probe := NewHTTPProbe(srv.URL, time.Second)
	assert.True(t, probe.Check(context.Background()))

	srv.Close()
	assert.False(t, probe.Check(context.Background()))
}
