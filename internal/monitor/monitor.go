// Package monitor observes connectivity to the remote record API. It polls a
// reachability probe, exposes the current state, and fires edge-triggered
// callbacks on online/offline transitions. Short connectivity losses are
// debounced: a loss shorter than the grace window never surfaces as an
// Offline transition.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/cliniclink/recordsync/internal/logger"
)

//go:generate mockgen -source=monitor.go -destination=../mock/probe_mock.go -package=mock

// Probe checks reachability of the remote source. Implementations must be
// safe for concurrent use and should bound their own timeout.
type Probe interface {
	// Check reports whether the remote source is currently reachable.
	Check(ctx context.Context) bool
}

const (
	defaultProbeInterval = 15 * time.Second
	defaultGrace         = 5 * time.Second
)

// Monitor polls a Probe and tracks connectivity state. The zero value is not
// usable; construct with NewMonitor.
type Monitor struct {
	probe    Probe
	interval time.Duration
	grace    time.Duration
	logger   *logger.Logger

	mu        sync.Mutex
	online    bool
	downSince time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	subMu     sync.RWMutex
	onOnline  []func()
	onOffline []func()
}

// NewMonitor constructs a Monitor. Zero or negative interval and grace fall
// back to 15s and 5s respectively. The monitor starts optimistic (online)
// until the first probe says otherwise; Start runs an immediate probe before
// returning, so callers observe a validated state.
func NewMonitor(probe Probe, interval, grace time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	if grace <= 0 {
		grace = defaultGrace
	}

	return &Monitor{
		probe:    probe,
		interval: interval,
		grace:    grace,
		logger:   log,
		online:   true,
	}
}

// OnOnline registers a callback fired on every offline→online transition.
// Registration is not synchronized with Start; register before starting.
func (m *Monitor) OnOnline(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// OnOffline registers a callback fired on every online→offline transition.
func (m *Monitor) OnOffline(fn func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.onOffline = append(m.onOffline, fn)
}

// Online returns the current debounced connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Check runs an immediate probe and applies the transition logic. It returns
// the raw probe result, which is also the validated state callers need
// before resuming a sync ("re-validated, not assumed").
func (m *Monitor) Check(ctx context.Context) bool {
	return m.observe(m.probe.Check(ctx))
}

// Start stops any previous polling loop, probes once synchronously, and then
// polls every interval until ctx is cancelled or Stop is called. While a
// failure is inside the grace window the next probe is scheduled after the
// remaining grace instead of the full interval, so a real outage is detected
// promptly.
func (m *Monitor) Start(ctx context.Context) {
	m.Stop()

	m.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	m.Check(loopCtx)

	go func() {
		defer m.wg.Done()
		t := time.NewTimer(m.nextDelay())
		defer t.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				m.Check(loopCtx)
				t.Reset(m.nextDelay())
			}
		}
	}()
}

// Stop cancels the polling loop and blocks until it has exited. Safe to call
// when the monitor is not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// observe folds one probe result into the debounced state and fires edge
// callbacks outside the lock. Returns the raw result.
func (m *Monitor) observe(reachable bool) bool {
	var fire []func()

	m.mu.Lock()
	switch {
	case reachable:
		m.downSince = time.Time{}
		if !m.online {
			m.online = true
			m.logger.Info().Msg("connectivity restored")
			fire = m.snapshotSubs(true)
		}

	case m.online:
		if m.downSince.IsZero() {
			// first failure: start the grace window, no transition yet
			m.downSince = time.Now()
		} else if time.Since(m.downSince) >= m.grace {
			m.online = false
			m.logger.Warn().Dur("grace", m.grace).Msg("connectivity lost")
			fire = m.snapshotSubs(false)
		}
	}
	m.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
	return reachable
}

func (m *Monitor) snapshotSubs(online bool) []func() {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	src := m.onOffline
	if online {
		src = m.onOnline
	}
	out := make([]func(), len(src))
	copy(out, src)
	return out
}

// nextDelay shortens the polling period while a failure sits inside the
// grace window.
func (m *Monitor) nextDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online && !m.downSince.IsZero() {
		remaining := m.grace - time.Since(m.downSince)
		if remaining < time.Millisecond {
			remaining = time.Millisecond
		}
		if remaining < m.interval {
			return remaining
		}
	}
	return m.interval
}
