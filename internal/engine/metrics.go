package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and turns every observation into a no-op, so tests and fetch-only embeds
// can skip registration entirely.
type Metrics struct {
	syncPasses     *prometheus.CounterVec
	fetchFailures  prometheus.Counter
	conflicts      prometheus.Counter
	pendingRecords prometheus.Gauge
}

// NewMetrics registers the engine collectors with reg, labelled by the
// collection name.
func NewMetrics(reg prometheus.Registerer, collection string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"collection": collection}

	return &Metrics{
		syncPasses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "recordsync",
			Name:        "sync_passes_total",
			Help:        "Reconciliation passes by result (success, error, discarded).",
			ConstLabels: labels,
		}, []string{"result"}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "recordsync",
			Name:        "fetch_failures_total",
			Help:        "Remote fetches that returned an error.",
			ConstLabels: labels,
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "recordsync",
			Name:        "conflicts_total",
			Help:        "Record ids present on both sides during reconciliation.",
			ConstLabels: labels,
		}),
		pendingRecords: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   "recordsync",
			Name:        "pending_records",
			Help:        "Records carrying an unconfirmed local mutation.",
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) observePass(result string) {
	if m == nil {
		return
	}
	m.syncPasses.WithLabelValues(result).Inc()
}

func (m *Metrics) observeFetchFailure() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) observeConflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pendingRecords.Set(float64(n))
}
