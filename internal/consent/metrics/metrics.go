package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for consent operations.
type Metrics struct {
	DecisionsRecorded     *prometheus.CounterVec
	ConsentsWithdrawn     prometheus.Counter
	RecordsDiscarded      *prometheus.CounterVec
	ServiceChecks         *prometheus.CounterVec
	StoreOperationLatency *prometheus.HistogramVec
}

// New registers consent collectors on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_decisions_recorded_total",
			Help: "Total number of consent decisions persisted, labeled by action",
		}, []string{"action"}),
		ConsentsWithdrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "consent_withdrawn_total",
			Help: "Total number of consent records cleared",
		}),
		RecordsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_records_discarded_total",
			Help: "Stored records treated as absent, labeled by reason",
		}, []string{"reason"}),
		ServiceChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consent_service_checks_total",
			Help: "Service permission checks, labeled by result",
		}, []string{"result"}),
		StoreOperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consent_store_operation_latency_seconds",
			Help:    "Latency of consent store operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementDecisionsRecorded(action string) {
	if m == nil {
		return
	}
	m.DecisionsRecorded.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementConsentsWithdrawn() {
	if m == nil {
		return
	}
	m.ConsentsWithdrawn.Inc()
}

// IncrementRecordsDiscarded counts a load that fell back to "no consent".
// Reasons: malformed, version_mismatch, expired, unavailable.
func (m *Metrics) IncrementRecordsDiscarded(reason string) {
	if m == nil {
		return
	}
	m.RecordsDiscarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementServiceChecks(enabled bool) {
	if m == nil {
		return
	}
	result := "denied"
	if enabled {
		result = "allowed"
	}
	m.ServiceChecks.WithLabelValues(result).Inc()
}

// ObserveStoreOperationLatency records the latency of a store operation.
func (m *Metrics) ObserveStoreOperationLatency(operation string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.StoreOperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}
