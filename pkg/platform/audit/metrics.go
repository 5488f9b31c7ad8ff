package audit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit pipeline. All methods are
// nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	Emitted     *prometheus.CounterVec
	Failed      *prometheus.CounterVec
	EmitLatency prometheus.Histogram
}

// NewMetrics registers audit pipeline metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_audit_events_emitted_total",
			Help: "Audit events successfully persisted, by action",
		}, []string{"action"}),

		Failed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_audit_events_failed_total",
			Help: "Audit events that failed to persist, by action",
		}, []string{"action"}),

		EmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aurum_audit_emit_duration_seconds",
			Help:    "Duration of synchronous audit writes",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

func (m *Metrics) IncEmitted(action string) {
	if m != nil {
		m.Emitted.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncFailed(action string) {
	if m != nil {
		m.Failed.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) ObserveEmitLatency(d time.Duration) {
	if m != nil {
		m.EmitLatency.Observe(d.Seconds())
	}
}
