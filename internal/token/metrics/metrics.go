package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the token ledger. Nil-safe.
type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_token_operations_total",
			Help: "Ledger operations by type and outcome",
		}, []string{"operation", "outcome"}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aurum_token_operation_duration_seconds",
			Help:    "Duration of ledger operations by type",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncOperation(op, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(op, outcome).Inc()
	}
}

func (m *Metrics) ObserveOperation(op string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(op).Observe(d.Seconds())
	}
}
