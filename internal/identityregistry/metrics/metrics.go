package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity registry. Methods are
// nil-safe so tests can skip wiring.
type Metrics struct {
	VerificationOutcome *prometheus.CounterVec
	VerificationLatency prometheus.Histogram
	CountryCacheHits    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		VerificationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_registry_verifications_total",
			Help: "isVerified outcomes by result and failure reason",
		}, []string{"result", "reason"}),

		VerificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aurum_registry_verification_duration_seconds",
			Help:    "Duration of full isVerified evaluations",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),

		CountryCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_registry_country_cache_total",
			Help: "Country cache lookups by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncVerification(result, reason string) {
	if m != nil {
		m.VerificationOutcome.WithLabelValues(result, reason).Inc()
	}
}

func (m *Metrics) ObserveVerification(d time.Duration) {
	if m != nil {
		m.VerificationLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncCountryCache(outcome string) {
	if m != nil {
		m.CountryCacheHits.WithLabelValues(outcome).Inc()
	}
}
