package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance chain. Nil-safe.
type Metrics struct {
	ModuleChecks *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ModuleChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aurum_compliance_module_checks_total",
			Help: "Module predicate evaluations by module and outcome",
		}, []string{"module", "outcome"}),
	}
}

func (m *Metrics) IncCheck(module, outcome string) {
	if m != nil {
		m.ModuleChecks.WithLabelValues(module, outcome).Inc()
	}
}
