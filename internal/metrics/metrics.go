// ABOUTME: Prometheus metrics for registry operations
// ABOUTME: Counters for creations, renames, and create failures by reason

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	RecordsCreated prometheus.Counter
	Renames        prometheus.Counter
	CreateFailures *prometheus.CounterVec
}

// New creates and registers all registry metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_records_created_total",
			Help: "Total number of records created and transferred to their owners",
		}),
		Renames: factory.NewCounter(prometheus.CounterOpts{
			Name: "warden_renames_total",
			Help: "Total number of successful record renames",
		}),
		CreateFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_create_failures_total",
			Help: "Total number of rejected create requests by reason",
		}, []string{"reason"}),
	}
}

// IncRecordsCreated increments the creation counter. Nil-safe so the registry
// can run without metrics wired.
func (m *Metrics) IncRecordsCreated() {
	if m != nil {
		m.RecordsCreated.Inc()
	}
}

// IncRenames increments the rename counter.
func (m *Metrics) IncRenames() {
	if m != nil {
		m.Renames.Inc()
	}
}

// IncCreateFailure increments the failure counter for a rejection reason.
func (m *Metrics) IncCreateFailure(reason string) {
	if m != nil {
		m.CreateFailures.WithLabelValues(reason).Inc()
	}
}
