package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the registry engine.
type Metrics struct {
	FermageComputations *prometheus.CounterVec   // rent computations by outcome (computed, no_rates)
	PartsTransferred    prometheus.Counter       // shares reassigned by transfers
	PartsSkipped        prometheus.Counter       // transfer ids that matched no share
	ConcurrentConflicts prometheus.Counter       // transfers aborted by a version mismatch
	Anomalies           *prometheus.GaugeVec     // last anomaly counts by kind
	QueryDuration       *prometheus.HistogramVec // aggregate query latency by operation
}

// New registers the collectors on reg, the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FermageComputations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gersa_fermage_computations_total",
				Help: "Rent computations by outcome",
			},
			[]string{"outcome"},
		),
		PartsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Name: "gersa_parts_transferred_total",
			Help: "Shares reassigned to a new owner",
		}),
		PartsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "gersa_parts_transfer_skipped_total",
			Help: "Requested share ids that did not exist",
		}),
		ConcurrentConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "gersa_concurrent_update_conflicts_total",
			Help: "Transfers aborted because a share changed concurrently",
		}),
		Anomalies: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gersa_anomalies",
				Help: "Records failing a consistency check, by kind",
			},
			[]string{"kind"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gersa_query_duration_seconds",
				Help:    "Duration of aggregate queries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// ObserveSince records the elapsed time of op.
func (m *Metrics) ObserveSince(op string, start time.Time) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Nop returns metrics bound to a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}
