package poller

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the polling loop's Prometheus collectors.
type Metrics struct {
	CyclesTotal        prometheus.Counter
	CyclesSkippedTotal prometheus.Counter
	CycleDuration      prometheus.Histogram
	PollsTotal         *prometheus.CounterVec
}

// NewMetrics creates the polling metrics and registers them with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Number of polling cycles run.",
		}),
		CyclesSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_skipped_total",
			Help:      "Number of scheduled cycles skipped because the previous cycle was still running.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of each polling cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Number of individual meeting polls by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.CyclesTotal, m.CyclesSkippedTotal, m.CycleDuration, m.PollsTotal)
	}
	return m
}
