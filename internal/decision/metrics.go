package decision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes routing counters. Nil *Metrics is valid and records
// nothing, so the decider works without a registry wired in.
type Metrics struct {
	decisions   *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics registers the decision counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "decision",
			Name:      "decisions_total",
			Help:      "Engine decisions by engine and resolution source.",
		}, []string{"engine", "source"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "decision",
			Name:      "cache_hits_total",
			Help:      "Decisions served from the LRU cache.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "janus",
			Subsystem: "decision",
			Name:      "cache_misses_total",
			Help:      "Decisions recomputed after a cache miss or expiry.",
		}),
	}
}

func (m *Metrics) decided(d Decision) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(d.Engine), string(d.Source)).Inc()
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) cacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}
