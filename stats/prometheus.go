package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

const counterLabel = "counter"

type promCollector struct {
	collector
	vec      *prometheus.CounterVec
	counters [NumCounters]prometheus.Counter
}

// NewPrometheusCollector exports every counter as ggp_events_total{counter=...}
// on reg, in addition to keeping the local snapshot.
func NewPrometheusCollector(reg prometheus.Registerer) (Collector, error) {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ggp",
			Name:      "events_total",
			Help:      "Monotonic count of compiler, evaluator and search events",
		},
		[]string{counterLabel},
	)
	if err := reg.Register(vec); err != nil {
		return nil, err
	}

	m := &promCollector{vec: vec}
	for c := Counter(0); c < NumCounters; c++ {
		m.counters[c] = vec.WithLabelValues(c.String())
	}
	return m, nil
}

func (m *promCollector) Add(c Counter, delta int64) {
	m.collector.Add(c, delta)
	m.counters[c].Add(float64(delta))
}
