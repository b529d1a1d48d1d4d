package query

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the counters a host can register with its own
// Prometheus registry to observe the engine's cache behavior: hit
// rate, recomputation volume, and cycle recoveries around the LRU/
// durability model.
type Metrics struct {
	hitCount       prometheus.Counter
	recomputeCount prometheus.Counter
	cycleCount     prometheus.Counter
	setCount       prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		hitCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semcore_query_cache_hits_total",
			Help: "Queries resolved via early cutoff without recomputation.",
		}),
		recomputeCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semcore_query_recomputations_total",
			Help: "Queries whose body actually executed.",
		}),
		cycleCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semcore_query_cycles_total",
			Help: "Cycle recoveries triggered during evaluation.",
		}),
		setCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semcore_query_input_sets_total",
			Help: "Input values committed via Engine.Set.",
		}),
	}
}

// Collectors returns every metric so a host can register them, e.g.
// `for _, c := range engine.Metrics().Collectors() { registry.MustRegister(c) }`.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.hitCount, m.recomputeCount, m.cycleCount, m.setCount}
}
