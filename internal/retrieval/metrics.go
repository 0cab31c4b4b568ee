package retrieval

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Search outcomes recorded in the searches counter.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeUpstream = "upstream_error"
	OutcomeInvalid  = "invalid"
	OutcomePanic    = "panic"
)

// Metrics holds Prometheus collectors for retrieval.
type Metrics struct {
	searches           *prometheus.CounterVec
	degraded           *prometheus.CounterVec
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
	latency            *prometheus.HistogramVec
	candidates         prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kioku_searches_total",
			Help: "Searches by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kioku_degraded_signals_total",
			Help: "Ranked results whose signal fell back to a default, by signal.",
		}, []string{"signal"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kioku_result_cache_hits_total",
			Help: "Searches served from the result cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kioku_result_cache_misses_total",
			Help: "Searches not found in the result cache.",
		}),
		cacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kioku_result_cache_invalidations_total",
			Help: "Result cache invalidations caused by memory changes or config reloads.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kioku_search_duration_seconds",
			Help:    "Search latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"strategy"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kioku_search_candidates",
			Help:    "Candidates fetched from the vector index per search.",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
	if reg != nil {
		for _, c := range m.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searches, m.degraded, m.cacheHits, m.cacheMisses, m.cacheInvalidations, m.latency, m.candidates,
	}
}

func (m *Metrics) observeSearch(strategy, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(strategy, outcome).Inc()
	m.latency.WithLabelValues(strategy).Observe(seconds)
}

func (m *Metrics) observeCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}

func (m *Metrics) incDegraded(signal string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(signal).Inc()
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) cacheInvalidated() {
	if m != nil {
		m.cacheInvalidations.Inc()
	}
}
