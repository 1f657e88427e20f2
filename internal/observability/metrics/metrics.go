package metrics

import "github.com/prometheus/client_golang/prometheus"

// ToolMetrics exposes counters/histograms for tool calls and the upstream
// hospital API they fan out to.
type ToolMetrics struct {
	toolCalls       *prometheus.CounterVec
	toolLatency     *prometheus.HistogramVec
	upstreamLatency *prometheus.HistogramVec
	clinicProbes    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	searchVariants  *prometheus.HistogramVec
}

func NewToolMetrics(reg prometheus.Registerer) *ToolMetrics {
	m := &ToolMetrics{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Total tool invocations by outcome",
		}, []string{"tool", "outcome"}),
		toolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "tools",
			Name:      "call_duration_seconds",
			Help:      "Latency of tool invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "directory",
			Name:      "request_duration_seconds",
			Help:      "Latency of hospital API requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 50},
		}, []string{"endpoint", "outcome"}),
		clinicProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "resolver",
			Name:      "clinic_probes_total",
			Help:      "Clinic id probes by candidate source and outcome",
		}, []string{"source", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "resolver",
			Name:      "availability_cache_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),
		searchVariants: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "resolver",
			Name:      "search_variants_tried",
			Help:      "Number of search variants tried per resolution",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolCalls, m.toolLatency, m.upstreamLatency, m.clinicProbes, m.cacheLookups, m.searchVariants)
	return m
}

func (m *ToolMetrics) ObserveToolCall(tool, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(seconds)
}

func (m *ToolMetrics) ObserveUpstream(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(endpoint, outcome).Observe(seconds)
}

func (m *ToolMetrics) ObserveClinicProbe(source string, succeeded bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if succeeded {
		outcome = "hit"
	}
	m.clinicProbes.WithLabelValues(source, outcome).Inc()
}

func (m *ToolMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *ToolMetrics) ObserveSearchVariants(outcome string, tried int) {
	if m == nil {
		return
	}
	m.searchVariants.WithLabelValues(outcome).Observe(float64(tried))
}
