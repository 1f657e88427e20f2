package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolMetricsCountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewToolMetrics(reg)
	m.ObserveToolCall("resolve_doctor", "success", 0.2)
	m.ObserveToolCall("resolve_doctor", "success", 0.1)
	m.ObserveToolCall("resolve_doctor", "failure", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("resolve_doctor", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("resolve_doctor", "failure")))
}

func TestToolMetricsProbeAndCacheLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewToolMetrics(reg)
	m.ObserveClinicProbe("fallback", false)
	m.ObserveClinicProbe("fallback", true)
	m.ObserveCacheLookup(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.clinicProbes.WithLabelValues("fallback", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clinicProbes.WithLabelValues("fallback", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
}

func TestToolMetricsUpstreamHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewToolMetrics(reg)
	m.ObserveUpstream("search_individual", "ok", 0.3)
	m.ObserveSearchVariants("found", 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hist *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "hospital_directory_request_duration_seconds" {
			hist = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetSampleCount())
}

func TestToolMetricsNilSafe(t *testing.T) {
	var m *ToolMetrics
	m.ObserveToolCall("tool", "success", 0.1)
	m.ObserveUpstream("endpoint", "ok", 0.1)
	m.ObserveClinicProbe("primary", true)
	m.ObserveCacheLookup(false)
	m.ObserveSearchVariants("not_found", 4)
}
