package jobs

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordOnCustomRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track(TaskListingRefresh).End(nil))
	failure := errors.New("upstream down")
	require.ErrorIs(t, metrics.Track(TaskListingRefresh).End(failure), failure)

	families, err := registry.Gather()
	require.NoError(t, err)

	counters := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, label := range m.GetLabel() {
				key += "|" + label.GetValue()
			}
			if m.GetCounter() != nil {
				counters[key] = m.GetCounter().GetValue()
			}
		}
	}

	require.Equal(t, 1.0, counters["atelier_jobs_total|"+TaskListingRefresh+"|success"])
	require.Equal(t, 1.0, counters["atelier_jobs_total|"+TaskListingRefresh+"|failure"])
	require.Equal(t, 1.0, counters["atelier_jobs_failures_total|"+TaskListingRefresh])
}

func TestMetricsNilTrackerIsSafe(t *testing.T) {
	var metrics *Metrics
	err := errors.New("boom")
	require.ErrorIs(t, metrics.Track("anything").End(err), err)
}
