package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPricingMetrics_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)

	m.IncSuccess("compute")
	m.IncSuccess("compute")
	m.IncFailure("simulate")
	m.AddRows("bulk_update", 42)
	m.ObserveDuration("compute", 150*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.success.WithLabelValues("compute")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("simulate")))
	require.Equal(t, float64(42), testutil.ToFloat64(m.rows.WithLabelValues("bulk_update")))
}

func TestPricingMetrics_EmptyLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPricingMetrics(reg)

	m.IncSuccess("")
	require.Equal(t, float64(1), testutil.ToFloat64(m.success.WithLabelValues("unknown")))
}

func TestPricingMetrics_NilSafe(t *testing.T) {
	var m *PricingMetrics
	require.NotPanics(t, func() {
		m.IncSuccess("compute")
		m.IncFailure("compute")
		m.AddRows("compute", 5)
		m.ObserveDuration("compute", time.Second)
	})

	unregistered := NewPricingMetrics(nil)
	require.NotPanics(t, func() {
		unregistered.IncSuccess("compute")
	})
}
