package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestsTotal_Increments(t *testing.T) {
	c := RequestsTotal.WithLabelValues("GET", "api/metrics-test", OutcomeSuccess)
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRequestDuration_Observes(t *testing.T) {
	RequestDuration.WithLabelValues("POST", "api/metrics-test").Observe(0.25)

	h, ok := RequestDuration.WithLabelValues("POST", "api/metrics-test").(prometheus.Histogram)
	require.True(t, ok)

	var m dto.Metric
	require.NoError(t, h.Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestCollectorsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "api/metrics-test", OutcomeSuccess).Add(0)
	RequestDuration.WithLabelValues("GET", "api/metrics-test").Observe(0)
	SnapshotsTotal.WithLabelValues(SnapshotAccepted).Inc()
	NonceFallbackTotal.Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"risc_client_requests_total",
		"risc_client_request_duration_seconds",
		"risc_client_snapshots_total",
		"risc_client_nonce_fallback_total",
	} {
		assert.True(t, names[want], "expected %s to be registered", want)
	}
}
