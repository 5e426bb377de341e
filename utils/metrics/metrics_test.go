package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg, "test_engine")
	assert.NotNil(t, metrics)

	// Test counter operations
	metrics.Ticks.Inc()
	metrics.Ticks.Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Ticks))

	metrics.Skips.WithLabelValues(SkipBelowTarget).Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Skips.WithLabelValues(SkipBelowTarget)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.Skips.WithLabelValues(SkipZeroSize)))

	// Test gauge operations
	metrics.DriftBps.WithLabelValues("USDC").Set(-25)
	assert.Equal(t, float64(-25), testutil.ToFloat64(metrics.DriftBps.WithLabelValues("USDC")))

	// For histograms we can only verify that they accept observations
	metrics.GasUnits.Observe(210000)
	metrics.EvaluationTime.Observe(0.2)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.GasUnits))
}

func TestSnapshot(t *testing.T) {
	metrics := NewEngineMetrics(prometheus.NewRegistry(), "test_snapshot")

	metrics.Ticks.Add(10)
	metrics.Executions.Inc()
	metrics.NonceRetries.Add(2)

	snap := metrics.Snapshot()
	assert.Equal(t, float64(10), snap.Ticks)
	assert.Equal(t, float64(1), snap.Executions)
	assert.Equal(t, float64(2), snap.Retries)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewEngineMetrics(prometheus.NewRegistry(), "dexarb")
	b := NewEngineMetrics(prometheus.NewRegistry(), "dexarb")

	a.Ticks.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Ticks))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Ticks))
}

func TestHealthzReflectsHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewEngineMetrics(reg, "test_engine").Ticks.Inc()

	var healthErr error
	srv := httptest.NewServer(newMux(reg, func() error { return healthErr }))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthErr = errors.New("stalled")
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_engine_ticks_total 1")
}
