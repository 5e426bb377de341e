package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestHeartbeatCheck(t *testing.T) {
	h := NewHeartbeat(prometheus.NewRegistry(), "test", time.Minute, zaptest.NewLogger(t))

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	h.Beat()
	assert.NoError(t, h.Check())
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(h.metrics.lastBeat))

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, h.Check(), ErrStalled)

	h.collect()
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.stalled))

	h.Beat()
	h.collect()
	assert.NoError(t, h.Check())
	assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.stalled))
}

func TestHeartbeatZeroMaxAgeNeverStalls(t *testing.T) {
	h := NewHeartbeat(prometheus.NewRegistry(), "test", 0, zaptest.NewLogger(t))
	h.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.NoError(t, h.Check())
}

func TestHeartbeatStartStops(t *testing.T) {
	h := NewHeartbeat(prometheus.NewRegistry(), "test", time.Nanosecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx, time.Millisecond)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.stalled) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	h.Wait()
}
