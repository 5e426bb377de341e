package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrStalled is returned by Check when the run loop has not completed a tick in time
var ErrStalled = errors.New("run loop stalled")

// Heartbeat tracks the liveness of the run loop
type Heartbeat struct {
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	last time.Time

	metrics struct {
		lastBeat prometheus.Gauge
		stalled  prometheus.Gauge
	}
	wg sync.WaitGroup
}

// NewHeartbeat creates a heartbeat that reports stalled after maxAge without a beat
func NewHeartbeat(reg prometheus.Registerer, namespace string, maxAge time.Duration, logger *zap.Logger) *Heartbeat {
	factory := promauto.With(reg)
	h := &Heartbeat{
		maxAge: maxAge,
		logger: logger.Named("heartbeat"),
		now:    time.Now,
	}
	h.last = h.now()

	h.metrics.lastBeat = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_tick_timestamp_seconds",
		Help:      "Unix time of the last completed tick",
	})
	h.metrics.stalled = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stalled",
		Help:      "1 when no tick completed within the stall timeout",
	})
	return h
}

// Beat records a completed tick
func (h *Heartbeat) Beat() {
	now := h.now()
	h.mu.Lock()
	h.last = now
	h.mu.Unlock()
	h.metrics.lastBeat.Set(float64(now.Unix()))
}

// Check returns ErrStalled when the last beat is older than maxAge
func (h *Heartbeat) Check() error {
	h.mu.Lock()
	age := h.now().Sub(h.last)
	h.mu.Unlock()

	if h.maxAge > 0 && age > h.maxAge {
		return fmt.Errorf("%w: last tick %s ago", ErrStalled, age.Truncate(time.Second))
	}
	return nil
}

// Start checks for a stall every interval until ctx is done
func (h *Heartbeat) Start(ctx context.Context, interval time.Duration) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.collect()
			}
		}
	}()
}

// Wait blocks until the checker started by Start has exited
func (h *Heartbeat) Wait() {
	h.wg.Wait()
}

func (h *Heartbeat) collect() {
	if err := h.Check(); err != nil {
		h.metrics.stalled.Set(1)
		h.logger.Warn("Run loop stalled", zap.Error(err))
		return
	}
	h.metrics.stalled.Set(0)
}
