package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

// Skip reasons and error kinds
const (
	SkipZeroSize     = "zero_size"
	SkipBelowTarget  = "below_profit_target"
	SkipBelowGasCost = "below_gas_adjusted_target"
	ErrorKindTick    = "tick"
	ErrorKindInvalid = "invariant"
	ErrorKindPanic   = "panic"
)

// EngineMetrics instruments the decision loop of one bot instance
type EngineMetrics struct {
	Ticks          prometheus.Counter
	Skips          *prometheus.CounterVec
	Executions     prometheus.Counter
	NonceRetries   prometheus.Counter
	Errors         *prometheus.CounterVec
	DriftBps       *prometheus.GaugeVec
	GasUnits       prometheus.Histogram
	GasPrice       prometheus.Histogram
	EvaluationTime prometheus.Histogram
}

// NewEngineMetrics registers the engine collectors on reg
func NewEngineMetrics(reg prometheus.Registerer, namespace string) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of route evaluations",
		}),
		Skips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Route evaluations that did not trade, by reason",
		}, []string{"reason"}),
		Executions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of confirmed trades",
		}),
		NonceRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nonce_retries_total",
			Help:      "Trade resubmissions after a nonce conflict",
		}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"kind"}),
		DriftBps: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance_drift_bps",
			Help:      "Balance drift since start of run in basis points",
		}, []string{"symbol"}),
		GasUnits: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trade_gas_units",
			Help:      "Estimated gas units of a trade",
			Buckets:   prometheus.ExponentialBuckets(50000, 2, 8),
		}),
		GasPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gas_price",
			Help:      "Gas price distribution",
			Buckets:   prometheus.ExponentialBuckets(1e7, 2, 15),
		}),
		EvaluationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_seconds",
			Help:      "Time taken to evaluate a route",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Snapshot is a point-in-time copy of the main counters
type Snapshot struct {
	Ticks      float64
	Executions float64
	Retries    float64
}

// Snapshot reads the counters through the collector interface
func (m *EngineMetrics) Snapshot() Snapshot {
	return Snapshot{
		Ticks:      counterValue(m.Ticks),
		Executions: counterValue(m.Executions),
		Retries:    counterValue(m.NonceRetries),
	}
}

func counterValue(c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil || metric.Counter == nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// Serve exposes /metrics and /healthz on addr until ctx is done.
// health may be nil; a non-nil error from it turns /healthz into a 503.
// An empty addr disables the server.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, health func() error, log *zap.Logger) {
	if addr == "" {
		log.Info("metrics disabled: empty addr")
		return
	}

	mux := newMux(gatherer, health)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("metrics server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown error", zap.Error(err))
		}
	}()
}

func newMux(gatherer prometheus.Gatherer, health func() error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	return mux
}
