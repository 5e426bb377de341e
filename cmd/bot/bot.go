package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/dexarb/balance"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/notify"
	"github.com/michaelpento.lv/dexarb/strategies/arbitrage"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"go.uber.org/zap"
)

// ErrRecoveredPanic is returned by Run after a tick panicked
var ErrRecoveredPanic = errors.New("recovered panic")

// RouteSource yields the next route to evaluate
type RouteSource interface {
	Next() (types.Route, error)
}

// Evaluator decides on and executes a single route
type Evaluator interface {
	EvaluateAndMaybeTrade(ctx context.Context, route types.Route) (types.TradeOutcome, error)
}

// Balances refreshes and reports the contract holdings
type Balances interface {
	Refresh(ctx context.Context) error
	Report(ctx context.Context) ([]types.BalanceLine, error)
}

// Heartbeat is told about every completed tick
type Heartbeat interface {
	Beat()
}

type nopHeartbeat struct{}

func (nopHeartbeat) Beat() {}

// Deps are the collaborators of a bot instance
type Deps struct {
	Signer    common.Address
	Balances  Balances
	Routes    RouteSource
	Engine    Evaluator
	Notifier  notify.Notifier
	Metrics   *metrics.EngineMetrics
	Heartbeat Heartbeat   // optional
	Critical  *zap.Logger // receives panics with their stack; defaults to the main logger
}

// Bot drives the decision loop of one deployment
type Bot struct {
	cfg      *config.Config
	deps     Deps
	logger   *zap.Logger
	critical *zap.Logger
}

// New creates a new bot instance
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Bot {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Heartbeat == nil {
		deps.Heartbeat = nopHeartbeat{}
	}
	critical := deps.Critical
	if critical == nil {
		critical = logger
	}

	return &Bot{
		cfg:      cfg,
		deps:     deps,
		logger:   logger.Named("bot"),
		critical: critical,
	}
}

// Run evaluates routes until ctx is cancelled. Tick failures are logged and
// followed by a backoff; invariant violations and panics end the run.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting dexarb",
		zap.String("network", b.cfg.Network),
		zap.String("signer", b.deps.Signer.Hex()),
		zap.String("contract", b.cfg.ContractAddress))
	b.deps.Notifier.Send(fmt.Sprintf("dexarb started on %s as %s", b.cfg.Network, b.deps.Signer.Hex()))

	if err := b.deps.Balances.Refresh(ctx); err != nil {
		return fmt.Errorf("initial balance refresh: %w", err)
	}
	if _, err := b.deps.Balances.Report(ctx); err != nil {
		return err
	}
	lastReport := time.Now()
	b.deps.Heartbeat.Beat()

	for {
		if ctx.Err() != nil {
			return b.stopped()
		}

		err := b.tick(ctx)
		b.deps.Heartbeat.Beat()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return b.stopped()
		case errors.Is(err, ErrRecoveredPanic):
			b.deps.Notifier.Send(fmt.Sprintf("dexarb halted: %v", err))
			return err
		case isInvariant(err):
			b.deps.Metrics.Errors.WithLabelValues(metrics.ErrorKindInvalid).Inc()
			b.logger.Error("Invariant violated, stopping", zap.Error(err))
			b.deps.Notifier.Send(fmt.Sprintf("dexarb halted: %v", err))
			return err
		default:
			b.deps.Metrics.Errors.WithLabelValues(metrics.ErrorKindTick).Inc()
			b.logger.Warn("Tick failed", zap.Error(err))
			b.deps.Notifier.Send(fmt.Sprintf("tick failed: %v", err))
			if !sleep(ctx, b.cfg.Engine.BackoffInterval.Duration) {
				return b.stopped()
			}
		}

		if interval := b.cfg.Engine.ReportInterval.Duration; interval > 0 && time.Since(lastReport) >= interval {
			if err := b.report(ctx); err != nil {
				return err
			}
			lastReport = time.Now()
		}
	}
}

func (b *Bot) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.deps.Metrics.Errors.WithLabelValues(metrics.ErrorKindPanic).Inc()
			b.logger.Error("Panic in tick", zap.Any("panic", r), zap.Stack("stack"))
			b.critical.Error("Panic in tick", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrRecoveredPanic, r)
		}
	}()

	route, err := b.deps.Routes.Next()
	if err != nil {
		return err
	}

	outcome, err := b.deps.Engine.EvaluateAndMaybeTrade(ctx, route)
	if err != nil {
		return fmt.Errorf("route %s: %w", route, err)
	}
	b.logger.Debug("Route evaluated", zap.Stringer("route", route), zap.Stringer("outcome", outcome))
	return nil
}

func (b *Bot) report(ctx context.Context) error {
	if err := b.deps.Balances.Refresh(ctx); err != nil {
		b.logger.Warn("Periodic refresh failed", zap.Error(err))
	}
	if _, err := b.deps.Balances.Report(ctx); err != nil {
		if isInvariant(err) {
			return err
		}
		b.logger.Warn("Periodic report failed", zap.Error(err))
	}

	s := b.deps.Metrics.Snapshot()
	b.deps.Notifier.Send(fmt.Sprintf("status: %.0f evaluations, %.0f trades, %.0f nonce retries", s.Ticks, s.Executions, s.Retries))
	return nil
}

func (b *Bot) stopped() error {
	b.logger.Info("Stopping dexarb")
	return nil
}

func isInvariant(err error) bool {
	return errors.Is(err, arbitrage.ErrInvalidRoute) || errors.Is(err, balance.ErrInconsistentState)
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
