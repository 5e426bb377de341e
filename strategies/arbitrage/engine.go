package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/dexarb/chain"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/dex"
	"github.com/michaelpento.lv/dexarb/notify"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/michaelpento.lv/dexarb/utils/math"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"go.uber.org/zap"
)

var (
	// ErrUnknownAsset is returned when the input token of a route has no tracked balance
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrNonceRetriesExhausted is returned when every resubmission hit a stale nonce
	ErrNonceRetriesExhausted = errors.New("nonce retries exhausted")
	// ErrConfirmTimeout is returned when a submitted trade is not mined within the confirm timeout
	ErrConfirmTimeout = errors.New("trade not confirmed in time")
)

// Balances is the view of the balance tracker the engine needs
type Balances interface {
	Balance(addr common.Address) (*big.Int, bool)
	Refresh(ctx context.Context) error
	Report(ctx context.Context) ([]types.BalanceLine, error)
}

// Simulator quotes a round trip on the arb contract
type Simulator interface {
	SimulateSwap(ctx context.Context, route types.Route, amount *big.Int) (*big.Int, error)
}

// CostEstimator prices the gas of a trade in its input token
type CostEstimator interface {
	EstimateCost(ctx context.Context, route types.Route, size *big.Int) (*big.Int, error)
}

// Executor sends trades and waits for them
type Executor interface {
	SubmitSwap(ctx context.Context, route types.Route, amount *big.Int, override *types.NonceOverride) (*ethtypes.Transaction, error)
	AwaitConfirmation(ctx context.Context, tx *ethtypes.Transaction) error
	AccountNonce(ctx context.Context) (uint64, error)
}

// Engine decides whether a route is worth trading and trades it
type Engine struct {
	minBps     int
	maxRetries int
	timeout    time.Duration
	confirm    time.Duration
	symbolOf   func(common.Address) (string, bool)

	balances Balances
	sim      Simulator
	costs    CostEstimator
	exec     Executor
	notifier notify.Notifier
	metrics  *metrics.EngineMetrics
	logger   *zap.Logger
}

// NewEngine creates a new trade engine
func NewEngine(cfg *config.Config, balances Balances, sim Simulator, costs CostEstimator, exec Executor,
	n notify.Notifier, m *metrics.EngineMetrics, logger *zap.Logger) *Engine {
	maxRetries := cfg.Engine.MaxNonceRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Engine{
		minBps:     cfg.MinBasisPoints,
		maxRetries: maxRetries,
		timeout:    cfg.Engine.RPCTimeout.Duration,
		confirm:    cfg.Engine.ConfirmTimeout.Duration,
		symbolOf:   cfg.SymbolOf,
		balances:   balances,
		sim:        sim,
		costs:      costs,
		exec:       exec,
		notifier:   n,
		metrics:    m,
		logger:     logger.Named("engine"),
	}
}

// EvaluateAndMaybeTrade trades the full tracked balance of route.Token1 when
// the simulated return beats both the profit target and the gas-adjusted target.
func (e *Engine) EvaluateAndMaybeTrade(ctx context.Context, route types.Route) (types.TradeOutcome, error) {
	e.metrics.Ticks.Inc()
	start := time.Now()
	defer func() {
		e.metrics.EvaluationTime.Observe(time.Since(start).Seconds())
	}()

	size, ok := e.balances.Balance(route.Token1)
	if !ok {
		return types.Skipped, fmt.Errorf("%w: %s", ErrUnknownAsset, route.Token1.Hex())
	}
	e.logger.Info("Route chosen", zap.Stringer("route", route), zap.String("size", size.String()))
	if size.Sign() == 0 {
		e.notifier.Send(fmt.Sprintf("route %s: no %s balance, skipped", route, e.symbol(route.Token1)))
		e.skip(route, metrics.SkipZeroSize)
		return types.Skipped, nil
	}

	simCtx, cancel := e.rpcContext(ctx)
	amountBack, err := e.sim.SimulateSwap(simCtx, route, size)
	cancel()
	if err != nil {
		return types.Skipped, err
	}

	target := math.ApplyMarkup(size, e.minBps)
	log := e.logger.With(
		zap.Stringer("route", route),
		zap.String("size", size.String()),
		zap.String("amount_back", amountBack.String()),
		zap.String("target", target.String()))

	if amountBack.Cmp(target) <= 0 {
		log.Info("Return below profit target")
		e.notifier.Send(fmt.Sprintf("route %s: %s back <= target %s, skipped", route, amountBack, target))
		e.skip(route, metrics.SkipBelowTarget)
		return types.Skipped, nil
	}

	costCtx, cancel := e.rpcContext(ctx)
	gasCost, err := e.costs.EstimateCost(costCtx, route, size)
	cancel()
	if err != nil {
		return types.Skipped, err
	}

	total := new(big.Int).Add(target, gasCost)
	if amountBack.Cmp(total) <= 0 {
		log.Info("Profit does not cover gas", zap.String("gas_cost", gasCost.String()), zap.String("total_target", total.String()))
		e.notifier.Send(fmt.Sprintf("route %s: %s back <= total target %s (gas %s), skipped", route, amountBack, total, gasCost))
		e.skip(route, metrics.SkipBelowGasCost)
		return types.Skipped, nil
	}

	log.Info("Executing trade", zap.String("gas_cost", gasCost.String()), zap.String("total_target", total.String()))
	e.notifier.Send(fmt.Sprintf("route %s: %s back > total target %s (gas %s), trading", route, amountBack, total, gasCost))
	tx, err := e.execute(ctx, route, size)
	if err != nil {
		return types.Skipped, err
	}

	e.metrics.Executions.Inc()
	profit := new(big.Int).Sub(amountBack, size)
	e.notifier.Send(fmt.Sprintf("trade executed %s: %s %s in, expected %s back (tx %s)",
		route, size, e.symbol(route.Token1), amountBack, tx.Hash().Hex()))
	log.Info("Trade confirmed",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("expected_profit", profit.String()))

	if err := e.balances.Refresh(ctx); err != nil {
		return types.Executed, fmt.Errorf("trade confirmed but refresh failed: %w", err)
	}
	if _, err := e.balances.Report(ctx); err != nil {
		return types.Executed, err
	}
	return types.Executed, nil
}

// execute submits the trade and waits for one confirmation. A stale nonce
// is retried with an explicit nonce up to maxRetries times.
func (e *Engine) execute(ctx context.Context, route types.Route, size *big.Int) (*ethtypes.Transaction, error) {
	var override *types.NonceOverride

	for attempt := 0; ; attempt++ {
		submitCtx, cancel := e.rpcContext(ctx)
		tx, err := e.exec.SubmitSwap(submitCtx, route, size, override)
		cancel()

		if err == nil {
			e.logSubmitted(tx)
			if err := e.await(ctx, tx); err != nil {
				return nil, err
			}
			return tx, nil
		}

		if !chain.IsNonceTooLow(err) {
			return nil, err
		}
		if attempt >= e.maxRetries {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrNonceRetriesExhausted, attempt+1, err)
		}

		nonceCtx, cancel := e.rpcContext(ctx)
		pending, nerr := e.exec.AccountNonce(nonceCtx)
		cancel()
		if nerr != nil {
			return nil, nerr
		}

		next := pending
		if override != nil && override.Nonce > next {
			next = override.Nonce
		}
		override = &types.NonceOverride{Nonce: next + 1}

		e.metrics.NonceRetries.Inc()
		e.logger.Warn("Nonce too low, resubmitting",
			zap.Int("attempt", attempt+1),
			zap.Uint64("nonce", override.Nonce),
			zap.Error(err))
	}
}

// await bounds the wait for tx so a trade that is never mined fails the tick
// instead of blocking the loop
func (e *Engine) await(ctx context.Context, tx *ethtypes.Transaction) error {
	waitCtx := ctx
	if e.confirm > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, e.confirm)
		defer cancel()
	}

	err := e.exec.AwaitConfirmation(waitCtx, tx)
	if err != nil && ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrConfirmTimeout, tx.Hash().Hex(), e.confirm)
	}
	return err
}

func (e *Engine) logSubmitted(tx *ethtypes.Transaction) {
	fields := []zap.Field{zap.String("tx_hash", tx.Hash().Hex()), zap.Uint64("nonce", tx.Nonce())}
	if call, err := dex.DecodeTrade(tx.Data()); err == nil {
		fields = append(fields,
			zap.String("method", call.Method),
			zap.Stringer("route", call.Route),
			zap.String("amount", call.Amount.String()))
	}
	e.logger.Info("Trade submitted", fields...)
}

func (e *Engine) skip(route types.Route, reason string) {
	e.metrics.Skips.WithLabelValues(reason).Inc()
	e.logger.Debug("Route skipped", zap.Stringer("route", route), zap.String("reason", reason))
}

func (e *Engine) symbol(addr common.Address) string {
	if s, ok := e.symbolOf(addr); ok {
		return s
	}
	return addr.Hex()
}

func (e *Engine) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}
