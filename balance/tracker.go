// Package balance keeps the arb contract's holdings of every base asset and
// reports how far each has drifted since the start of the run.
package balance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/notify"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/michaelpento.lv/dexarb/utils/math"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"go.uber.org/zap"
)

// ErrInconsistentState is returned when a configured base asset has no balance record
var ErrInconsistentState = errors.New("balance tracker state is inconsistent")

// Reader reads ERC20 balances
type Reader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

type asset struct {
	symbol  string
	address common.Address
}

// Tracker owns the balance records of one bot instance
type Tracker struct {
	reader   Reader
	contract common.Address
	assets   []asset
	notifier notify.Notifier
	metrics  *metrics.EngineMetrics
	logger   *zap.Logger

	mu      sync.RWMutex
	records map[common.Address]*types.BalanceRecord
}

// NewTracker creates a tracker for the base assets of cfg
func NewTracker(reader Reader, cfg *config.Config, n notify.Notifier, m *metrics.EngineMetrics, logger *zap.Logger) *Tracker {
	assets := make([]asset, 0, len(cfg.BaseAssets))
	for _, a := range cfg.BaseAssets {
		assets = append(assets, asset{symbol: a.Symbol, address: common.HexToAddress(a.Address)})
	}

	return &Tracker{
		reader:   reader,
		contract: cfg.Contract(),
		assets:   assets,
		notifier: n,
		metrics:  m,
		logger:   logger.Named("balance"),
		records:  make(map[common.Address]*types.BalanceRecord),
	}
}

// Refresh reads the contract balance of every base asset. Nothing is
// updated unless every read succeeds.
func (t *Tracker) Refresh(ctx context.Context) error {
	current := make([]*big.Int, len(t.assets))
	for i, a := range t.assets {
		bal, err := t.reader.BalanceOf(ctx, a.address, t.contract)
		if err != nil {
			return fmt.Errorf("failed to refresh %s balance: %w", a.symbol, err)
		}
		current[i] = bal
	}

	t.mu.Lock()
	for i, a := range t.assets {
		if rec, ok := t.records[a.address]; ok {
			rec.Current = current[i]
			continue
		}
		t.records[a.address] = &types.BalanceRecord{
			Symbol:  a.symbol,
			Current: current[i],
			Start:   new(big.Int).Set(current[i]),
		}
	}
	t.mu.Unlock()

	parts := make([]string, len(t.assets))
	fields := make([]zap.Field, len(t.assets))
	for i, a := range t.assets {
		parts[i] = fmt.Sprintf("%s=%s", a.symbol, current[i])
		fields[i] = zap.String(a.symbol, current[i].String())
	}
	t.logger.Info("Balances refreshed", fields...)
	t.notifier.Send("balances: " + strings.Join(parts, ", "))
	return nil
}

// Balance returns the last observed balance of an asset
func (t *Tracker) Balance(addr common.Address) (*big.Int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[addr]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(rec.Current), true
}

// Report returns one line per configured base asset in config order
func (t *Tracker) Report(_ context.Context) ([]types.BalanceLine, error) {
	t.mu.RLock()
	lines := make([]types.BalanceLine, 0, len(t.assets))
	for _, a := range t.assets {
		rec, ok := t.records[a.address]
		if !ok {
			t.mu.RUnlock()
			return nil, fmt.Errorf("%w: no record for %s", ErrInconsistentState, a.symbol)
		}
		lines = append(lines, types.BalanceLine{
			Symbol:   rec.Symbol,
			Start:    new(big.Int).Set(rec.Start),
			Current:  new(big.Int).Set(rec.Current),
			DriftBps: math.DriftBasisPoints(rec.Start, rec.Current),
		})
	}
	t.mu.RUnlock()

	text := make([]string, len(lines))
	for i, l := range lines {
		drift, _ := new(big.Float).SetInt(l.DriftBps).Float64()
		t.metrics.DriftBps.WithLabelValues(l.Symbol).Set(drift)
		t.logger.Info("Balance drift",
			zap.String("symbol", l.Symbol),
			zap.String("start", l.Start.String()),
			zap.String("current", l.Current.String()),
			zap.String("drift_bps", l.DriftBps.String()))
		text[i] = l.String()
	}
	t.notifier.Send(strings.Join(text, "\n"))

	return lines, nil
}
