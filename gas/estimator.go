package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/oracle"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/michaelpento.lv/dexarb/utils/math"
	"github.com/michaelpento.lv/dexarb/utils/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const nativeDecimals = 18

// Simulator estimates gas for a trade and reads the network gas price
type Simulator interface {
	EstimateSwapGas(ctx context.Context, route types.Route, amount *big.Int) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
}

// TokenDecimals reads the decimals of an ERC20 token
type TokenDecimals interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// PriceOracle quotes the native asset in USD
type PriceOracle interface {
	NativeAssetPriceUSD(ctx context.Context) (float64, error)
}

// SymbolLookup maps a configured asset address to its symbol
type SymbolLookup func(addr common.Address) (string, bool)

// Estimator expresses the gas cost of a trade in units of its input token
type Estimator struct {
	sim           Simulator
	tokens        TokenDecimals
	prices        PriceOracle
	symbolOf      SymbolLookup
	wrappedNative string
	bumpPct       float64
	metrics       *metrics.EngineMetrics
	logger        *zap.Logger
}

// NewEstimator creates a new cost estimator
func NewEstimator(sim Simulator, tokens TokenDecimals, prices PriceOracle, symbolOf SymbolLookup,
	cfg config.EngineConfig, m *metrics.EngineMetrics, logger *zap.Logger) *Estimator {
	return &Estimator{
		sim:           sim,
		tokens:        tokens,
		prices:        prices,
		symbolOf:      symbolOf,
		wrappedNative: cfg.WrappedNativeSymbol,
		bumpPct:       cfg.GasPriceBumpPct,
		metrics:       m,
		logger:        logger.Named("gas"),
	}
}

// EstimateCost returns the gas cost of trading size along route, in the
// smallest unit of route.Token1.
//
// Non wrapped-native input tokens are assumed to be USD stablecoins: the
// native cost is converted through the native USD price and rounded up.
func (e *Estimator) EstimateCost(ctx context.Context, route types.Route, size *big.Int) (*big.Int, error) {
	units, err := e.sim.EstimateSwapGas(ctx, route, size)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	price, err := e.sim.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	price = math.BumpPct(price, e.bumpPct)

	e.metrics.GasUnits.Observe(float64(units))
	f, _ := new(big.Float).SetInt(price).Float64()
	e.metrics.GasPrice.Observe(f)

	nativeCost := new(big.Int).Mul(new(big.Int).SetUint64(units), price)

	if e.isWrappedNative(route.Token1) {
		e.logger.Debug("Gas cost in native asset",
			zap.Uint64("units", units),
			zap.String("price", price.String()),
			zap.String("cost", nativeCost.String()))
		return nativeCost, nil
	}

	usd, err := e.prices.NativeAssetPriceUSD(ctx)
	if err != nil {
		if !errors.Is(err, oracle.ErrPriceUnavailable) {
			err = fmt.Errorf("%w: %v", oracle.ErrPriceUnavailable, err)
		}
		return nil, err
	}

	decimals, err := e.tokens.Decimals(ctx, route.Token1)
	if err != nil {
		return nil, fmt.Errorf("failed to get decimals of %s: %w", route.Token1.Hex(), err)
	}

	costUSD := math.ToDecimal(nativeCost, nativeDecimals).Mul(decimal.NewFromFloat(usd))
	cost := math.ToWeiCeil(costUSD, int32(decimals))

	e.logger.Debug("Gas cost in input token",
		zap.Uint64("units", units),
		zap.String("price", price.String()),
		zap.Float64("native_usd", usd),
		zap.String("cost", cost.String()))

	return cost, nil
}

func (e *Estimator) isWrappedNative(token common.Address) bool {
	symbol, ok := e.symbolOf(token)
	return ok && strings.EqualFold(symbol, e.wrappedNative)
}
