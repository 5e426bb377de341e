package simulator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/dexarb/dex"
	"github.com/michaelpento.lv/dexarb/types"
)

// Backend is the read-only part of an ethereum client the simulator needs
type Backend interface {
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
}

// Simulator evaluates trades against the arb contract without sending them
type Simulator struct {
	backend  Backend
	contract common.Address
	from     common.Address
}

// NewSimulator creates a simulator for contract; gas is estimated as if sent by from
func NewSimulator(backend Backend, contract, from common.Address) *Simulator {
	return &Simulator{
		backend:  backend,
		contract: contract,
		from:     from,
	}
}

// SimulateSwap returns the amount of token1 the contract would get back
func (s *Simulator) SimulateSwap(ctx context.Context, route types.Route, amount *big.Int) (*big.Int, error) {
	data, err := packTrade(dex.MethodEstimateDualDexTrade, route, amount)
	if err != nil {
		return nil, err
	}

	result, err := s.backend.CallContract(ctx, ethereum.CallMsg{
		From: s.from,
		To:   &s.contract,
		Data: data,
	}, nil)
	if err != nil {
		if reason, ok := dex.RevertReason(err); ok {
			return nil, fmt.Errorf("simulate swap %s reverted (%s): %w", route, reason, err)
		}
		return nil, fmt.Errorf("simulate swap %s: %w", route, err)
	}

	out, err := dex.ArbABI.Unpack(dex.MethodEstimateDualDexTrade, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack simulation result: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty simulation result")
	}

	amountBack, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected simulation result %T", out[0])
	}
	return amountBack, nil
}

// EstimateSwapGas estimates the gas units of the trade transaction
func (s *Simulator) EstimateSwapGas(ctx context.Context, route types.Route, amount *big.Int) (uint64, error) {
	data, err := packTrade(dex.MethodDualDexTrade, route, amount)
	if err != nil {
		return 0, err
	}

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &s.contract,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return gas, nil
}

// GasPrice returns the current network gas price
func (s *Simulator) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

func packTrade(method string, route types.Route, amount *big.Int) ([]byte, error) {
	data, err := dex.ArbABI.Pack(method, route.Router1, route.Router2, route.Token1, route.Token2, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	return data, nil
}
