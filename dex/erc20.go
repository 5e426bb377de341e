package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// TokenReader reads ERC20 state. Decimals never change, so they are cached.
type TokenReader struct {
	caller   ethereum.ContractCaller
	decimals *lru.Cache
}

// NewTokenReader creates a token reader keeping up to cacheSize decimals entries
func NewTokenReader(caller ethereum.ContractCaller, cacheSize int) (*TokenReader, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &TokenReader{
		caller:   caller,
		decimals: cache,
	}, nil
}

// BalanceOf returns the token balance of owner
func (r *TokenReader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := r.call(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result %T", out[0])
	}
	return balance, nil
}

// Decimals returns the token decimals
func (r *TokenReader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	if v, ok := r.decimals.Get(token); ok {
		return v.(uint8), nil
	}

	out, err := r.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}

	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result %T", out[0])
	}

	r.decimals.Add(token, decimals)
	return decimals, nil
}

func (r *TokenReader) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call on %s failed: %w", method, token.Hex(), err)
	}

	out, err := ERC20ABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return out, nil
}
