// Package testutils holds fakes shared by the engine, tracker and run loop tests
package testutils

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/dexarb/config"
	"github.com/michaelpento.lv/dexarb/dex"
	"github.com/michaelpento.lv/dexarb/types"
)

var (
	Contract = common.HexToAddress("0x1000000000000000000000000000000000000001")
	RouterA  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	RouterB  = common.HexToAddress("0x3000000000000000000000000000000000000003")
	USDC     = common.HexToAddress("0x4000000000000000000000000000000000000004")
	WETH     = common.HexToAddress("0x5000000000000000000000000000000000000005")
	DAI      = common.HexToAddress("0x6000000000000000000000000000000000000006")
)

// TestConfig returns a deployment with two routers, base assets USDC and
// WETH and one extra token
func TestConfig() *config.Config {
	cfg := &config.Config{
		Network:         config.NetworkAurora,
		ContractAddress: Contract.Hex(),
		MinBasisPoints:  10,
		Routers: []config.Venue{
			{Dex: "trisolaris", Address: RouterA.Hex()},
			{Dex: "wannaswap", Address: RouterB.Hex()},
		},
		BaseAssets: []config.Asset{
			{Symbol: "USDC", Address: USDC.Hex()},
			{Symbol: "WETH", Address: WETH.Hex()},
		},
		Tokens: []config.Asset{
			{Symbol: "DAI", Address: DAI.Hex()},
		},
	}
	cfg.Engine, _ = config.DefaultEngineConfig(config.NetworkAurora)
	return cfg
}

// MockTradeTransaction returns a transaction carrying dualDexTrade calldata for route
func MockTradeTransaction(nonce uint64, route types.Route, amount *big.Int) *ethtypes.Transaction {
	data, err := dex.ArbABI.Pack(dex.MethodDualDexTrade, route.Router1, route.Router2, route.Token1, route.Token2, amount)
	if err != nil {
		panic(err)
	}
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &Contract,
		Value:    big.NewInt(0),
		Gas:      300000,
		GasPrice: big.NewInt(20000000000),
		Data:     data,
	})
}

// Notifier records every message sent
type Notifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *Notifier) Send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

// Messages returns a copy of the recorded messages
func (n *Notifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// Balances serves ERC20 balances from memory
type Balances struct {
	mu     sync.Mutex
	values map[common.Address]*big.Int
	Err    error
	Calls  int
}

func NewBalances() *Balances {
	return &Balances{values: make(map[common.Address]*big.Int)}
}

// Set stores the balance of token
func (b *Balances) Set(token common.Address, v *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[token] = new(big.Int).Set(v)
}

func (b *Balances) BalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}
	v, ok := b.values[token]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(v), nil
}

// Costs returns a fixed gas cost
type Costs struct {
	Cost  *big.Int
	Err   error
	Calls int
}

func (c *Costs) EstimateCost(context.Context, types.Route, *big.Int) (*big.Int, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	return new(big.Int).Set(c.Cost), nil
}

// ErrNonceTooLow mimics the node error for a stale nonce
var ErrNonceTooLow = errors.New("nonce too low")

// Chain scripts simulation, submission and confirmation results.
// SubmitErrs are consumed one per submission; once exhausted submissions succeed.
type Chain struct {
	mu sync.Mutex

	AmountBack  *big.Int
	SimulateErr error
	SubmitErrs  []error
	ConfirmErr  error
	NeverMined  bool // AwaitConfirmation blocks until its context ends
	Nonce       uint64
	NonceErr    error

	Simulations int
	Overrides   []*types.NonceOverride
	Confirmed   []*ethtypes.Transaction
}

func (c *Chain) SimulateSwap(context.Context, types.Route, *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Simulations++
	if c.SimulateErr != nil {
		return nil, c.SimulateErr
	}
	return new(big.Int).Set(c.AmountBack), nil
}

func (c *Chain) SubmitSwap(_ context.Context, route types.Route, amount *big.Int, override *types.NonceOverride) (*ethtypes.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Overrides = append(c.Overrides, override)
	if len(c.SubmitErrs) > 0 {
		err := c.SubmitErrs[0]
		c.SubmitErrs = c.SubmitErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	nonce := c.Nonce
	if override != nil {
		nonce = override.Nonce
	}
	return MockTradeTransaction(nonce, route, amount), nil
}

func (c *Chain) AwaitConfirmation(ctx context.Context, tx *ethtypes.Transaction) error {
	c.mu.Lock()
	if c.NeverMined {
		c.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	defer c.mu.Unlock()
	if c.ConfirmErr != nil {
		return c.ConfirmErr
	}
	c.Confirmed = append(c.Confirmed, tx)
	return nil
}

func (c *Chain) AccountNonce(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Nonce, c.NonceErr
}

// Submissions returns the number of SubmitSwap calls
func (c *Chain) Submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Overrides)
}
