package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/dexarb/dex"
	"github.com/michaelpento.lv/dexarb/types"
)

// ErrTradeReverted is returned when a mined trade has a failed receipt
var ErrTradeReverted = errors.New("trade transaction reverted")

// Backend is the full client surface needed to send and confirm trades
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client submits trades to the arb contract from a single signer
type Client struct {
	backend  Backend
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	from     common.Address
}

// NewClient binds the arb contract for the signer key
func NewClient(backend Backend, contract common.Address, key *ecdsa.PrivateKey, chainID *big.Int) *Client {
	return &Client{
		backend:  backend,
		contract: bind.NewBoundContract(contract, dex.ArbABI, backend, backend, backend),
		key:      key,
		chainID:  chainID,
		from:     crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the signer address
func (c *Client) Address() common.Address {
	return c.from
}

// SubmitSwap sends dualDexTrade for route and amount. A nil override lets the
// node pick the pending nonce.
func (c *Client) SubmitSwap(ctx context.Context, route types.Route, amount *big.Int, override *types.NonceOverride) (*ethtypes.Transaction, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	if override != nil {
		opts.Nonce = new(big.Int).SetUint64(override.Nonce)
	}

	tx, err := c.contract.Transact(opts, dex.MethodDualDexTrade, route.Router1, route.Router2, route.Token1, route.Token2, amount)
	if err != nil {
		return nil, fmt.Errorf("submit swap: %w", err)
	}
	return tx, nil
}

// AwaitConfirmation blocks until tx is mined and checks its receipt
func (c *Client) AwaitConfirmation(ctx context.Context, tx *ethtypes.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: %s", ErrTradeReverted, tx.Hash().Hex())
	}
	return nil
}

// AccountNonce returns the signer's pending nonce
func (c *Client) AccountNonce(ctx context.Context) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return nonce, nil
}

var nonceTooLowSignatures = []string{
	"nonce too low",
	"nonce has already been used",
	"nonce_expired",
}

// IsNonceTooLow reports whether err means the submitted nonce is below the account nonce
func IsNonceTooLow(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range nonceTooLowSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
