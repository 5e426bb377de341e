package dex

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/michaelpento.lv/dexarb/types"
)

// TradeCall is a decoded dualDexTrade or estimateDualDexTrade call
type TradeCall struct {
	Method string
	Route  types.Route
	Amount *big.Int
}

// DecodeTrade decodes arb contract calldata
func DecodeTrade(data []byte) (*TradeCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("invalid data length")
	}

	method, err := ArbABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("failed to decode method: %w", err)
	}
	if method.Name != MethodDualDexTrade && method.Name != MethodEstimateDualDexTrade {
		return nil, fmt.Errorf("%s is not a trade method", method.Name)
	}

	params := make(map[string]interface{})
	if err := method.Inputs.UnpackIntoMap(params, data[4:]); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}

	var addrs [4]common.Address
	for i, name := range []string{"_router1", "_router2", "_token1", "_token2"} {
		addr, ok := params[name].(common.Address)
		if !ok {
			return nil, fmt.Errorf("invalid %s", name)
		}
		addrs[i] = addr
	}

	amount, ok := params["_amount"].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("invalid _amount")
	}

	return &TradeCall{
		Method: method.Name,
		Route: types.Route{
			Router1: addrs[0],
			Router2: addrs[1],
			Token1:  addrs[2],
			Token2:  addrs[3],
		},
		Amount: amount,
	}, nil
}

// RevertReason extracts the Error(string) message from a node error that
// carries revert data
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}

	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, err := hexutil.Decode(hexData)
	if err != nil {
		return "", false
	}

	reason, err := abi.UnpackRevert(data)
	if err != nil {
		return "", false
	}
	return reason, true
}
