package dex

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/dexarb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revertError struct {
	data interface{}
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorData() interface{} { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return hexutil.Encode(append(selector, packed...))
}

func TestDecodeTrade(t *testing.T) {
	route := types.Route{
		Router1: common.HexToAddress("0xa1"),
		Router2: common.HexToAddress("0xa2"),
		Token1:  common.HexToAddress("0xb1"),
		Token2:  common.HexToAddress("0xb2"),
	}
	data, err := ArbABI.Pack(MethodDualDexTrade, route.Router1, route.Router2, route.Token1, route.Token2, big.NewInt(42))
	require.NoError(t, err)

	call, err := DecodeTrade(data)
	require.NoError(t, err)
	assert.Equal(t, MethodDualDexTrade, call.Method)
	assert.Equal(t, route, call.Route)
	assert.Equal(t, big.NewInt(42), call.Amount)
}

func TestDecodeTradeRejects(t *testing.T) {
	_, err := DecodeTrade([]byte{0x01})
	assert.Error(t, err)

	data, err := ERC20ABI.Pack("balanceOf", common.HexToAddress("0xb1"))
	require.NoError(t, err)
	_, err = DecodeTrade(data)
	assert.Error(t, err)
}

func TestRevertReason(t *testing.T) {
	err := fmt.Errorf("simulate: %w", &revertError{data: revertData(t, "UniswapV2: INSUFFICIENT_OUTPUT_AMOUNT")})

	reason, ok := RevertReason(err)
	require.True(t, ok)
	assert.Equal(t, "UniswapV2: INSUFFICIENT_OUTPUT_AMOUNT", reason)

	_, ok = RevertReason(errors.New("execution reverted"))
	assert.False(t, ok)

	_, ok = RevertReason(&revertError{data: "0x1234"})
	assert.False(t, ok)
}
