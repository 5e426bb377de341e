package dex

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ArbABIJson is the subset of the arb contract used by the engine
const ArbABIJson = `[
	{"inputs":[{"internalType":"address","name":"_router1","type":"address"},{"internalType":"address","name":"_router2","type":"address"},{"internalType":"address","name":"_token1","type":"address"},{"internalType":"address","name":"_token2","type":"address"},{"internalType":"uint256","name":"_amount","type":"uint256"}],"name":"dualDexTrade","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"_router1","type":"address"},{"internalType":"address","name":"_router2","type":"address"},{"internalType":"address","name":"_token1","type":"address"},{"internalType":"address","name":"_token2","type":"address"},{"internalType":"uint256","name":"_amount","type":"uint256"}],"name":"estimateDualDexTrade","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// ERC20ABIJson covers the read-only token calls
const ERC20ABIJson = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

// Arb contract methods
const (
	MethodDualDexTrade         = "dualDexTrade"
	MethodEstimateDualDexTrade = "estimateDualDexTrade"
)

var (
	ArbABI   = mustParse(ArbABIJson)
	ERC20ABI = mustParse(ERC20ABIJson)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
