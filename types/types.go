package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Route represents a dual-dex arbitrage route. Token1 is the input asset:
// it is swapped to Token2 on Router1 and back to Token1 on Router2.
type Route struct {
	Router1 common.Address
	Router2 common.Address
	Token1  common.Address
	Token2  common.Address
}

// String renders the route the way it appears in curated route lists
func (r Route) String() string {
	return fmt.Sprintf(`["%s","%s","%s","%s"]`, r.Router1.Hex(), r.Router2.Hex(), r.Token1.Hex(), r.Token2.Hex())
}

// BalanceRecord tracks one asset held by the arb contract.
// Start is fixed at the first observation of the run.
type BalanceRecord struct {
	Symbol  string
	Current *big.Int
	Start   *big.Int
}

// BalanceLine is one row of a balance report
type BalanceLine struct {
	Symbol   string
	Start    *big.Int
	Current  *big.Int
	DriftBps *big.Int
}

func (l BalanceLine) String() string {
	return fmt.Sprintf("#  %s: %sbps (start %s, current %s)", l.Symbol, l.DriftBps, l.Start, l.Current)
}

// NonceOverride forces the nonce of a trade submission
type NonceOverride struct {
	Nonce uint64
}

// TradeOutcome is the result of a single route evaluation
type TradeOutcome int

const (
	Skipped TradeOutcome = iota
	Executed
)

func (o TradeOutcome) String() string {
	switch o {
	case Executed:
		return "executed"
	default:
		return "skipped"
	}
}
