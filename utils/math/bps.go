package math

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BasisPoints is the number of basis points in 100%
const BasisPoints = 10000

var bpsDenominator = big.NewInt(BasisPoints)

// ApplyMarkup returns amount * (bps + 10000) / 10000 using integer division
func ApplyMarkup(amount *big.Int, bps int) *big.Int {
	multiplier := big.NewInt(int64(bps) + BasisPoints)
	out := new(big.Int).Mul(amount, multiplier)
	return out.Quo(out, bpsDenominator)
}

// DriftBasisPoints returns (current - start) * 10000 / start, truncated toward zero.
// A zero start has no defined drift and yields 0.
func DriftBasisPoints(start, current *big.Int) *big.Int {
	if start == nil || current == nil || start.Sign() == 0 {
		return new(big.Int)
	}
	diff := new(big.Int).Sub(current, start)
	diff.Mul(diff, bpsDenominator)
	return diff.Quo(diff, start)
}

// ToDecimal converts an integer amount in the smallest unit into whole units
func ToDecimal(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// ToWeiCeil converts whole units into the smallest unit, rounding up
func ToWeiCeil(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).Ceil().BigInt()
}

// BumpPct raises value by pct (0.1 == 10%), rounding down
func BumpPct(value *big.Int, pct float64) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	if pct <= 0 {
		return new(big.Int).Set(value)
	}
	factor := decimal.NewFromFloat(1 + pct)
	return decimal.NewFromBigInt(value, 0).Mul(factor).Floor().BigInt()
}
