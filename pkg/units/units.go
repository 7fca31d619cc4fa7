package units

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// PoolDecimals is the fixed-point scale the pool API uses for every amount,
// independent of the ledger decimals of the asset.
const PoolDecimals int32 = 6

var errNegative = errors.New("amount must not be negative")

// ToFixedPoint converts a natural amount to an integer with the given number
// of decimals. Rounding is half away from zero; negative amounts become zero.
func ToFixedPoint(natural decimal.Decimal, decimals int32) *big.Int {
	if natural.Sign() <= 0 {
		return new(big.Int)
	}
	return natural.Shift(decimals).Round(0).BigInt()
}

// FromFixedPoint converts a fixed-point integer back to a natural amount.
// A nil value is zero.
func FromFixedPoint(fixed *big.Int, decimals int32) decimal.Decimal {
	if fixed == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(fixed, -decimals)
}

// ToPool is ToFixedPoint at the pool scale.
func ToPool(natural decimal.Decimal) *big.Int {
	return ToFixedPoint(natural, PoolDecimals)
}

// FromPool is FromFixedPoint at the pool scale.
func FromPool(fixed *big.Int) decimal.Decimal {
	return FromFixedPoint(fixed, PoolDecimals)
}

// FromFloat converts a float, mapping NaN, infinities and negatives to zero.
func FromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Parse reads a user supplied amount. Invalid or negative text is an error.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegative
	}
	return d, nil
}
