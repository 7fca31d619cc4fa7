package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one forward pricing result in natural units.
type Quote struct {
	AmountOut decimal.Decimal
	Fee       decimal.Decimal
	Price     decimal.Decimal
}

// SwapMode selects which side of a swap the user fixed.
type SwapMode int

const (
	ExactInput SwapMode = iota
	ExactOutput
)

func (m SwapMode) String() string {
	if m == ExactOutput {
		return "exact-output"
	}
	return "exact-input"
}

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Mode     SwapMode
	AssetIn  Asset
	AssetOut Asset
	// Amount is the input amount for ExactInput and the target output for
	// ExactOutput.
	Amount decimal.Decimal
}

// SwapReceipt holds the outcome of a submitted swap.
type SwapReceipt struct {
	AssetIn   Asset
	AssetOut  Asset
	AmountIn  decimal.Decimal
	MinOut    decimal.Decimal
	AmountOut decimal.Decimal
	At        time.Time
}

// AvailableBalance is the user's spendable balance per asset.
type AvailableBalance struct {
	USDC decimal.Decimal
	USDT decimal.Decimal
}

// Of returns the balance of one asset.
func (b AvailableBalance) Of(a Asset) decimal.Decimal {
	if a == CkUSDT {
		return b.USDT
	}
	return b.USDC
}

// Equal reports whether both fields match.
func (b AvailableBalance) Equal(o AvailableBalance) bool {
	return b.USDC.Equal(o.USDC) && b.USDT.Equal(o.USDT)
}
