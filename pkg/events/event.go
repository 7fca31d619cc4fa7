// Package events turns the service's activity records into one canonical
// event type.
//
// The service emits two shapes. The flat shape carries a "kind" field and
// amounts in natural units:
//
//	{"kind": "Swap", "who": "abc", "ts": 1735660800, "dx": "10.5", "dy": "10.49"}
//
// The tagged shape is a single-key object whose amounts are six-decimal
// fixed-point integers:
//
//	{"Swap": {"who": "abc", "ts": "1735660800000000000", "dx_e6": 10500000, "dy_e6": 10490000}}
//
// Timestamps come in seconds, milliseconds, microseconds or nanoseconds and
// are normalized to milliseconds.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/types"
)

// Kind identifies what an event records.
type Kind string

const (
	KindSwap            Kind = "Swap"
	KindAddLiquidity    Kind = "AddLiquidity"
	KindRemoveLiquidity Kind = "RemoveLiquidity"
	KindDeposit         Kind = "Deposit"
	KindWithdraw        Kind = "Withdraw"
	KindClaimFee        Kind = "ClaimFee"
)

// Event is a normalized activity record. Only the fields of its Kind are set.
type Event struct {
	Kind        Kind
	Actor       string
	TimestampMs int64

	// Swap
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal

	// AddLiquidity, RemoveLiquidity, ClaimFee
	USDC   decimal.Decimal
	USDT   decimal.Decimal
	Shares decimal.Decimal

	// Deposit, Withdraw
	Token  types.Asset
	Amount decimal.Decimal
}

// Time returns the event timestamp.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.TimestampMs).UTC()
}

func kindOf(name string) (Kind, bool) {
	switch name {
	case "Swap":
		return KindSwap, true
	case "AddLiq", "AddLiquidity":
		return KindAddLiquidity, true
	case "RemoveLiq", "RemoveLiquidity":
		return KindRemoveLiquidity, true
	case "Deposit":
		return KindDeposit, true
	case "Withdraw":
		return KindWithdraw, true
	case "ClaimFee":
		return KindClaimFee, true
	}
	return "", false
}
