package events

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

var (
	nanosThreshold  = decimal.New(1, 18)
	microsThreshold = decimal.New(1, 15)
	millisThreshold = decimal.New(1, 12)
	maxMillis       = decimal.NewFromInt(math.MaxInt64)
)

// Normalize parses one raw record. It reports false when the record has an
// unknown shape or kind, or when a required amount is missing or malformed.
func Normalize(raw json.RawMessage) (Event, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return Event{}, false
	}

	if kindRaw, ok := fields["kind"]; ok {
		var name string
		if err := json.Unmarshal(kindRaw, &name); err != nil {
			return Event{}, false
		}
		kind, ok := kindOf(name)
		if !ok {
			return Event{}, false
		}
		return fromFlat(kind, fields)
	}

	if len(fields) != 1 {
		return Event{}, false
	}
	for name, body := range fields {
		kind, ok := kindOf(name)
		if !ok {
			return Event{}, false
		}
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(body, &inner); err != nil {
			return Event{}, false
		}
		return fromTagged(kind, inner)
	}
	return Event{}, false
}

// TimestampMillis converts a timestamp of unknown unit to milliseconds.
// Values at or above 1e18 are nanoseconds, 1e15 microseconds, 1e12
// milliseconds, anything smaller seconds. Non-positive or unparseable values
// give 0.
func TimestampMillis(raw json.RawMessage) int64 {
	var ts decimal.Decimal
	if err := ts.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return 0
	}
	if ts.Sign() <= 0 {
		return 0
	}

	var ms decimal.Decimal
	switch {
	case ts.GreaterThanOrEqual(nanosThreshold):
		ms = ts.Shift(-6)
	case ts.GreaterThanOrEqual(microsThreshold):
		ms = ts.Shift(-3)
	case ts.GreaterThanOrEqual(millisThreshold):
		ms = ts
	default:
		ms = ts.Shift(3)
	}
	ms = ms.Floor()
	if ms.GreaterThan(maxMillis) {
		return 0
	}
	return ms.IntPart()
}

func fromFlat(kind Kind, f map[string]json.RawMessage) (Event, bool) {
	ev := base(kind, f)
	natural := func(key string) (decimal.Decimal, bool) {
		return amount(f, key, 0)
	}
	return fill(ev, f, natural, "dx", "dy", "usdc", "usdt")
}

func fromTagged(kind Kind, f map[string]json.RawMessage) (Event, bool) {
	ev := base(kind, f)
	fixed := func(key string) (decimal.Decimal, bool) {
		return amount(f, key, units.PoolDecimals)
	}
	return fill(ev, f, fixed, "dx_e6", "dy_e6", "usdc_e6", "usdt_e6")
}

func base(kind Kind, f map[string]json.RawMessage) Event {
	ev := Event{Kind: kind}
	if who, ok := f["who"]; ok {
		ev.Actor = actorOf(who)
	}
	if ts, ok := f["ts"]; ok {
		ev.TimestampMs = TimestampMillis(ts)
	}
	return ev
}

// actorOf reads "who". A principal that is not a JSON string is kept as its
// raw JSON text; null means no actor.
func actorOf(raw json.RawMessage) string {
	var who string
	if err := json.Unmarshal(raw, &who); err == nil {
		return who
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	return string(raw)
}

// fill reads the kind-specific amounts. The swap legs and the claimed fee
// amounts are named differently in the two shapes.
func fill(ev Event, f map[string]json.RawMessage, read func(string) (decimal.Decimal, bool), dxKey, dyKey, claimUSDC, claimUSDT string) (Event, bool) {
	var ok bool
	switch ev.Kind {
	case KindSwap:
		if ev.AmountIn, ok = read(dxKey); !ok {
			return Event{}, false
		}
		if ev.AmountOut, ok = read(dyKey); !ok {
			return Event{}, false
		}
	case KindAddLiquidity, KindRemoveLiquidity:
		if ev.USDC, ok = read("usdc"); !ok {
			return Event{}, false
		}
		if ev.USDT, ok = read("usdt"); !ok {
			return Event{}, false
		}
		if ev.Shares, ok = read("shares"); !ok {
			return Event{}, false
		}
	case KindDeposit, KindWithdraw:
		ev.Token = tokenOf(f["token"])
		if ev.Amount, ok = read("amount"); !ok {
			return Event{}, false
		}
	case KindClaimFee:
		if ev.USDC, ok = read(claimUSDC); !ok {
			return Event{}, false
		}
		if ev.USDT, ok = read(claimUSDT); !ok {
			return Event{}, false
		}
	}
	return ev, true
}

// amount decodes a number or numeric string and shifts it down by decimals.
func amount(f map[string]json.RawMessage, key string, decimals int32) (decimal.Decimal, bool) {
	raw, ok := f[key]
	if !ok {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return decimal.Zero, false
	}
	if decimals == 0 {
		return d, true
	}
	return d.Shift(-decimals), true
}

func tokenOf(raw json.RawMessage) types.Asset {
	if len(raw) == 0 {
		return types.CkUSDC
	}
	var tv types.TokenVariant
	if err := json.Unmarshal(raw, &tv); err != nil {
		return types.CkUSDC
	}
	return tv.Asset()
}
