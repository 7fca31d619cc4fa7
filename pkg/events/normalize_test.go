package events

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultswap/pkg/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTimestampMillisUnits(t *testing.T) {
	const want int64 = 1_700_000_000_000

	for _, raw := range []string{
		`1700000000000000000`,
		`1700000000000000`,
		`1700000000000`,
		`1700000000`,
		`"1700000000000000000"`,
	} {
		assert.Equal(t, want, TimestampMillis(json.RawMessage(raw)), raw)
	}
}

func TestTimestampMillisInvalid(t *testing.T) {
	for _, raw := range []string{`0`, `-5`, `"abc"`, `null`, `{}`, `1e40`} {
		assert.Equal(t, int64(0), TimestampMillis(json.RawMessage(raw)), raw)
	}
}

func TestTimestampMillisFloors(t *testing.T) {
	assert.Equal(t, int64(1_700_000_000_123), TimestampMillis(json.RawMessage(`1700000000123456789`)))
	assert.Equal(t, int64(1_700_000_000_500), TimestampMillis(json.RawMessage(`1700000000.5`)))
}

func TestNormalizeTaggedSwap(t *testing.T) {
	raw := `{"Swap":{"who":"aaaaa-aa","ts":"1735700000000000000","dx_e6":"10500000","dy_e6":10490000}}`

	ev, ok := Normalize(json.RawMessage(raw))
	require.True(t, ok)
	assert.Equal(t, KindSwap, ev.Kind)
	assert.Equal(t, "aaaaa-aa", ev.Actor)
	assert.Equal(t, int64(1_735_700_000_000), ev.TimestampMs)
	assert.True(t, ev.AmountIn.Equal(dec("10.5")), "got %s", ev.AmountIn)
	assert.True(t, ev.AmountOut.Equal(dec("10.49")), "got %s", ev.AmountOut)
}

func TestNormalizeFlatSwap(t *testing.T) {
	raw := `{"kind":"Swap","who":"bob","ts":1735700000,"dx":10.5,"dy":"10.49"}`

	ev, ok := Normalize(json.RawMessage(raw))
	require.True(t, ok)
	assert.Equal(t, KindSwap, ev.Kind)
	assert.Equal(t, int64(1_735_700_000_000), ev.TimestampMs)
	assert.True(t, ev.AmountIn.Equal(dec("10.5")))
	assert.True(t, ev.AmountOut.Equal(dec("10.49")))
}

func TestNormalizeShapesAgree(t *testing.T) {
	flat, ok := Normalize(json.RawMessage(`{"kind":"AddLiq","who":"x","ts":1735700000000,"usdc":1.5,"usdt":2,"shares":3.25}`))
	require.True(t, ok)
	tagged, ok := Normalize(json.RawMessage(`{"AddLiq":{"who":"x","ts":1735700000000,"usdc":1500000,"usdt":2000000,"shares":3250000}}`))
	require.True(t, ok)

	assert.Equal(t, KindAddLiquidity, flat.Kind)
	assert.Equal(t, flat.Kind, tagged.Kind)
	assert.Equal(t, flat.TimestampMs, tagged.TimestampMs)
	assert.True(t, flat.USDC.Equal(tagged.USDC))
	assert.True(t, flat.USDT.Equal(tagged.USDT))
	assert.True(t, flat.Shares.Equal(tagged.Shares))
}

func TestNormalizeKinds(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  Kind
		check func(t *testing.T, ev Event)
	}{
		{
			name: "remove liquidity alias",
			raw:  `{"RemoveLiq":{"who":"x","ts":1735700000,"usdc":1000000,"usdt":0,"shares":500000}}`,
			kind: KindRemoveLiquidity,
			check: func(t *testing.T, ev Event) {
				assert.True(t, ev.Shares.Equal(dec("0.5")))
			},
		},
		{
			name: "canonical name accepted",
			raw:  `{"kind":"RemoveLiquidity","who":"x","ts":1735700000,"usdc":1,"usdt":1,"shares":1}`,
			kind: KindRemoveLiquidity,
		},
		{
			name: "deposit tagged token",
			raw:  `{"Deposit":{"who":"x","ts":1735700000,"token":{"USDT":null},"amount":"2500000"}}`,
			kind: KindDeposit,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, types.CkUSDT, ev.Token)
				assert.True(t, ev.Amount.Equal(dec("2.5")))
			},
		},
		{
			name: "withdraw unknown token defaults",
			raw:  `{"kind":"Withdraw","who":"x","ts":1735700000,"token":{"BOB":null},"amount":4}`,
			kind: KindWithdraw,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, types.CkUSDC, ev.Token)
			},
		},
		{
			name: "claim fee tagged",
			raw:  `{"ClaimFee":{"who":"x","ts":1735700000,"usdc_e6":120000,"usdt_e6":30000}}`,
			kind: KindClaimFee,
			check: func(t *testing.T, ev Event) {
				assert.True(t, ev.USDC.Equal(dec("0.12")))
				assert.True(t, ev.USDT.Equal(dec("0.03")))
			},
		},
		{
			name: "claim fee flat",
			raw:  `{"kind":"ClaimFee","who":"x","ts":1735700000,"usdc":0.12,"usdt":0.03}`,
			kind: KindClaimFee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Normalize(json.RawMessage(tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.kind, ev.Kind)
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestNormalizeSkips(t *testing.T) {
	for _, raw := range []string{
		`null`,
		`[]`,
		`{}`,
		`"Swap"`,
		`{"kind":"Mint","who":"x","ts":1}`,
		`{"Mint":{"who":"x","ts":1}}`,
		`{"Swap":{"who":"x","ts":1,"dx_e6":1}}`,
		`{"Swap":{"who":"x","ts":1,"dx_e6":"abc","dy_e6":1}}`,
		`{"Swap":{},"Deposit":{}}`,
		`{"kind":7}`,
	} {
		_, ok := Normalize(json.RawMessage(raw))
		assert.False(t, ok, raw)
	}
}

func TestNormalizeActor(t *testing.T) {
	tests := []struct {
		who  string
		want string
	}{
		{`"aaaaa-aa"`, "aaaaa-aa"},
		{`null`, ""},
		{`{"__principal__":"aaaaa-aa"}`, `{"__principal__":"aaaaa-aa"}`},
		{`42`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.who, func(t *testing.T) {
			raw := `{"kind":"Swap","who":` + tt.who + `,"ts":1735700000,"dx":"1","dy":"1"}`
			ev, ok := Normalize(json.RawMessage(raw))
			require.True(t, ok)
			assert.Equal(t, tt.want, ev.Actor)
		})
	}
}
