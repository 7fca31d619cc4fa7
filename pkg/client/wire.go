package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"vaultswap/pkg/types"
)

// Nat is a non-negative integer amount as carried on the wire. It decodes
// from a JSON number or a numeric string and encodes as a string.
type Nat struct {
	v *big.Int
}

// NewNat wraps x. A nil x is zero.
func NewNat(x *big.Int) Nat {
	if x == nil {
		return Nat{}
	}
	return Nat{v: new(big.Int).Set(x)}
}

// NatFromUint64 returns a Nat holding n.
func NatFromUint64(n uint64) Nat {
	return Nat{v: new(big.Int).SetUint64(n)}
}

// Int returns a copy of the value.
func (n Nat) Int() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

func (n Nat) String() string {
	return n.Int().String()
}

// MarshalJSON encodes the value as a decimal string.
func (n Nat) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON accepts 123, "123" and null.
func (n *Nat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "null" || s == "" {
		n.v = nil
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid nat %q", s)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative nat %q", s)
	}
	n.v = v
	return nil
}

// Account is a ledger account: an owner principal and an optional 32-byte
// subaccount.
type Account struct {
	Owner      string        `json:"owner"`
	Subaccount hexutil.Bytes `json:"subaccount,omitempty"`
}

// QuoteOut is the forward quote in pool fixed point.
type QuoteOut struct {
	DyE6    Nat `json:"dy_e6"`
	FeeE6   Nat `json:"fee_e6"`
	PriceE6 Nat `json:"price_e6"`
}

// SwapArgs are the arguments of a swap submission.
type SwapArgs struct {
	Account  Account            `json:"account"`
	TokenIn  types.TokenVariant `json:"token_in"`
	TokenOut types.TokenVariant `json:"token_out"`
	DxE6     Nat                `json:"dx_e6"`
	MinDyE6  Nat                `json:"min_dy_e6"`
}

// Amounts is a pair of per-asset amounts. Units depend on the call: ledger
// units for balances and live reserves, pool fixed point otherwise.
type Amounts struct {
	USDC Nat `json:"usdc"`
	USDT Nat `json:"usdt"`
}

// TokenMeta is the ledger identity and decimals of both assets.
type TokenMeta struct {
	CkUSDC  string `json:"ckusdc"`
	CkUSDT  string `json:"ckusdt"`
	DecUSDC uint8  `json:"dec_usdc"`
	DecUSDT uint8  `json:"dec_usdt"`
}

// PoolInfo is the pool's parameters and fixed-point reserves.
type PoolInfo struct {
	AAmp           uint32 `json:"a_amp"`
	FeeBps         uint32 `json:"fee_bps"`
	ReserveUSDC    Nat    `json:"reserve_usdc"`
	ReserveUSDT    Nat    `json:"reserve_usdt"`
	TotalShares    Nat    `json:"total_shares"`
	VirtualPriceE6 Nat    `json:"virtual_price_e6"`
}

// Position is a user's pool shares in fixed point.
type Position struct {
	Shares Nat `json:"shares"`
}

// DepositTarget is the account the user deposits into.
type DepositTarget struct {
	Owner string        `json:"owner"`
	Sub   hexutil.Bytes `json:"sub"`
	AIHex string        `json:"ai_hex"`
}

// StatsSnapshot holds rolling pool statistics in fixed point.
type StatsSnapshot struct {
	NowSec   Nat    `json:"now_sec"`
	TVLE6    Nat    `json:"tvl_e6"`
	Vol24hE6 Nat    `json:"vol_24h_e6"`
	Vol7dE6  Nat    `json:"vol_7d_e6"`
	Fee24hE6 Nat    `json:"fee_24h_e6"`
	Fee7dE6  Nat    `json:"fee_7d_e6"`
	Swaps24h uint32 `json:"swaps_24h"`
	APY24hBp uint32 `json:"apy_24h_bp"`
}
