package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PairAmounts is an amount of each asset.
type PairAmounts struct {
	USDC decimal.Decimal
	USDT decimal.Decimal
}

// PoolInfo describes the pool's parameters and reserves.
type PoolInfo struct {
	Amplification uint64
	FeeBps        uint64
	Reserves      PairAmounts
	TotalShares   decimal.Decimal
	VirtualPrice  decimal.Decimal
}

// Position is a user's liquidity position.
type Position struct {
	Shares    decimal.Decimal
	Unclaimed PairAmounts
}

// StatsSnapshot holds rolling pool statistics.
type StatsSnapshot struct {
	At        time.Time
	TVL       decimal.Decimal
	Volume24h decimal.Decimal
	Volume7d  decimal.Decimal
	Fees24h   decimal.Decimal
	Fees7d    decimal.Decimal
	Swaps24h  uint64
	APY24hPct decimal.Decimal
}

// DepositTarget is the ledger account a user deposits into.
type DepositTarget struct {
	Owner        string
	Subaccount   []byte
	AccountIDHex string
}

// TokenInfo is the ledger identity of one asset.
type TokenInfo struct {
	Asset    Asset
	Ledger   string
	Decimals int32
}

// TokenMeta is the metadata for both assets.
type TokenMeta struct {
	USDC TokenInfo
	USDT TokenInfo
}

// Of returns the metadata of one asset.
func (m TokenMeta) Of(a Asset) TokenInfo {
	if a == CkUSDT {
		return m.USDT
	}
	return m.USDC
}
