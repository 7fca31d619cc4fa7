package client

import (
	"context"
	"encoding/json"
	"math/big"

	"vaultswap/pkg/types"
)

// Service is the remote pool service. All amounts are fixed-point
// integers; see each method for the scale.
type Service interface {
	// QuoteForward prices dxE6 of in against out at pool scale.
	QuoteForward(ctx context.Context, in, out types.Asset, dxE6 *big.Int) (QuoteOut, error)
	// SubmitSwap executes a swap and returns dy_e6.
	SubmitSwap(ctx context.Context, args SwapArgs) (*big.Int, error)

	// RecomputeAvailableBalance schedules a background balance refresh.
	RecomputeAvailableBalance(ctx context.Context, user string) error
	// ReadAvailableBalance reads balances in ledger units.
	ReadAvailableBalance(ctx context.Context, user string) (Amounts, error)

	ListEvents(ctx context.Context, cursor, limit uint64) ([]json.RawMessage, error)
	ListLatestEvents(ctx context.Context, limit uint64) ([]json.RawMessage, error)

	// TokenMetadata returns nil when the service has none configured.
	TokenMetadata(ctx context.Context) (*TokenMeta, error)

	PoolInfo(ctx context.Context) (PoolInfo, error)
	// PoolReserves reads live reserves in ledger units.
	PoolReserves(ctx context.Context) (Amounts, error)
	UserPosition(ctx context.Context, acct Account) (Position, error)
	UnclaimedFees(ctx context.Context, acct Account) (Amounts, error)
	AddLiquidity(ctx context.Context, acct Account, usdcE6, usdtE6 *big.Int) (*big.Int, error)
	RemoveLiquidity(ctx context.Context, acct Account, sharesE6 *big.Int) (Amounts, error)
	ClaimFee(ctx context.Context, acct Account) (Amounts, error)
	StatsSnapshot(ctx context.Context) (StatsSnapshot, error)

	DepositTarget(ctx context.Context, user string) (DepositTarget, error)
	// WithdrawFromSub sends amount in ledger units from the user's
	// subaccount to another account.
	WithdrawFromSub(ctx context.Context, ledger string, to Account, amount *big.Int) (string, error)
}

// Method names on the wire.
const (
	MethodQuote           = "quote_live"
	MethodSwap            = "swap_live"
	MethodRefresh         = "refresh_available_for"
	MethodAvailable       = "get_available_balances_live_for"
	MethodEvents          = "get_events"
	MethodEventsLatest    = "get_events_latest"
	MethodTokenMeta       = "get_token_meta"
	MethodPoolInfo        = "get_pool_info"
	MethodPoolReserves    = "get_pool_reserves_live"
	MethodUserPosition    = "get_user_position"
	MethodUnclaimedFee    = "get_unclaimed_fee"
	MethodAddLiquidity    = "add_liquidity"
	MethodRemoveLiquidity = "remove_liquidity"
	MethodClaimFee        = "claim_fee"
	MethodStats           = "get_stats_snapshot"
	MethodDepositTarget   = "get_deposit_target_for"
	MethodWithdraw        = "withdraw_from_sub"
	MethodTransfer        = "icrc1_transfer"
)
