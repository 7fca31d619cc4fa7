package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/client"
	"vaultswap/pkg/deposit"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

var errNoLiquidity = errors.New("at least one amount must be positive")

// PoolInfo reads the pool parameters. Reserves and shares are in pool
// fixed point.
func (s *Session) PoolInfo(ctx context.Context) (types.PoolInfo, error) {
	raw, err := s.svc.PoolInfo(ctx)
	if err != nil {
		return types.PoolInfo{}, fmt.Errorf("failed to get pool info: %w", err)
	}
	return types.PoolInfo{
		Amplification: uint64(raw.AAmp),
		FeeBps:        uint64(raw.FeeBps),
		Reserves: types.PairAmounts{
			USDC: units.FromPool(raw.ReserveUSDC.Int()),
			USDT: units.FromPool(raw.ReserveUSDT.Int()),
		},
		TotalShares:  units.FromPool(raw.TotalShares.Int()),
		VirtualPrice: units.FromPool(raw.VirtualPriceE6.Int()),
	}, nil
}

// Reserves reads the live ledger balances held by the pool.
func (s *Session) Reserves(ctx context.Context) (types.PairAmounts, error) {
	raw, err := s.svc.PoolReserves(ctx)
	if err != nil {
		return types.PairAmounts{}, fmt.Errorf("failed to get pool reserves: %w", err)
	}
	meta, err := s.meta.Get(ctx)
	if err != nil {
		return types.PairAmounts{}, err
	}
	return types.PairAmounts{
		USDC: units.FromFixedPoint(raw.USDC.Int(), meta.USDC.Decimals),
		USDT: units.FromFixedPoint(raw.USDT.Int(), meta.USDT.Decimals),
	}, nil
}

// Position reads the user's shares and unclaimed fees.
func (s *Session) Position(ctx context.Context) (types.Position, error) {
	acct, err := s.account()
	if err != nil {
		return types.Position{}, err
	}
	pos, err := s.svc.UserPosition(ctx, acct)
	if err != nil {
		return types.Position{}, fmt.Errorf("failed to get position: %w", err)
	}
	fees, err := s.svc.UnclaimedFees(ctx, acct)
	if err != nil {
		return types.Position{}, fmt.Errorf("failed to get unclaimed fees: %w", err)
	}
	return types.Position{
		Shares:    units.FromPool(pos.Shares.Int()),
		Unclaimed: pairFromPool(fees),
	}, nil
}

// AddLiquidity deposits both assets into the pool and returns the shares
// minted.
func (s *Session) AddLiquidity(ctx context.Context, usdc, usdt decimal.Decimal) (decimal.Decimal, error) {
	acct, err := s.account()
	if err != nil {
		return decimal.Zero, err
	}
	if usdc.IsNegative() || usdt.IsNegative() || (usdc.IsZero() && usdt.IsZero()) {
		return decimal.Zero, errNoLiquidity
	}

	shares, err := s.svc.AddLiquidity(ctx, acct, units.ToPool(usdc), units.ToPool(usdt))
	if err != nil {
		return decimal.Zero, fmt.Errorf("add liquidity failed: %w", err)
	}
	minted := units.FromPool(shares)
	s.logger.Info("liquidity added", "usdc", usdc, "usdt", usdt, "shares", minted)

	s.afterMutation(ctx)
	return minted, nil
}

// RemoveLiquidity burns shares and returns the assets paid out.
func (s *Session) RemoveLiquidity(ctx context.Context, shares decimal.Decimal) (types.PairAmounts, error) {
	acct, err := s.account()
	if err != nil {
		return types.PairAmounts{}, err
	}
	if shares.Sign() <= 0 {
		return types.PairAmounts{}, errNoLiquidity
	}

	out, err := s.svc.RemoveLiquidity(ctx, acct, units.ToPool(shares))
	if err != nil {
		return types.PairAmounts{}, fmt.Errorf("remove liquidity failed: %w", err)
	}
	paid := pairFromPool(out)
	s.logger.Info("liquidity removed", "shares", shares, "usdc", paid.USDC, "usdt", paid.USDT)

	s.afterMutation(ctx)
	return paid, nil
}

// ClaimFee claims the user's accrued fees.
func (s *Session) ClaimFee(ctx context.Context) (types.PairAmounts, error) {
	acct, err := s.account()
	if err != nil {
		return types.PairAmounts{}, err
	}
	out, err := s.svc.ClaimFee(ctx, acct)
	if err != nil {
		return types.PairAmounts{}, fmt.Errorf("claim fee failed: %w", err)
	}
	claimed := pairFromPool(out)
	s.logger.Info("fees claimed", "usdc", claimed.USDC, "usdt", claimed.USDT)

	s.afterMutation(ctx)
	return claimed, nil
}

// Stats reads the rolling pool statistics.
func (s *Session) Stats(ctx context.Context) (types.StatsSnapshot, error) {
	raw, err := s.svc.StatsSnapshot(ctx)
	if err != nil {
		return types.StatsSnapshot{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return types.StatsSnapshot{
		At:        time.Unix(raw.NowSec.Int().Int64(), 0).UTC(),
		TVL:       units.FromPool(raw.TVLE6.Int()),
		Volume24h: units.FromPool(raw.Vol24hE6.Int()),
		Volume7d:  units.FromPool(raw.Vol7dE6.Int()),
		Fees24h:   units.FromPool(raw.Fee24hE6.Int()),
		Fees7d:    units.FromPool(raw.Fee7dE6.Int()),
		Swaps24h:  uint64(raw.Swaps24h),
		APY24hPct: decimal.New(int64(raw.APY24hBp), -2),
	}, nil
}

// DepositTarget returns the account the user deposits into.
func (s *Session) DepositTarget(ctx context.Context) (types.DepositTarget, error) {
	if s.opts.User == "" {
		return types.DepositTarget{}, ErrNoUser
	}
	return s.deposits.Target(ctx, s.opts.User)
}

// Deposit moves amount of asset from the user's ledger account into their
// pool subaccount and refreshes balances.
func (s *Session) Deposit(ctx context.Context, asset types.Asset, amount decimal.Decimal) (deposit.Receipt, error) {
	if s.opts.User == "" {
		return deposit.Receipt{}, ErrNoUser
	}
	rec, err := s.deposits.Deposit(ctx, s.opts.User, asset, amount)
	if err != nil {
		return deposit.Receipt{}, err
	}
	s.afterMutation(ctx)
	return rec, nil
}

// Withdraw sends amount of asset from the user's pool subaccount to to.
func (s *Session) Withdraw(ctx context.Context, asset types.Asset, to client.Account, amount decimal.Decimal) (string, error) {
	if s.opts.User == "" {
		return "", ErrNoUser
	}
	res, err := s.deposits.Withdraw(ctx, asset, to, amount)
	if err != nil {
		return "", err
	}
	s.afterMutation(ctx)
	return res, nil
}

func pairFromPool(a client.Amounts) types.PairAmounts {
	return types.PairAmounts{
		USDC: units.FromPool(a.USDC.Int()),
		USDT: units.FromPool(a.USDT.Int()),
	}
}
