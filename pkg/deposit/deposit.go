package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"vaultswap/pkg/client"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

// SubaccountLen is the size of a ledger subaccount.
const SubaccountLen = 32

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidSubaccount = errors.New("subaccount must be 32 bytes")
	ErrNoLedger          = errors.New("no ledger client configured")
)

// Transferer moves tokens on a ledger from the caller's default account.
type Transferer interface {
	Transfer(ctx context.Context, ledger string, to client.Account, amount *big.Int) (*big.Int, error)
}

// Service is the part of the pool service deposits and withdrawals use.
type Service interface {
	DepositTarget(ctx context.Context, user string) (client.DepositTarget, error)
	WithdrawFromSub(ctx context.Context, ledger string, to client.Account, amount *big.Int) (string, error)
}

// MetaSource provides ledger identities and decimals.
type MetaSource interface {
	Get(ctx context.Context) (types.TokenMeta, error)
}

// Receipt describes a completed deposit.
type Receipt struct {
	Asset      types.Asset
	Amount     decimal.Decimal
	Target     types.DepositTarget
	BlockIndex *big.Int
}

// Manager handles deposits into and withdrawals out of the user's
// pool subaccount.
type Manager struct {
	svc      Service
	transfer Transferer
	meta     MetaSource
	logger   *slog.Logger
}

// NewManager creates a new deposit manager
func NewManager(svc Service, transfer Transferer, meta MetaSource, logger *slog.Logger) *Manager {
	return &Manager{svc: svc, transfer: transfer, meta: meta, logger: logging.OrDiscard(logger)}
}

// Target returns the account the user deposits into.
func (m *Manager) Target(ctx context.Context, user string) (types.DepositTarget, error) {
	raw, err := m.svc.DepositTarget(ctx, user)
	if err != nil {
		return types.DepositTarget{}, fmt.Errorf("failed to get deposit target: %w", err)
	}
	if len(raw.Sub) != SubaccountLen {
		return types.DepositTarget{}, fmt.Errorf("%w: got %d", ErrInvalidSubaccount, len(raw.Sub))
	}
	return types.DepositTarget{
		Owner:        raw.Owner,
		Subaccount:   []byte(raw.Sub),
		AccountIDHex: raw.AIHex,
	}, nil
}

// Deposit transfers amount of asset from the user's default ledger account
// into their pool subaccount.
func (m *Manager) Deposit(ctx context.Context, user string, asset types.Asset, amount decimal.Decimal) (Receipt, error) {
	if !asset.Valid() {
		return Receipt{}, fmt.Errorf("unsupported asset %q", asset)
	}
	if amount.Sign() <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	if m.transfer == nil {
		return Receipt{}, ErrNoLedger
	}

	meta, err := m.meta.Get(ctx)
	if err != nil {
		return Receipt{}, err
	}
	info := meta.Of(asset)

	target, err := m.Target(ctx, user)
	if err != nil {
		return Receipt{}, err
	}

	to := client.Account{Owner: target.Owner, Subaccount: hexutil.Bytes(target.Subaccount)}
	block, err := m.transfer.Transfer(ctx, info.Ledger, to, units.ToFixedPoint(amount, info.Decimals))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to send deposit: %w", err)
	}

	m.logger.Info("deposit sent",
		"asset", asset, "amount", amount, "ledger", info.Ledger,
		"subaccount", SubaccountHex(target.Subaccount), "block", block)
	return Receipt{Asset: asset, Amount: amount, Target: target, BlockIndex: block}, nil
}

// Withdraw sends amount of asset from the user's pool subaccount to another
// ledger account.
func (m *Manager) Withdraw(ctx context.Context, asset types.Asset, to client.Account, amount decimal.Decimal) (string, error) {
	if !asset.Valid() {
		return "", fmt.Errorf("unsupported asset %q", asset)
	}
	if amount.Sign() <= 0 {
		return "", ErrInvalidAmount
	}
	if len(to.Subaccount) != 0 && len(to.Subaccount) != SubaccountLen {
		return "", ErrInvalidSubaccount
	}

	meta, err := m.meta.Get(ctx)
	if err != nil {
		return "", err
	}
	info := meta.Of(asset)

	res, err := m.svc.WithdrawFromSub(ctx, info.Ledger, to, units.ToFixedPoint(amount, info.Decimals))
	if err != nil {
		return "", fmt.Errorf("failed to withdraw: %w", err)
	}
	m.logger.Info("withdrawal sent", "asset", asset, "amount", amount, "to", to.Owner, "result", res)
	return res, nil
}

// SubaccountHex formats a subaccount for display.
func SubaccountHex(sub []byte) string {
	return hexutil.Encode(sub)
}

// ParseSubaccount reads a 0x-prefixed hex subaccount. Empty input means the
// default subaccount.
func ParseSubaccount(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid subaccount: %w", err)
	}
	if len(b) != SubaccountLen {
		return nil, ErrInvalidSubaccount
	}
	return b, nil
}
