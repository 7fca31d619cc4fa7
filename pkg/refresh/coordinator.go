package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andres-erbsen/clock"

	"vaultswap/pkg/client"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

// BalanceService is the part of the pool service the coordinator needs.
type BalanceService interface {
	RecomputeAvailableBalance(ctx context.Context, user string) error
	ReadAvailableBalance(ctx context.Context, user string) (client.Amounts, error)
}

// DecimalsSource resolves ledger decimals per asset.
type DecimalsSource interface {
	Decimals(ctx context.Context, asset types.Asset) (int32, error)
}

// Coordinator asks the service to recompute a user's balance and then reads
// it until it changes.
type Coordinator struct {
	svc    BalanceService
	dec    DecimalsSource
	clock  clock.Clock
	m      *metrics.Metrics
	logger *slog.Logger
}

// New creates a coordinator. A nil clock means the wall clock.
func New(svc BalanceService, dec DecimalsSource, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{svc: svc, dec: dec, clock: clk, m: m, logger: logging.OrDiscard(logger)}
}

// Read performs one balance read converted to natural units.
func (c *Coordinator) Read(ctx context.Context, user string) (types.AvailableBalance, error) {
	raw, err := c.svc.ReadAvailableBalance(ctx, user)
	if err != nil {
		return types.AvailableBalance{}, err
	}
	decUSDC, err := c.dec.Decimals(ctx, types.CkUSDC)
	if err != nil {
		return types.AvailableBalance{}, err
	}
	decUSDT, err := c.dec.Decimals(ctx, types.CkUSDT)
	if err != nil {
		return types.AvailableBalance{}, err
	}
	return types.AvailableBalance{
		USDC: units.FromFixedPoint(raw.USDC.Int(), decUSDC),
		USDT: units.FromFixedPoint(raw.USDT.Int(), decUSDT),
	}, nil
}

// RefreshAndObserve triggers a recompute, takes a baseline read and keeps
// reading every opts.Interval until a read differs or opts.Tries reads were
// made. Running out of tries is not an error. Only a failed baseline read is,
// since there is no earlier value to fall back on.
func (c *Coordinator) RefreshAndObserve(ctx context.Context, user string, opts Options) (Observation, error) {
	opts = opts.Normalize()

	if err := c.svc.RecomputeAvailableBalance(ctx, user); err != nil {
		c.logger.Warn("balance recompute failed", "user", user, "error", err)
	}

	poll := NewPoll(opts.Tries)
	base, err := c.Read(ctx, user)
	if err != nil {
		if !errors.Is(err, client.ErrTransport) {
			err = fmt.Errorf("%w: %w", client.ErrTransport, err)
		}
		return Observation{}, fmt.Errorf("baseline balance read: %w", err)
	}
	poll.Baseline(base)

	for !poll.Done() {
		select {
		case <-ctx.Done():
			return poll.Result(), ctx.Err()
		case <-c.clock.After(opts.Interval):
		}

		cur, err := c.Read(ctx, user)
		if err != nil {
			c.logger.Debug("balance read failed, keeping last value", "user", user, "error", err)
		}
		poll.Observe(cur, err == nil)
	}

	obs := poll.Result()
	c.m.RecordPoll(obs.Attempts, obs.Changed)
	c.logger.Debug("balance refresh settled", "user", user, "attempts", obs.Attempts, "changed", obs.Changed)
	return obs, nil
}
