// Package session wires the quote, balance and activity components for one
// user and holds the state a front end displays. Every result is published
// through the sequencer, so a result that was superseded while in flight
// never becomes visible.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vaultswap/pkg/activity"
	"vaultswap/pkg/client"
	"vaultswap/pkg/deposit"
	"vaultswap/pkg/events"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/oracle"
	"vaultswap/pkg/refresh"
	"vaultswap/pkg/sequencer"
	"vaultswap/pkg/solver"
	"vaultswap/pkg/tokenmeta"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

// DefaultSlippagePct is the slippage allowed on a swap when none is set.
var DefaultSlippagePct = decimal.RequireFromString("0.5")

var (
	ErrNoUser              = errors.New("no user principal configured")
	ErrInsufficientBalance = errors.New("target output exceeds available balance")
	ErrInvalidSlippage     = errors.New("slippage must be between 0 and 100 percent")
)

// Options configures a session.
type Options struct {
	// User is the principal every user-scoped call is made for.
	User        string
	PageSize    int
	SlippagePct decimal.Decimal
	Poll        refresh.Options
	// Cutoff hides older activity; zero means activity.DefaultCutoff.
	Cutoff  time.Time
	MetaTTL time.Duration
	Clock   clock.Clock
}

// Session is one user's view of the pool.
type Session struct {
	ID string

	opts     Options
	svc      client.Service
	seq      *sequencer.Sequencer
	meta     *tokenmeta.Cache
	solver   *solver.Solver
	refresh  *refresh.Coordinator
	pager    *activity.Pager
	deposits *deposit.Manager
	m        *metrics.Metrics
	logger   *slog.Logger

	// guarded by seq
	quote      *solver.Result
	quoteReq   types.SwapRequest
	balance    types.AvailableBalance
	hasBalance bool
	feed       activity.Feed
}

// New builds a session over svc. transfer is the ledger boundary used for
// deposits and may be nil when deposits are not needed.
func New(svc client.Service, transfer deposit.Transferer, opts Options, m *metrics.Metrics, logger *slog.Logger) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = activity.DefaultPageSize
	}
	if opts.SlippagePct.IsZero() {
		opts.SlippagePct = DefaultSlippagePct
	}
	if opts.Poll == (refresh.Options{}) {
		opts.Poll = refresh.DefaultOptions()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	id := uuid.NewString()
	logger = logging.OrDiscard(logger).With("session", id)

	seq := sequencer.New(m)
	meta := tokenmeta.New(svc, opts.Clock, opts.MetaTTL, m, logger)
	orc := oracle.New(svc, m, logger)

	return &Session{
		ID:       id,
		opts:     opts,
		svc:      svc,
		seq:      seq,
		meta:     meta,
		solver:   solver.New(orc, seq, m, logger),
		refresh:  refresh.New(svc, meta, opts.Clock, m, logger),
		pager:    activity.New(svc, opts.Cutoff, m, logger),
		deposits: deposit.NewManager(svc, transfer, meta, logger),
		m:        m,
		logger:   logger,
	}
}

// SetSolverOptions replaces the exact-output search options.
func (s *Session) SetSolverOptions(o solver.Options) {
	s.solver.SetOptions(o)
}

// User returns the session's principal.
func (s *Session) User() string {
	return s.opts.User
}

func (s *Session) account() (client.Account, error) {
	if s.opts.User == "" {
		return client.Account{}, ErrNoUser
	}
	return client.Account{Owner: s.opts.User}, nil
}

// TokenMeta returns the cached ledger metadata.
func (s *Session) TokenMeta(ctx context.Context) (types.TokenMeta, error) {
	return s.meta.Get(ctx)
}

// Quote prices req and publishes the result as the current quote. For exact
// output the input is bounded by the visible balance of the input asset once
// a balance has been loaded. A superseded result returns sequencer.ErrStale.
func (s *Session) Quote(ctx context.Context, req types.SwapRequest) (solver.Result, error) {
	var (
		res solver.Result
		err error
	)
	switch req.Mode {
	case types.ExactOutput:
		sreq := solver.Request{AssetIn: req.AssetIn, AssetOut: req.AssetOut, TargetOut: req.Amount}
		s.seq.Read(func() {
			if s.hasBalance {
				sreq.MaxIn = decimal.NewNullDecimal(s.balance.Of(req.AssetIn))
			}
		})
		res, err = s.solver.SolveExactOutput(ctx, sreq)
	default:
		res, err = s.solver.SolveExactInput(ctx, req.AssetIn, req.AssetOut, req.Amount)
	}
	if err != nil {
		return solver.Result{}, err
	}

	if !s.seq.Commit(res.Token, func() {
		r := res
		s.quote = &r
		s.quoteReq = req
	}) {
		return solver.Result{}, sequencer.ErrStale
	}
	return res, nil
}

// CurrentQuote returns the visible quote and the request it answers.
func (s *Session) CurrentQuote() (solver.Result, types.SwapRequest, bool) {
	var (
		res solver.Result
		req types.SwapRequest
		ok  bool
	)
	s.seq.Read(func() {
		if s.quote != nil {
			res, req, ok = *s.quote, s.quoteReq, true
		}
	})
	return res, req, ok
}

// RefreshBalances asks the service to recompute the user's balance and
// observes it until it changes, then publishes it.
func (s *Session) RefreshBalances(ctx context.Context) (refresh.Observation, error) {
	if s.opts.User == "" {
		return refresh.Observation{}, ErrNoUser
	}
	tok := s.seq.Next(sequencer.ChannelBalance)

	obs, err := s.refresh.RefreshAndObserve(ctx, s.opts.User, s.opts.Poll)
	if err != nil {
		return obs, err
	}
	if !s.seq.Commit(tok, func() {
		s.balance = obs.Balance
		s.hasBalance = true
	}) {
		return obs, sequencer.ErrStale
	}
	return obs, nil
}

// ReadBalance performs one balance read without triggering a recompute and
// publishes it.
func (s *Session) ReadBalance(ctx context.Context) (types.AvailableBalance, error) {
	if s.opts.User == "" {
		return types.AvailableBalance{}, ErrNoUser
	}
	tok := s.seq.Next(sequencer.ChannelBalance)
	b, err := s.refresh.Read(ctx, s.opts.User)
	if err != nil {
		return types.AvailableBalance{}, err
	}
	if !s.seq.Commit(tok, func() {
		s.balance = b
		s.hasBalance = true
	}) {
		return types.AvailableBalance{}, sequencer.ErrStale
	}
	return b, nil
}

// Balance returns the visible balance and whether one was loaded.
func (s *Session) Balance() (types.AvailableBalance, bool) {
	var (
		b  types.AvailableBalance
		ok bool
	)
	s.seq.Read(func() {
		b, ok = s.balance, s.hasBalance
	})
	return b, ok
}

// LoadFirstPage reloads the activity feed from the start.
func (s *Session) LoadFirstPage(ctx context.Context) (activity.Feed, error) {
	tok := s.seq.Next(sequencer.ChannelActivity)
	page, err := s.pager.LoadFirst(ctx, s.opts.PageSize)
	if err != nil {
		return activity.Feed{}, err
	}

	var out activity.Feed
	if !s.seq.Commit(tok, func() {
		s.feed.Reset(page)
		out = s.copyFeed()
	}) {
		return activity.Feed{}, sequencer.ErrStale
	}
	return out, nil
}

// LoadMorePage appends the next page to the feed. It is a no-op when the
// feed is exhausted.
func (s *Session) LoadMorePage(ctx context.Context) (activity.Feed, error) {
	var (
		cursor  uint64
		hasMore bool
	)
	s.seq.Read(func() {
		cursor, hasMore = s.feed.Cursor, s.feed.HasMore
	})
	if !hasMore {
		return s.Feed(), nil
	}

	tok := s.seq.Next(sequencer.ChannelActivity)
	page, err := s.pager.LoadMore(ctx, cursor, s.opts.PageSize)
	if err != nil {
		return activity.Feed{}, err
	}

	var out activity.Feed
	if !s.seq.Commit(tok, func() {
		s.feed.Append(page)
		out = s.copyFeed()
	}) {
		return activity.Feed{}, sequencer.ErrStale
	}
	return out, nil
}

// Feed returns a copy of the visible activity feed.
func (s *Session) Feed() activity.Feed {
	var out activity.Feed
	s.seq.Read(func() {
		out = s.copyFeed()
	})
	return out
}

func (s *Session) copyFeed() activity.Feed {
	f := s.feed
	f.Events = append([]events.Event(nil), s.feed.Events...)
	return f
}

// LatestEvents reads the most recent activity without touching the feed.
func (s *Session) LatestEvents(ctx context.Context, limit int) ([]events.Event, error) {
	return s.pager.LoadLatest(ctx, limit)
}

// Swap quotes req, submits it with a minimum output of the quoted output
// less slippagePct percent, and refreshes balances. A zero slippagePct uses
// the session default.
func (s *Session) Swap(ctx context.Context, req types.SwapRequest, slippagePct decimal.Decimal) (types.SwapReceipt, error) {
	acct, err := s.account()
	if err != nil {
		return types.SwapReceipt{}, err
	}
	if slippagePct.IsZero() {
		slippagePct = s.opts.SlippagePct
	}
	if slippagePct.IsNegative() || slippagePct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return types.SwapReceipt{}, ErrInvalidSlippage
	}

	res, err := s.Quote(ctx, req)
	if err != nil {
		return types.SwapReceipt{}, err
	}
	if res.BoundLimited {
		return types.SwapReceipt{}, fmt.Errorf("%w: need more than %s %s", ErrInsufficientBalance, res.AmountIn, req.AssetIn)
	}
	if res.AmountIn.Sign() <= 0 {
		return types.SwapReceipt{}, fmt.Errorf("swap amount must be positive")
	}

	minOut := MinOut(res.Quote.AmountOut, slippagePct)
	args := client.SwapArgs{
		Account:  acct,
		TokenIn:  types.TokenVariant(req.AssetIn.Variant()),
		TokenOut: types.TokenVariant(req.AssetOut.Variant()),
		DxE6:     client.NewNat(units.ToPool(res.AmountIn)),
		MinDyE6:  client.NewNat(units.ToPool(minOut)),
	}

	dy, err := s.svc.SubmitSwap(ctx, args)
	if err != nil {
		return types.SwapReceipt{}, fmt.Errorf("swap failed: %w", err)
	}

	receipt := types.SwapReceipt{
		AssetIn:   req.AssetIn,
		AssetOut:  req.AssetOut,
		AmountIn:  res.AmountIn,
		MinOut:    minOut,
		AmountOut: units.FromPool(dy),
		At:        s.opts.Clock.Now(),
	}
	s.logger.Info("swap executed",
		"mode", req.Mode, "in", req.AssetIn, "out", req.AssetOut,
		"amount_in", receipt.AmountIn, "amount_out", receipt.AmountOut, "min_out", minOut)

	s.afterMutation(ctx)
	return receipt, nil
}

// MinOut is amountOut less pct percent, truncated to pool precision.
func MinOut(amountOut, pct decimal.Decimal) decimal.Decimal {
	keep := decimal.NewFromInt(1).Sub(pct.Div(decimal.NewFromInt(100)))
	return amountOut.Mul(keep).Truncate(units.PoolDecimals)
}

// afterMutation refreshes balances after a state-changing call. The call
// already succeeded, so refresh failures are only logged.
func (s *Session) afterMutation(ctx context.Context) {
	if _, err := s.RefreshBalances(ctx); err != nil && !errors.Is(err, sequencer.ErrStale) {
		s.logger.Warn("balance refresh after update failed", "error", err)
	}
}
