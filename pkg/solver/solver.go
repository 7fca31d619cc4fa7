package solver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/sequencer"
	"vaultswap/pkg/types"
)

// Forward prices a swap of amountIn. It is implemented by *oracle.Oracle.
type Forward interface {
	QuoteForward(ctx context.Context, in, out types.Asset, amountIn decimal.Decimal) (types.Quote, error)
}

// Options tunes the exact-output search.
type Options struct {
	// Iterations is the number of refinement rounds before the final quote.
	Iterations int
	// Tolerance is max(AbsTolerance, target*RelTolerance).
	RelTolerance decimal.Decimal
	AbsTolerance decimal.Decimal
	// MinInput is the smallest input ever quoted.
	MinInput decimal.Decimal
	// ProbeAmount is the input of the seeding quote.
	ProbeAmount decimal.Decimal
	// SeedInflation scales the first guess up to cover price impact.
	SeedInflation decimal.Decimal
	// RatioFloor and RatioCeil bound the per-round correction factor.
	RatioFloor decimal.Decimal
	RatioCeil  decimal.Decimal
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Iterations:    2,
		RelTolerance:  decimal.New(1, -6),
		AbsTolerance:  decimal.New(1, -9),
		MinInput:      decimal.New(1, -12),
		ProbeAmount:   decimal.NewFromInt(1),
		SeedInflation: decimal.RequireFromString("1.002"),
		RatioFloor:    decimal.RequireFromString("0.5"),
		RatioCeil:     decimal.NewFromInt(2),
	}
}

// Request asks for the input that yields TargetOut. MaxIn.Valid == false
// means the input is unbounded.
type Request struct {
	AssetIn   types.Asset
	AssetOut  types.Asset
	TargetOut decimal.Decimal
	MaxIn     decimal.NullDecimal
}

// Result is the outcome of one solve. Converged is false when the final
// quote misses the target by more than the tolerance; BoundLimited is set
// when that happened because the input hit MaxIn.
type Result struct {
	AmountIn     decimal.Decimal
	Quote        types.Quote
	Converged    bool
	BoundLimited bool
	Iterations   int
	Token        sequencer.Token
}

// Solver finds swap inputs through the forward quote alone.
type Solver struct {
	fwd    Forward
	seq    *sequencer.Sequencer
	m      *metrics.Metrics
	logger *slog.Logger

	mu   sync.RWMutex
	opts Options
}

// New creates a solver with DefaultOptions. Every solve is sequenced on
// sequencer.ChannelQuote.
func New(fwd Forward, seq *sequencer.Sequencer, m *metrics.Metrics, logger *slog.Logger) *Solver {
	return &Solver{
		fwd:    fwd,
		seq:    seq,
		opts:   DefaultOptions(),
		m:      m,
		logger: logging.OrDiscard(logger),
	}
}

// SetOptions replaces the search options. Solves already running keep the
// options they started with.
func (s *Solver) SetOptions(o Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = o
}

func (s *Solver) options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SolveExactInput quotes a fixed input. It shares the quote channel with
// SolveExactOutput so switching modes supersedes the other mode's result.
func (s *Solver) SolveExactInput(ctx context.Context, in, out types.Asset, amountIn decimal.Decimal) (Result, error) {
	tok := s.seq.Next(sequencer.ChannelQuote)
	res := Result{Token: tok, AmountIn: amountIn, Converged: true}
	if amountIn.Sign() <= 0 {
		res.AmountIn = decimal.Zero
		return res, nil
	}

	q, err := s.quote(ctx, tok, in, out, amountIn)
	if err != nil {
		return Result{}, err
	}
	res.Quote = q
	return res, nil
}

// SolveExactOutput searches for the input whose quoted output is within
// tolerance of req.TargetOut. It returns sequencer.ErrStale when a newer
// quote request was issued while it ran, and an oracle error when a
// refinement or final quote fails.
func (s *Solver) SolveExactOutput(ctx context.Context, req Request) (Result, error) {
	tok := s.seq.Next(sequencer.ChannelQuote)
	o := s.options()
	target := req.TargetOut
	res := Result{Token: tok, AmountIn: decimal.Zero}

	if target.Sign() <= 0 {
		res.Converged = true
		return res, nil
	}
	bounded := req.MaxIn.Valid
	maxIn := req.MaxIn.Decimal
	if bounded && maxIn.Sign() <= 0 {
		res.BoundLimited = true
		s.m.RecordSolve(0, false, true)
		return res, nil
	}

	clampInput := func(x decimal.Decimal) decimal.Decimal {
		x = decimal.Max(x, o.MinInput)
		if bounded {
			x = decimal.Min(x, maxIn)
		}
		return x
	}
	tol := decimal.Max(o.AbsTolerance, target.Mul(o.RelTolerance))

	guess := target
	probe, err := s.fwd.QuoteForward(ctx, req.AssetIn, req.AssetOut, o.ProbeAmount)
	if staleErr := s.seq.Check(tok); staleErr != nil {
		return Result{}, staleErr
	}
	if err != nil {
		s.logger.Debug("probe quote failed, seeding with target", "error", err)
	} else if probe.Price.Sign() > 0 {
		feeRate := decimal.Zero
		if o.ProbeAmount.Sign() > 0 {
			feeRate = probe.Fee.Div(o.ProbeAmount)
		}
		guess = target.Div(probe.Price).Mul(decimal.NewFromInt(1).Add(feeRate)).Mul(o.SeedInflation)
	}
	guess = clampInput(guess)

	for i := 0; i < o.Iterations; i++ {
		q, err := s.quote(ctx, tok, req.AssetIn, req.AssetOut, guess)
		if err != nil {
			return Result{}, err
		}
		res.Iterations++

		if q.AmountOut.Sub(target).Abs().LessThanOrEqual(tol) {
			break
		}
		if q.AmountOut.Sign() <= 0 {
			break
		}
		ratio := decimal.Min(o.RatioCeil, decimal.Max(o.RatioFloor, target.Div(q.AmountOut)))
		next := clampInput(guess.Mul(ratio))
		if next.Equal(guess) {
			break
		}
		guess = next
	}

	final, err := s.quote(ctx, tok, req.AssetIn, req.AssetOut, guess)
	if err != nil {
		return Result{}, err
	}

	res.AmountIn = guess
	res.Quote = final
	res.Converged = final.AmountOut.Sub(target).Abs().LessThanOrEqual(tol)
	res.BoundLimited = !res.Converged && bounded && guess.Equal(maxIn)

	s.m.RecordSolve(res.Iterations, res.Converged, res.BoundLimited)
	if !res.Converged {
		s.logger.Debug("exact-output shortfall",
			"target", target, "amount_in", guess, "amount_out", final.AmountOut,
			"bounded", res.BoundLimited, "iterations", res.Iterations)
	}
	return res, nil
}

// quote runs one forward quote and drops the result if tok was superseded
// while it was in flight.
func (s *Solver) quote(ctx context.Context, tok sequencer.Token, in, out types.Asset, amountIn decimal.Decimal) (types.Quote, error) {
	q, err := s.fwd.QuoteForward(ctx, in, out, amountIn)
	if staleErr := s.seq.Check(tok); staleErr != nil {
		return types.Quote{}, staleErr
	}
	if err != nil {
		return types.Quote{}, err
	}
	return q, nil
}
