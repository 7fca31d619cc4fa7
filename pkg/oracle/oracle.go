package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"vaultswap/pkg/client"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/types"
	"vaultswap/pkg/units"
)

// ErrOracle matches every *Error.
var ErrOracle = errors.New("quote oracle")

// Error is a failed or rejected forward quote. Message is the service's
// reason verbatim when it gave one.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrOracle) hold for any *Error.
func (e *Error) Is(target error) bool { return target == ErrOracle }

// Quoter is the forward pricing call of the pool service.
type Quoter interface {
	QuoteForward(ctx context.Context, in, out types.Asset, dxE6 *big.Int) (client.QuoteOut, error)
}

// Oracle turns natural amounts into forward quotes. Nothing is cached and
// failed calls are not retried.
type Oracle struct {
	q      Quoter
	m      *metrics.Metrics
	logger *slog.Logger
}

// New creates an oracle over q.
func New(q Quoter, m *metrics.Metrics, logger *slog.Logger) *Oracle {
	return &Oracle{q: q, m: m, logger: logging.OrDiscard(logger)}
}

// QuoteForward quotes amountIn of in for out.
func (o *Oracle) QuoteForward(ctx context.Context, in, out types.Asset, amountIn decimal.Decimal) (types.Quote, error) {
	if !in.Valid() || !out.Valid() || in == out {
		return types.Quote{}, &Error{Op: "quote", Message: fmt.Sprintf("unsupported pair %s/%s", in, out)}
	}

	dx := units.ToPool(amountIn)

	start := time.Now()
	raw, err := o.q.QuoteForward(ctx, in, out, dx)
	o.m.RecordQuote(err, time.Since(start).Seconds())
	if err != nil {
		qe := &Error{Op: "quote", Err: err}
		if re, ok := client.AsRemote(err); ok {
			qe.Message = re.Message
		}
		o.logger.Debug("quote failed", "in", in, "out", out, "amount", amountIn, "error", err)
		return types.Quote{}, qe
	}

	q := types.Quote{
		AmountOut: units.FromPool(raw.DyE6.Int()),
		Fee:       units.FromPool(raw.FeeE6.Int()),
		Price:     units.FromPool(raw.PriceE6.Int()),
	}
	if dx.Sign() > 0 && q.Price.Sign() <= 0 {
		return types.Quote{}, &Error{Op: "quote", Message: "malformed quote: non-positive price"}
	}
	if q.Fee.IsNegative() {
		return types.Quote{}, &Error{Op: "quote", Message: "malformed quote: negative fee"}
	}

	o.logger.Debug("quote", "in", in, "out", out, "amount_in", amountIn, "amount_out", q.AmountOut, "fee", q.Fee, "price", q.Price)
	return q, nil
}
