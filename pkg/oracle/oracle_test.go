package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultswap/pkg/client"
	"vaultswap/pkg/types"
)

type fakeQuoter struct {
	calls int
	gotDx *big.Int
	out   client.QuoteOut
	err   error
}

func (f *fakeQuoter) QuoteForward(ctx context.Context, in, out types.Asset, dxE6 *big.Int) (client.QuoteOut, error) {
	f.calls++
	f.gotDx = dxE6
	return f.out, f.err
}

func TestQuoteForward_Converts(t *testing.T) {
	q := &fakeQuoter{out: client.QuoteOut{
		DyE6:    client.NatFromUint64(10_490_000),
		FeeE6:   client.NatFromUint64(4_200),
		PriceE6: client.NatFromUint64(999_047),
	}}
	o := New(q, nil, nil)

	quote, err := o.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, decimal.RequireFromString("10.5"))
	require.NoError(t, err)
	assert.Equal(t, "10500000", q.gotDx.String())
	assert.True(t, quote.AmountOut.Equal(decimal.RequireFromString("10.49")))
	assert.True(t, quote.Fee.Equal(decimal.RequireFromString("0.0042")))
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("0.999047")))
}

func TestQuoteForward_UnsupportedPair(t *testing.T) {
	q := &fakeQuoter{}
	o := New(q, nil, nil)

	_, err := o.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDC, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOracle))

	_, err = o.QuoteForward(context.Background(), types.Asset("ICP"), types.CkUSDC, decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, ErrOracle))
	assert.Equal(t, 0, q.calls)
}

func TestQuoteForward_RemoteMessageVerbatim(t *testing.T) {
	q := &fakeQuoter{err: &client.RemoteError{Method: client.MethodQuote, Status: 400, Message: "pool paused"}}
	o := New(q, nil, nil)

	_, err := o.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, decimal.NewFromInt(1))
	require.Error(t, err)

	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "pool paused", oe.Message)
	assert.True(t, errors.Is(err, ErrOracle))
}

func TestQuoteForward_TransportFailureIsOracleError(t *testing.T) {
	q := &fakeQuoter{err: client.ErrTransport}
	o := New(q, nil, nil)

	_, err := o.QuoteForward(context.Background(), types.CkUSDT, types.CkUSDC, decimal.NewFromInt(1))
	assert.True(t, errors.Is(err, ErrOracle))
	assert.True(t, errors.Is(err, client.ErrTransport))
}

func TestQuoteForward_Malformed(t *testing.T) {
	q := &fakeQuoter{out: client.QuoteOut{DyE6: client.NatFromUint64(1)}}
	o := New(q, nil, nil)

	_, err := o.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed quote")
}

func TestQuoteForward_ZeroAmountAllowsZeroPrice(t *testing.T) {
	q := &fakeQuoter{}
	o := New(q, nil, nil)

	quote, err := o.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, quote.AmountOut.IsZero())
}
