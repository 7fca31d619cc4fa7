package tokenmeta

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultswap/pkg/client"
	"vaultswap/pkg/types"
)

type fakeSource struct {
	calls atomic.Int32
	meta  *client.TokenMeta
	err   error
	gate  chan struct{}
}

func (f *fakeSource) TokenMetadata(ctx context.Context) (*client.TokenMeta, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.meta, f.err
}

func sampleMeta() *client.TokenMeta {
	return &client.TokenMeta{CkUSDC: "ledger-usdc", CkUSDT: "ledger-usdt", DecUSDC: 6, DecUSDT: 8}
}

func TestCache_HitWithinTTL(t *testing.T) {
	src := &fakeSource{meta: sampleMeta()}
	clk := clock.NewMock()
	c := New(src, clk, 0, nil, nil)

	meta, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ledger-usdc", meta.USDC.Ledger)
	assert.Equal(t, int32(8), meta.Of(types.CkUSDT).Decimals)

	clk.Add(4 * time.Minute)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())

	clk.Add(2 * time.Minute)
	dec, err := c.Decimals(context.Background(), types.CkUSDC)
	require.NoError(t, err)
	assert.Equal(t, int32(6), dec)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_FailureNotCached(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := New(src, clock.NewMock(), time.Minute, nil, nil)

	_, err := c.Get(context.Background())
	require.Error(t, err)

	src.err = nil
	src.meta = sampleMeta()
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_Unset(t *testing.T) {
	c := New(&fakeSource{}, clock.NewMock(), 0, nil, nil)

	_, err := c.Decimals(context.Background(), types.CkUSDC)
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestCache_ConcurrentMissesShareFetch(t *testing.T) {
	src := &fakeSource{meta: sampleMeta(), gate: make(chan struct{})}
	c := New(src, clock.NewMock(), 0, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background())
			assert.NoError(t, err)
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	src := &fakeSource{meta: sampleMeta()}
	c := New(src, clock.NewMock(), 0, nil, nil)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
}
