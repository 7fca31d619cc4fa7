package tokenmeta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"golang.org/x/sync/singleflight"

	"vaultswap/pkg/client"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
	"vaultswap/pkg/types"
)

// DefaultTTL is how long fetched metadata stays fresh.
const DefaultTTL = 5 * time.Minute

// ErrNoMetadata is returned when the service has no token metadata set.
var ErrNoMetadata = errors.New("token metadata not configured")

// Source fetches token metadata from the service.
type Source interface {
	TokenMetadata(ctx context.Context) (*client.TokenMeta, error)
}

// Entry is one fetched metadata value and when it was fetched.
type Entry struct {
	Meta      types.TokenMeta
	FetchedAt time.Time
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.FetchedAt) < ttl
}

// Cache holds token metadata for a TTL. Concurrent misses share one fetch.
// Failed fetches are not cached.
type Cache struct {
	src    Source
	clock  clock.Clock
	ttl    time.Duration
	group  singleflight.Group
	m      *metrics.Metrics
	logger *slog.Logger

	mu    sync.Mutex
	entry *Entry
}

// New creates a cache. A zero ttl means DefaultTTL; a nil clock the wall clock.
func New(src Source, clk clock.Clock, ttl time.Duration, m *metrics.Metrics, logger *slog.Logger) *Cache {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		src:    src,
		clock:  clk,
		ttl:    ttl,
		m:      m,
		logger: logging.OrDiscard(logger),
	}
}

// Get returns cached metadata, fetching it when missing or expired.
func (c *Cache) Get(ctx context.Context) (types.TokenMeta, error) {
	c.mu.Lock()
	entry := c.entry
	c.mu.Unlock()
	if entry.Fresh(c.clock.Now(), c.ttl) {
		c.m.RecordMetadataFetch("cache")
		return entry.Meta, nil
	}

	v, err, _ := c.group.Do("meta", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		c.m.RecordMetadataFetch("error")
		return types.TokenMeta{}, err
	}
	return v.(types.TokenMeta), nil
}

// Decimals returns the ledger decimals of one asset.
func (c *Cache) Decimals(ctx context.Context, asset types.Asset) (int32, error) {
	meta, err := c.Get(ctx)
	if err != nil {
		return 0, err
	}
	return meta.Of(asset).Decimals, nil
}

// Invalidate drops the cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}

func (c *Cache) fetch(ctx context.Context) (types.TokenMeta, error) {
	raw, err := c.src.TokenMetadata(ctx)
	if err != nil {
		return types.TokenMeta{}, fmt.Errorf("fetch token metadata: %w", err)
	}
	if raw == nil {
		return types.TokenMeta{}, ErrNoMetadata
	}

	meta := types.TokenMeta{
		USDC: types.TokenInfo{Asset: types.CkUSDC, Ledger: raw.CkUSDC, Decimals: int32(raw.DecUSDC)},
		USDT: types.TokenInfo{Asset: types.CkUSDT, Ledger: raw.CkUSDT, Decimals: int32(raw.DecUSDT)},
	}

	c.mu.Lock()
	c.entry = &Entry{Meta: meta, FetchedAt: c.clock.Now()}
	c.mu.Unlock()

	c.m.RecordMetadataFetch("remote")
	c.logger.Debug("token metadata fetched",
		"usdc_ledger", meta.USDC.Ledger, "usdc_decimals", meta.USDC.Decimals,
		"usdt_ledger", meta.USDT.Ledger, "usdt_decimals", meta.USDT.Decimals)
	return meta, nil
}
