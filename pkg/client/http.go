package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vaultswap/pkg/metrics"
	"vaultswap/pkg/types"
)

// HTTPClient talks to the pool service over JSON POST requests to
// {baseURL}/api/v1/{method}. Requests are throttled by a token bucket.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewHTTPClient creates a pool service client. A nil limiter means no
// throttling; nil httpClient and logger get defaults.
func NewHTTPClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter, m *metrics.Metrics, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    limiter,
		metrics:    m,
		logger:     logger,
	}
}

// QuoteForward calls quote_live.
func (c *HTTPClient) QuoteForward(ctx context.Context, in, out types.Asset, dxE6 *big.Int) (QuoteOut, error) {
	req := map[string]any{
		"token_in":  types.TokenVariant(in.Variant()),
		"token_out": types.TokenVariant(out.Variant()),
		"dx_e6":     NewNat(dxE6),
	}
	var q QuoteOut
	if err := c.call(ctx, MethodQuote, req, &q); err != nil {
		return QuoteOut{}, err
	}
	return q, nil
}

// SubmitSwap calls swap_live.
func (c *HTTPClient) SubmitSwap(ctx context.Context, args SwapArgs) (*big.Int, error) {
	var ok struct {
		DyE6 Nat `json:"dy_e6"`
	}
	if err := c.callResult(ctx, MethodSwap, map[string]any{"args": args}, &ok); err != nil {
		return nil, err
	}
	return ok.DyE6.Int(), nil
}

// RecomputeAvailableBalance calls refresh_available_for.
func (c *HTTPClient) RecomputeAvailableBalance(ctx context.Context, user string) error {
	var ok json.RawMessage
	return c.callResult(ctx, MethodRefresh, map[string]any{"user": user}, &ok)
}

// ReadAvailableBalance calls get_available_balances_live_for.
func (c *HTTPClient) ReadAvailableBalance(ctx context.Context, user string) (Amounts, error) {
	var a Amounts
	if err := c.call(ctx, MethodAvailable, map[string]any{"user": user}, &a); err != nil {
		return Amounts{}, err
	}
	return a, nil
}

// ListEvents calls get_events. Records are returned undecoded, oldest first.
func (c *HTTPClient) ListEvents(ctx context.Context, cursor, limit uint64) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	req := map[string]any{"cursor": cursor, "limit": limit}
	if err := c.call(ctx, MethodEvents, req, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ListLatestEvents calls get_events_latest.
func (c *HTTPClient) ListLatestEvents(ctx context.Context, limit uint64) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := c.call(ctx, MethodEventsLatest, map[string]any{"limit": limit}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// TokenMetadata calls get_token_meta. The reply is an optional value and may
// come as null, [] or [meta] as well as a bare object.
func (c *HTTPClient) TokenMetadata(ctx context.Context) (*TokenMeta, error) {
	var raw json.RawMessage
	if err := c.call(ctx, MethodTokenMeta, struct{}{}, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var opt []TokenMeta
		if err := json.Unmarshal(raw, &opt); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", ErrTransport, MethodTokenMeta, err)
		}
		if len(opt) == 0 {
			return nil, nil
		}
		return &opt[0], nil
	}
	var meta TokenMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrTransport, MethodTokenMeta, err)
	}
	return &meta, nil
}

// PoolInfo calls get_pool_info.
func (c *HTTPClient) PoolInfo(ctx context.Context) (PoolInfo, error) {
	var p PoolInfo
	if err := c.call(ctx, MethodPoolInfo, struct{}{}, &p); err != nil {
		return PoolInfo{}, err
	}
	return p, nil
}

// PoolReserves calls get_pool_reserves_live.
func (c *HTTPClient) PoolReserves(ctx context.Context) (Amounts, error) {
	var a Amounts
	if err := c.call(ctx, MethodPoolReserves, struct{}{}, &a); err != nil {
		return Amounts{}, err
	}
	return a, nil
}

// UserPosition calls get_user_position.
func (c *HTTPClient) UserPosition(ctx context.Context, acct Account) (Position, error) {
	var p Position
	if err := c.call(ctx, MethodUserPosition, map[string]any{"account": acct}, &p); err != nil {
		return Position{}, err
	}
	return p, nil
}

// UnclaimedFees calls get_unclaimed_fee.
func (c *HTTPClient) UnclaimedFees(ctx context.Context, acct Account) (Amounts, error) {
	var a Amounts
	if err := c.call(ctx, MethodUnclaimedFee, map[string]any{"account": acct}, &a); err != nil {
		return Amounts{}, err
	}
	return a, nil
}

// AddLiquidity calls add_liquidity and returns the minted shares.
func (c *HTTPClient) AddLiquidity(ctx context.Context, acct Account, usdcE6, usdtE6 *big.Int) (*big.Int, error) {
	req := map[string]any{
		"account": acct,
		"usdc_e6": NewNat(usdcE6),
		"usdt_e6": NewNat(usdtE6),
	}
	var ok Position
	if err := c.callResult(ctx, MethodAddLiquidity, req, &ok); err != nil {
		return nil, err
	}
	return ok.Shares.Int(), nil
}

// RemoveLiquidity calls remove_liquidity and returns the amounts paid out.
func (c *HTTPClient) RemoveLiquidity(ctx context.Context, acct Account, sharesE6 *big.Int) (Amounts, error) {
	req := map[string]any{"account": acct, "shares_e6": NewNat(sharesE6)}
	var ok Amounts
	if err := c.callResult(ctx, MethodRemoveLiquidity, req, &ok); err != nil {
		return Amounts{}, err
	}
	return ok, nil
}

// ClaimFee calls claim_fee.
func (c *HTTPClient) ClaimFee(ctx context.Context, acct Account) (Amounts, error) {
	var ok Amounts
	if err := c.callResult(ctx, MethodClaimFee, map[string]any{"account": acct}, &ok); err != nil {
		return Amounts{}, err
	}
	return ok, nil
}

// StatsSnapshot calls get_stats_snapshot.
func (c *HTTPClient) StatsSnapshot(ctx context.Context) (StatsSnapshot, error) {
	var s StatsSnapshot
	if err := c.call(ctx, MethodStats, struct{}{}, &s); err != nil {
		return StatsSnapshot{}, err
	}
	return s, nil
}

// DepositTarget calls get_deposit_target_for.
func (c *HTTPClient) DepositTarget(ctx context.Context, user string) (DepositTarget, error) {
	var t DepositTarget
	if err := c.call(ctx, MethodDepositTarget, map[string]any{"user": user}, &t); err != nil {
		return DepositTarget{}, err
	}
	return t, nil
}

// WithdrawFromSub calls withdraw_from_sub and returns the ledger's reply.
func (c *HTTPClient) WithdrawFromSub(ctx context.Context, ledger string, to Account, amount *big.Int) (string, error) {
	req := map[string]any{"ledger": ledger, "to": to, "amount": NewNat(amount)}
	var ok string
	if err := c.callResult(ctx, MethodWithdraw, req, &ok); err != nil {
		return "", err
	}
	return ok, nil
}

// callResult is call for methods that reply with {"ok": ...} or {"err": "..."}.
func (c *HTTPClient) callResult(ctx context.Context, method string, args, ok any) error {
	var res struct {
		Ok  json.RawMessage `json:"ok"`
		Err *string         `json:"err"`
	}
	if err := c.call(ctx, method, args, &res); err != nil {
		return err
	}
	if res.Err != nil {
		return &RemoteError{Method: method, Status: http.StatusOK, Message: *res.Err}
	}
	if len(res.Ok) == 0 {
		return fmt.Errorf("%w: %s: reply has neither ok nor err", ErrTransport, method)
	}
	if err := json.Unmarshal(res.Ok, ok); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransport, method, err)
	}
	return nil
}

func (c *HTTPClient) call(ctx context.Context, method string, args, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordRemoteCall(method, err, time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}

	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(method, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransport, method, err)
	}

	c.logger.Debug("remote call", "method", method, "duration", time.Since(start))
	return nil
}

func (c *HTTPClient) parseErrorResponse(method string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error string `json:"error"`
		Err   string `json:"err"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error != "":
			msg = errResp.Error
		case errResp.Err != "":
			msg = errResp.Err
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &RemoteError{Method: method, Status: resp.StatusCode, Message: msg}
}
