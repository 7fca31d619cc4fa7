package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"vaultswap/pkg/types"
)

func newTestServer(t *testing.T, method string, handler func(t *testing.T, body map[string]json.RawMessage) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/"+method, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		status, reply := handler(t, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestQuoteForward_Success(t *testing.T) {
	server := newTestServer(t, MethodQuote, func(t *testing.T, body map[string]json.RawMessage) (int, string) {
		assert.JSONEq(t, `{"USDC":null}`, string(body["token_in"]))
		assert.JSONEq(t, `{"USDT":null}`, string(body["token_out"]))
		assert.JSONEq(t, `"10000000"`, string(body["dx_e6"]))
		return http.StatusOK, `{"dy_e6": 9990000, "fee_e6": "4000", "price_e6": 999000}`
	})
	defer server.Close()

	c := NewHTTPClient(server.URL, nil, nil, nil, nil)
	q, err := c.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, big.NewInt(10_000_000))
	require.NoError(t, err)
	assert.Equal(t, "9990000", q.DyE6.String())
	assert.Equal(t, "4000", q.FeeE6.String())
	assert.Equal(t, "999000", q.PriceE6.String())
}

func TestQuoteForward_ServerError(t *testing.T) {
	server := newTestServer(t, MethodQuote, func(t *testing.T, _ map[string]json.RawMessage) (int, string) {
		return http.StatusBadRequest, `{"error": "insufficient liquidity"}`
	})
	defer server.Close()

	c := NewHTTPClient(server.URL, nil, nil, nil, nil)
	_, err := c.QuoteForward(context.Background(), types.CkUSDC, types.CkUSDT, big.NewInt(1))
	require.Error(t, err)

	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "insufficient liquidity", re.Message)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewHTTPClient(url, nil, nil, nil, nil)
	_, err := c.ReadAvailableBalance(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestMalformedReplyIsTransportFailure(t *testing.T) {
	server := newTestServer(t, MethodAvailable, func(t *testing.T, _ map[string]json.RawMessage) (int, string) {
		return http.StatusOK, `{"usdc": "abc"}`
	})
	defer server.Close()

	c := NewHTTPClient(server.URL, nil, nil, nil, nil)
	_, err := c.ReadAvailableBalance(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestSubmitSwap_ResultVariants(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := newTestServer(t, MethodSwap, func(t *testing.T, body map[string]json.RawMessage) (int, string) {
			var args SwapArgs
			require.NoError(t, json.Unmarshal(body["args"], &args))
			assert.Equal(t, "user-1", args.Account.Owner)
			assert.Equal(t, types.CkUSDT, args.TokenOut.Asset())
			assert.Equal(t, "995000", args.MinDyE6.String())
			return http.StatusOK, `{"ok": {"dy_e6": "999000"}}`
		})
		defer server.Close()

		c := NewHTTPClient(server.URL, nil, nil, nil, nil)
		dy, err := c.SubmitSwap(context.Background(), SwapArgs{
			Account:  Account{Owner: "user-1"},
			TokenIn:  types.TokenVariant("USDC"),
			TokenOut: types.TokenVariant("USDT"),
			DxE6:     NatFromUint64(1_000_000),
			MinDyE6:  NatFromUint64(995_000),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(999000), dy.Int64())
	})

	t.Run("err", func(t *testing.T) {
		server := newTestServer(t, MethodSwap, func(t *testing.T, _ map[string]json.RawMessage) (int, string) {
			return http.StatusOK, `{"err": "slippage exceeded"}`
		})
		defer server.Close()

		c := NewHTTPClient(server.URL, nil, nil, nil, nil)
		_, err := c.SubmitSwap(context.Background(), SwapArgs{})
		require.Error(t, err)
		re, ok := AsRemote(err)
		require.True(t, ok)
		assert.Equal(t, "slippage exceeded", re.Message)
	})
}

func TestTokenMetadata_Optional(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  *TokenMeta
	}{
		{"null", `null`, nil},
		{"empty opt", `[]`, nil},
		{"opt", `[{"ckusdc":"a","ckusdt":"b","dec_usdc":6,"dec_usdt":8}]`, &TokenMeta{CkUSDC: "a", CkUSDT: "b", DecUSDC: 6, DecUSDT: 8}},
		{"bare", `{"ckusdc":"a","ckusdt":"b","dec_usdc":6,"dec_usdt":6}`, &TokenMeta{CkUSDC: "a", CkUSDT: "b", DecUSDC: 6, DecUSDT: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, MethodTokenMeta, func(t *testing.T, _ map[string]json.RawMessage) (int, string) {
				return http.StatusOK, tt.reply
			})
			defer server.Close()

			c := NewHTTPClient(server.URL, nil, nil, nil, nil)
			got, err := c.TokenMetadata(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepositTarget_HexSubaccount(t *testing.T) {
	server := newTestServer(t, MethodDepositTarget, func(t *testing.T, body map[string]json.RawMessage) (int, string) {
		assert.JSONEq(t, `"user-1"`, string(body["user"]))
		return http.StatusOK, `{"owner":"pool-canister","sub":"0x0102ff","ai_hex":"abcd"}`
	})
	defer server.Close()

	c := NewHTTPClient(server.URL, nil, nil, nil, nil)
	target, err := c.DepositTarget(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pool-canister", target.Owner)
	assert.Equal(t, []byte{0x01, 0x02, 0xff}, []byte(target.Sub))
	assert.Equal(t, "abcd", target.AIHex)
}

func TestListEvents_PassesCursor(t *testing.T) {
	server := newTestServer(t, MethodEvents, func(t *testing.T, body map[string]json.RawMessage) (int, string) {
		assert.JSONEq(t, `40`, string(body["cursor"]))
		assert.JSONEq(t, `20`, string(body["limit"]))
		return http.StatusOK, `[{"Swap":{}}, {"kind":"Deposit"}]`
	})
	defer server.Close()

	c := NewHTTPClient(server.URL, nil, nil, nil, nil)
	raw, err := c.ListEvents(context.Background(), 40, 20)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestRateLimiterCancelled(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(1e12), 1)
	require.True(t, limiter.Allow())

	c := NewHTTPClient("http://127.0.0.1:0", nil, limiter, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PoolInfo(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLedgerTransfer(t *testing.T) {
	server := newTestServer(t, MethodTransfer, func(t *testing.T, body map[string]json.RawMessage) (int, string) {
		assert.JSONEq(t, `"ledger-usdc"`, string(body["ledger"]))
		assert.JSONEq(t, `"2500000"`, string(body["amount"]))
		return http.StatusOK, `{"Ok": 42}`
	})
	defer server.Close()

	l := NewLedgerClient(NewHTTPClient(server.URL, nil, nil, nil, nil))
	block, err := l.Transfer(context.Background(), "ledger-usdc", Account{Owner: "pool"}, big.NewInt(2_500_000))
	require.NoError(t, err)
	assert.Equal(t, int64(42), block.Int64())
}

func TestLedgerTransfer_Err(t *testing.T) {
	server := newTestServer(t, MethodTransfer, func(t *testing.T, _ map[string]json.RawMessage) (int, string) {
		return http.StatusOK, `{"Err": {"InsufficientFunds": {"balance": "0"}}}`
	})
	defer server.Close()

	l := NewLedgerClient(NewHTTPClient(server.URL, nil, nil, nil, nil))
	_, err := l.Transfer(context.Background(), "ledger-usdc", Account{Owner: "pool"}, big.NewInt(1))
	re, ok := AsRemote(err)
	require.True(t, ok)
	assert.Contains(t, re.Message, "InsufficientFunds")
}

func TestNatJSON(t *testing.T) {
	var n Nat
	require.NoError(t, json.Unmarshal([]byte(`123456789012345678901234567890`), &n))
	assert.Equal(t, "123456789012345678901234567890", n.String())

	require.NoError(t, json.Unmarshal([]byte(`"7"`), &n))
	assert.Equal(t, "7", n.String())

	assert.Error(t, json.Unmarshal([]byte(`"-1"`), &n))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &n))

	out, err := json.Marshal(NatFromUint64(9))
	require.NoError(t, err)
	assert.Equal(t, `"9"`, string(out))
}
