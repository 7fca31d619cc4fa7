package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
)

// LedgerClient submits token transfers to a ledger gateway. It shares the
// HTTP plumbing of HTTPClient, pointed at the ledger's base URL.
type LedgerClient struct {
	http *HTTPClient
}

// NewLedgerClient wraps an HTTPClient whose base URL is the ledger gateway.
func NewLedgerClient(h *HTTPClient) *LedgerClient {
	return &LedgerClient{http: h}
}

// TransferArgs are the arguments of a ledger transfer from the caller's
// default account.
type TransferArgs struct {
	Ledger string  `json:"ledger"`
	To     Account `json:"to"`
	Amount Nat     `json:"amount"`
	Fee    *Nat    `json:"fee,omitempty"`
	Memo   []byte  `json:"memo,omitempty"`
}

// Transfer moves amount (ledger units) to the given account and returns the
// block index.
func (l *LedgerClient) Transfer(ctx context.Context, ledger string, to Account, amount *big.Int) (*big.Int, error) {
	args := TransferArgs{Ledger: ledger, To: to, Amount: NewNat(amount)}

	var res struct {
		Ok  *Nat            `json:"Ok"`
		Err json.RawMessage `json:"Err"`
	}
	if err := l.http.call(ctx, MethodTransfer, args, &res); err != nil {
		return nil, err
	}
	if len(res.Err) > 0 && string(res.Err) != "null" {
		return nil, &RemoteError{Method: MethodTransfer, Status: http.StatusOK, Message: string(res.Err)}
	}
	if res.Ok == nil {
		return nil, fmt.Errorf("%w: unexpected result from %s", ErrTransport, MethodTransfer)
	}
	return res.Ok.Int(), nil
}
