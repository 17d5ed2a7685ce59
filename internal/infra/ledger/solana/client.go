// Package solana implements the addrwatch.Ledger interface against a
// Solana JSON-RPC node. Amounts are converted from lamports to SOL at the
// boundary so the rest of the system works in native units.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gabapcia/walletpulse/internal/addrwatch"
	"github.com/gabapcia/walletpulse/internal/pkg/resilience/retry"
	"github.com/gabapcia/walletpulse/internal/pkg/transport/jsonrpc"
)

// lamportsPerSol is the fixed conversion rate between the chain's integer
// unit and SOL.
const lamportsPerSol = 1_000_000_000

type client struct {
	conn  jsonrpc.Client
	retry retry.Retry
}

var _ addrwatch.Ledger = (*client)(nil)

// config holds optional client settings.
type config struct {
	retry retry.Retry
}

// Option configures the Solana client.
type Option func(*config)

// WithRetry enables transient-failure retries for balance and history
// fetches. Detail lookups are never retried: a pruned transaction stays
// pruned and the monitor's fallback alert handles it.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// NewClient creates a ledger client over the given JSON-RPC connection.
func NewClient(conn jsonrpc.Client, opts ...Option) *client {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &client{
		conn:  conn,
		retry: cfg.retry,
	}
}

// fetchWithRetry runs the fetch through the configured retry policy, or
// directly when none is set.
func (c *client) fetchWithRetry(ctx context.Context, op func() error) error {
	if c.retry == nil {
		return op()
	}

	return c.retry.Execute(ctx, op)
}

// Balance implements addrwatch.Ledger using the getBalance RPC.
func (c *client) Balance(ctx context.Context, address string) (float64, error) {
	var res balanceResponse

	err := c.fetchWithRetry(ctx, func() error {
		data, err := c.conn.Fetch(ctx, "getBalance", address)
		if err != nil {
			return err
		}

		return json.Unmarshal(data, &res)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: getBalance for %s: %v", addrwatch.ErrLedgerUnavailable, address, err)
	}

	return float64(res.Value) / lamportsPerSol, nil
}

// RecentTransactionIDs implements addrwatch.Ledger using the
// getSignaturesForAddress RPC, which already returns entries most recent
// first.
func (c *client) RecentTransactionIDs(ctx context.Context, address string, limit int) ([]addrwatch.TransactionRef, error) {
	var res []signatureResponse

	err := c.fetchWithRetry(ctx, func() error {
		data, err := c.conn.Fetch(ctx, "getSignaturesForAddress", address, map[string]any{"limit": limit})
		if err != nil {
			return err
		}

		return json.Unmarshal(data, &res)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: getSignaturesForAddress for %s: %v", addrwatch.ErrLedgerUnavailable, address, err)
	}

	refs := make([]addrwatch.TransactionRef, len(res))
	for i, sig := range res {
		refs[i] = sig.toTransactionRef()
	}

	return refs, nil
}

// TransactionDetail implements addrwatch.Ledger using the getTransaction
// RPC. A null result means the signature is stale or pruned and maps to
// ErrTransactionNotFound.
func (c *client) TransactionDetail(ctx context.Context, id string) (addrwatch.TransactionDetail, error) {
	data, err := c.conn.Fetch(ctx, "getTransaction", id, map[string]any{
		"encoding":                       "json",
		"maxSupportedTransactionVersion": 0,
	})
	if err != nil {
		return addrwatch.TransactionDetail{}, fmt.Errorf("%w: getTransaction %s: %v", addrwatch.ErrLedgerUnavailable, id, err)
	}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return addrwatch.TransactionDetail{}, fmt.Errorf("%w: %s", addrwatch.ErrTransactionNotFound, id)
	}

	var res transactionResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return addrwatch.TransactionDetail{}, fmt.Errorf("%w: decoding %s: %v", addrwatch.ErrTransactionNotFound, id, err)
	}

	return res.toTransactionDetail(), nil
}
