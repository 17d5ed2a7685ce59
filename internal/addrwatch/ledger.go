package addrwatch

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLedgerUnavailable indicates a transient network or RPC failure
	// while querying the ledger. The affected address is skipped for the
	// rest of the cycle and retried on the next one.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrTransactionNotFound indicates the requested transaction id is
	// stale or has been pruned by the node. Classification degrades to the
	// fallback alert instead of aborting the cycle.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionRef identifies one entry of an address's transaction history.
type TransactionRef struct {
	ID        string
	Slot      uint64
	BlockTime time.Time
	Failed    bool
}

// TokenTransfer describes one token balance movement within a transaction,
// attributed to a single owner account.
type TokenTransfer struct {
	Mint       string
	OwnerDelta float64
	Decimals   uint8
}

// TransactionDetail is the parsed detail of a single transaction as needed
// by the classifier.
type TransactionDetail struct {
	Success        bool
	Fee            float64
	BalanceDeltas  map[string]float64
	TokenTransfers []TokenTransfer
}

// Ledger is the read-only view of the chain consumed by the monitor. All
// amounts are in the address's native unit.
type Ledger interface {
	// Balance returns the current native-unit balance of the address. It
	// fails with ErrLedgerUnavailable on network or RPC errors.
	Balance(ctx context.Context, address string) (float64, error)

	// RecentTransactionIDs returns up to limit transaction references for
	// the address, most recent first.
	RecentTransactionIDs(ctx context.Context, address string, limit int) ([]TransactionRef, error)

	// TransactionDetail fetches the parsed detail of a transaction by id.
	// It fails with ErrTransactionNotFound when the id is stale or pruned.
	TransactionDetail(ctx context.Context, id string) (TransactionDetail, error)
}
