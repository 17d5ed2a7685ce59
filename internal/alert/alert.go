// Package alert defines the closed taxonomy of alerts produced by the
// monitoring pipeline. Each alert variant is a distinct type implementing
// the Alert interface, so consumers can switch exhaustively instead of
// matching on string tags.
package alert

import (
	"math"
	"time"
)

// Kind identifies an alert variant on the wire and in subscriptions.
type Kind string

const (
	KindTransactionReceived Kind = "transaction_received"
	KindTransactionSent     Kind = "transaction_sent"
	KindBalanceChanged      Kind = "balance_changed"
	KindTokenTransferred    Kind = "token_transferred"
	KindLargeTransaction    Kind = "large_transaction"
	KindNewTransaction      Kind = "new_transaction"
	KindMonitorError        Kind = "monitor_error"
)

// Kinds returns every alert kind the pipeline can emit.
func Kinds() []Kind {
	return []Kind{
		KindTransactionReceived,
		KindTransactionSent,
		KindBalanceChanged,
		KindTokenTransferred,
		KindLargeTransaction,
		KindNewTransaction,
		KindMonitorError,
	}
}

// Address carries the display metadata of the monitored address an alert
// refers to.
type Address struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// TokenTransfer describes one token movement attributed to the monitored
// address within a transaction.
type TokenTransfer struct {
	Mint       string  `json:"mint"`
	OwnerDelta float64 `json:"owner_delta"`
	Decimals   uint8   `json:"decimals"`
}

// Transaction is the parsed transaction payload carried by
// transaction-backed alert variants.
type Transaction struct {
	ID             string             `json:"id"`
	Success        bool               `json:"success"`
	Fee            float64            `json:"fee"`
	BalanceDeltas  map[string]float64 `json:"balance_deltas,omitempty"`
	TokenTransfers []TokenTransfer    `json:"token_transfers,omitempty"`
}

// Alert is the closed union of everything the monitor can emit. The
// unexported marker method keeps the set of variants confined to this
// package.
type Alert interface {
	// Kind identifies the alert variant.
	Kind() Kind

	// OccurredAt is the moment the underlying activity was observed.
	OccurredAt() time.Time

	// Watched is the monitored address the alert refers to.
	Watched() Address

	isAlert()
}

// meta holds the fields shared by every alert variant.
type meta struct {
	at   time.Time
	addr Address
}

func (m meta) OccurredAt() time.Time { return m.at }
func (m meta) Watched() Address      { return m.addr }
func (m meta) isAlert()              {}

// TransactionReceived signals an incoming native-unit transfer. Amount is
// the positive signed balance delta attributed to the monitored address.
type TransactionReceived struct {
	meta
	Tx     Transaction `json:"transaction"`
	Amount float64     `json:"amount"`
}

func (TransactionReceived) Kind() Kind { return KindTransactionReceived }

func NewTransactionReceived(at time.Time, addr Address, tx Transaction, amount float64) TransactionReceived {
	return TransactionReceived{meta: meta{at: at, addr: addr}, Tx: tx, Amount: amount}
}

// TransactionSent signals an outgoing native-unit transfer. Amount is the
// negative signed balance delta attributed to the monitored address.
type TransactionSent struct {
	meta
	Tx     Transaction `json:"transaction"`
	Amount float64     `json:"amount"`
}

func (TransactionSent) Kind() Kind { return KindTransactionSent }

func NewTransactionSent(at time.Time, addr Address, tx Transaction, amount float64) TransactionSent {
	return TransactionSent{meta: meta{at: at, addr: addr}, Tx: tx, Amount: amount}
}

// LargeTransaction is emitted in addition to the directional variant when
// the absolute wallet delta crosses the configured threshold.
type LargeTransaction struct {
	meta
	Tx        Transaction `json:"transaction"`
	Amount    float64     `json:"amount"`
	Threshold float64     `json:"threshold"`
}

func (LargeTransaction) Kind() Kind { return KindLargeTransaction }

func NewLargeTransaction(at time.Time, addr Address, tx Transaction, amount, threshold float64) LargeTransaction {
	return LargeTransaction{meta: meta{at: at, addr: addr}, Tx: tx, Amount: amount, Threshold: threshold}
}

// TokenTransferred is emitted in addition to the other variants when the
// transaction carries one or more token transfers.
type TokenTransferred struct {
	meta
	Tx        Transaction     `json:"transaction"`
	Transfers []TokenTransfer `json:"transfers"`
}

func (TokenTransferred) Kind() Kind { return KindTokenTransferred }

func NewTokenTransferred(at time.Time, addr Address, tx Transaction, transfers []TokenTransfer) TokenTransferred {
	return TokenTransferred{meta: meta{at: at, addr: addr}, Tx: tx, Transfers: transfers}
}

// NewTransaction is the fallback variant for on-chain activity that could
// not be attributed to a signed balance delta, so no activity is silently
// dropped.
type NewTransaction struct {
	meta
	Tx Transaction `json:"transaction"`
}

func (NewTransaction) Kind() Kind { return KindNewTransaction }

func NewNewTransaction(at time.Time, addr Address, tx Transaction) NewTransaction {
	return NewTransaction{meta: meta{at: at, addr: addr}, Tx: tx}
}

// BalanceChanged signals a native-unit balance movement between two polls.
type BalanceChanged struct {
	meta
	Old   float64 `json:"old"`
	New   float64 `json:"new"`
	Delta float64 `json:"delta"`
}

func (BalanceChanged) Kind() Kind { return KindBalanceChanged }

func NewBalanceChanged(at time.Time, addr Address, oldBalance, newBalance float64) BalanceChanged {
	return BalanceChanged{
		meta:  meta{at: at, addr: addr},
		Old:   oldBalance,
		New:   newBalance,
		Delta: newBalance - oldBalance,
	}
}

// MonitorError surfaces a recovered per-address or scheduler failure on the
// feed so observers see errors interspersed with regular alerts.
type MonitorError struct {
	meta
	Reason string `json:"reason"`
}

func (MonitorError) Kind() Kind { return KindMonitorError }

func NewMonitorError(at time.Time, addr Address, err error) MonitorError {
	return MonitorError{meta: meta{at: at, addr: addr}, Reason: err.Error()}
}

// Amount reports the native-unit amount carried by the alert, if any. The
// second return value is false for variants that do not carry an amount
// (token transfers, fallback transactions, monitor errors).
func Amount(a Alert) (float64, bool) {
	switch v := a.(type) {
	case TransactionReceived:
		return v.Amount, true
	case TransactionSent:
		return v.Amount, true
	case LargeTransaction:
		return v.Amount, true
	case BalanceChanged:
		return v.Delta, true
	default:
		return 0, false
	}
}

// AbsAmount is like Amount but returns the magnitude, for threshold
// comparisons that do not care about direction.
func AbsAmount(a Alert) (float64, bool) {
	amount, ok := Amount(a)
	return math.Abs(amount), ok
}
