package addrwatch

import (
	"math"
	"slices"
)

// pollCursor tracks the last observed state of one monitored address. It is
// created on the first successful poll and mutated in place afterwards,
// only ever by the single scheduler goroutine.
type pollCursor struct {
	lastSeenTxID string
	hasTxID      bool

	lastBalance float64
	hasBalance  bool
}

// newTransactions walks refs (most recent first) until it hits the cursor's
// last seen id, and returns the unseen references in chronological order.
// When the cursor id is not within refs the whole list is considered new:
// anything older than the fetch depth was missed and stays missed, which is
// the documented trade of completeness for termination.
func (c *pollCursor) newTransactions(refs []TransactionRef) []TransactionRef {
	var fresh []TransactionRef
	for _, ref := range refs {
		if c.hasTxID && ref.ID == c.lastSeenTxID {
			break
		}
		fresh = append(fresh, ref)
	}

	slices.Reverse(fresh)
	return fresh
}

// advance moves the cursor to the given transaction id. The id must be the
// most recent entry of the freshly fetched list, never an older one, so
// that advancement stays monotonic with the ledger's append order.
func (c *pollCursor) advance(txID string) {
	c.lastSeenTxID = txID
	c.hasTxID = true
}

// observeBalance records the freshly fetched balance and reports the
// previous balance and whether the movement is large enough to alert on.
// The very first observation only seeds the cursor.
func (c *pollCursor) observeBalance(balance, epsilon float64) (previous float64, changed bool) {
	if !c.hasBalance {
		c.lastBalance = balance
		c.hasBalance = true
		return 0, false
	}

	previous = c.lastBalance
	if math.Abs(balance-previous) <= epsilon {
		return previous, false
	}

	c.lastBalance = balance
	return previous, true
}
