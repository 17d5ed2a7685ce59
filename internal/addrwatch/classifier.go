package addrwatch

import (
	"math"
	"time"

	"github.com/gabapcia/walletpulse/internal/alert"
)

// classifyTransaction maps one new transaction into its alerts.
// Classification is additive: a single transaction may yield a directional
// alert plus LargeTransaction plus TokenTransferred. When the detail fetch
// failed or no signed delta is attributable to the monitored address, the
// fallback NewTransaction alert is emitted instead so the activity is never
// silently dropped.
func (s *service) classifyTransaction(addr Address, ref TransactionRef, detail TransactionDetail, detailErr error) []alert.Alert {
	var (
		at       = classificationTime(ref)
		addrInfo = addr.alertAddress()
	)

	if detailErr != nil {
		return []alert.Alert{alert.NewNewTransaction(at, addrInfo, alert.Transaction{ID: ref.ID})}
	}

	var (
		tx              = detailToAlertTransaction(ref.ID, detail)
		walletDelta, ok = attributableDelta(detail, addr.Address)
		alerts          []alert.Alert
	)

	switch {
	case !ok:
		alerts = append(alerts, alert.NewNewTransaction(at, addrInfo, tx))
	case walletDelta > 0:
		alerts = append(alerts, alert.NewTransactionReceived(at, addrInfo, tx, walletDelta))
	default:
		alerts = append(alerts, alert.NewTransactionSent(at, addrInfo, tx, walletDelta))
	}

	if ok && math.Abs(walletDelta) >= s.largeTxThreshold {
		alerts = append(alerts, alert.NewLargeTransaction(at, addrInfo, tx, walletDelta, s.largeTxThreshold))
	}

	if len(detail.TokenTransfers) > 0 {
		alerts = append(alerts, alert.NewTokenTransferred(at, addrInfo, tx, tx.TokenTransfers))
	}

	return alerts
}

// classifyBalance maps an epsilon-exceeding balance movement into a
// BalanceChanged alert.
func (s *service) classifyBalance(addr Address, oldBalance, newBalance float64) alert.Alert {
	return alert.NewBalanceChanged(time.Now().UTC(), addr.alertAddress(), oldBalance, newBalance)
}

// attributableDelta extracts the signed balance change of the monitored
// address within the transaction. The second return value is false when the
// detail carries no entry for the address, in which case the caller falls
// back to the generic alert. A zero delta with an explicit entry still
// counts as unattributable: it gives the classifier no direction.
func attributableDelta(detail TransactionDetail, address string) (float64, bool) {
	if detail.BalanceDeltas == nil {
		return 0, false
	}

	delta, ok := detail.BalanceDeltas[address]
	if !ok || delta == 0 {
		return 0, false
	}

	return delta, true
}

// classificationTime prefers the on-chain block time and falls back to the
// observation time for references that do not carry one.
func classificationTime(ref TransactionRef) time.Time {
	if !ref.BlockTime.IsZero() {
		return ref.BlockTime
	}

	return time.Now().UTC()
}

// detailToAlertTransaction converts the ledger detail into the transaction
// payload carried by alerts.
func detailToAlertTransaction(id string, detail TransactionDetail) alert.Transaction {
	transfers := make([]alert.TokenTransfer, len(detail.TokenTransfers))
	for i, t := range detail.TokenTransfers {
		transfers[i] = alert.TokenTransfer(t)
	}

	return alert.Transaction{
		ID:             id,
		Success:        detail.Success,
		Fee:            detail.Fee,
		BalanceDeltas:  detail.BalanceDeltas,
		TokenTransfers: transfers,
	}
}
