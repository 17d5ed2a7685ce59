package addrwatch

import "github.com/gabapcia/walletpulse/internal/alert"

// Address describes one monitored address with its display metadata. The
// set of monitored addresses is fixed for the lifetime of the service.
type Address struct {
	// Address is the account identifier on the ledger.
	Address string

	// DisplayName and Icon are presentation metadata echoed on every alert.
	DisplayName string
	Icon        string

	// DeliverToFeed is a coarse per-address switch. When false, every alert
	// for the address is suppressed before any custom filter runs.
	DeliverToFeed bool
}

// alertAddress converts the monitored address into the form carried by
// alerts.
func (a Address) alertAddress() alert.Address {
	return alert.Address{
		Address:     a.Address,
		DisplayName: a.DisplayName,
		Icon:        a.Icon,
	}
}
