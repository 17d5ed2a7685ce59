package registry

import (
	"context"

	"github.com/gabapcia/walletpulse/internal/pkg/validator"
)

// MonitoredAddress is one entry of the registry: the address itself plus
// the display metadata echoed on its alerts and the coarse feed toggle.
type MonitoredAddress struct {
	Address       string `json:"address" validate:"required"`
	DisplayName   string `json:"display_name"`
	Icon          string `json:"icon"`
	DeliverToFeed bool   `json:"deliver_to_feed"`
}

// AddressStorage persists the set of monitored addresses.
type AddressStorage interface {
	// RegisterAddress adds or overwrites the entry for the address. It must
	// be idempotent.
	RegisterAddress(ctx context.Context, addr MonitoredAddress) error

	// UnregisterAddress removes the entry for the address, if present.
	UnregisterAddress(ctx context.Context, address string) error

	// ListAddresses returns every registered entry in a stable order.
	ListAddresses(ctx context.Context) ([]MonitoredAddress, error)
}

// validateAddress enforces the registration-time invariants before anything
// touches storage.
func validateAddress(addr MonitoredAddress) error {
	return validator.Validate(addr)
}
