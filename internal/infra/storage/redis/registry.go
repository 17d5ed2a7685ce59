package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/gabapcia/walletpulse/internal/registry"
)

// addressStorageKey is the Redis hash holding all monitored addresses,
// keyed by address with the JSON-encoded entry as the value.
const addressStorageKey = "monitor:addresses"

// RegisterAddress stores or overwrites the entry for the address.
func (c *client) RegisterAddress(ctx context.Context, addr registry.MonitoredAddress) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("encoding monitored address: %w", err)
	}

	return c.conn.HSet(ctx, addressStorageKey, addr.Address, data).Err()
}

// UnregisterAddress removes the entry for the address. Removing an unknown
// address is not an error.
func (c *client) UnregisterAddress(ctx context.Context, address string) error {
	return c.conn.HDel(ctx, addressStorageKey, address).Err()
}

// ListAddresses returns every registered entry sorted by address, so the
// monitor's cycle order is stable across restarts.
func (c *client) ListAddresses(ctx context.Context) ([]registry.MonitoredAddress, error) {
	entries, err := c.conn.HGetAll(ctx, addressStorageKey).Result()
	if err != nil {
		return nil, err
	}

	addresses := make([]registry.MonitoredAddress, 0, len(entries))
	for address, data := range entries {
		var addr registry.MonitoredAddress
		if err := json.Unmarshal([]byte(data), &addr); err != nil {
			return nil, fmt.Errorf("decoding monitored address %q: %w", address, err)
		}

		addresses = append(addresses, addr)
	}

	slices.SortFunc(addresses, func(a, b registry.MonitoredAddress) int {
		return strings.Compare(a.Address, b.Address)
	})

	return addresses, nil
}

// Compile-time assertion that *client satisfies registry.AddressStorage.
var _ registry.AddressStorage = (*client)(nil)
