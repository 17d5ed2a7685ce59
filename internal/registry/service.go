// Package registry manages the set of monitored addresses. The monitor
// takes a snapshot of the registry when it starts; registrations during a
// run take effect on the next start.
package registry

import "context"

// Service registers, unregisters, and lists monitored addresses.
type Service interface {
	// Watch registers an address for monitoring. Validation failure is a
	// configuration error and nothing is persisted.
	Watch(ctx context.Context, addr MonitoredAddress) error

	// Unwatch removes an address from monitoring.
	Unwatch(ctx context.Context, address string) error

	// List returns every monitored address in storage order; this order is
	// the monitor's cycle visit order.
	List(ctx context.Context) ([]MonitoredAddress, error)
}

type service struct {
	storage AddressStorage
}

var _ Service = (*service)(nil)

// New creates a registry service over the given storage backend.
func New(storage AddressStorage) *service {
	return &service{storage: storage}
}

func (s *service) Watch(ctx context.Context, addr MonitoredAddress) error {
	if err := validateAddress(addr); err != nil {
		return err
	}

	return s.storage.RegisterAddress(ctx, addr)
}

func (s *service) Unwatch(ctx context.Context, address string) error {
	return s.storage.UnregisterAddress(ctx, address)
}

func (s *service) List(ctx context.Context) ([]MonitoredAddress, error) {
	return s.storage.ListAddresses(ctx)
}
