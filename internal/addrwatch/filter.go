package addrwatch

import "github.com/gabapcia/walletpulse/internal/alert"

// Filter is a per-address predicate evaluated against the fully constructed
// alert. Returning false suppresses delivery entirely, local feed and
// webhooks alike. Filters must be pure functions of the alert and are
// called exactly once per candidate.
type Filter func(alert.Alert) bool

// accept runs the filter chain for one candidate alert: the coarse
// DeliverToFeed toggle first, then the custom predicate if one is
// registered for the address.
func (s *service) accept(addr Address, a alert.Alert) bool {
	if !addr.DeliverToFeed {
		return false
	}

	if f, ok := s.filters[addr.Address]; ok && f != nil {
		return f(a)
	}

	return true
}
