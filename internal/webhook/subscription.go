// Package webhook models outbound webhook subscriptions: which alerts an
// endpoint wants and how to deliver them. Subscriptions are validated at
// registration time; malformed ones never reach the dispatcher.
package webhook

import (
	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/types"
	"github.com/gabapcia/walletpulse/internal/pkg/validator"
)

// Subscription describes one webhook destination. Registered once at
// setup, read-only during operation.
type Subscription struct {
	// Endpoint is the URL alerts are POSTed to.
	Endpoint string `validate:"required,http_url"`

	// Kinds is the set of alert kinds the endpoint wants. At least one is
	// required.
	Kinds types.Set[alert.Kind] `validate:"min=1"`

	// Addresses restricts delivery to alerts about these addresses. An
	// empty set means all addresses.
	Addresses types.Set[string]

	// MinAmount, when set, suppresses amount-carrying alerts whose
	// magnitude is below it. Alerts without an amount are unaffected.
	MinAmount *float64

	// Headers are merged into every delivery request, e.g. for auth.
	Headers map[string]string
}

// SubscriptionOption configures optional subscription fields.
type SubscriptionOption func(*Subscription)

// NewSubscription builds and validates a subscription for the given
// endpoint and alert kinds. Validation failure here is a configuration
// error: it is fatal at registration time and can never surface during a
// running cycle.
func NewSubscription(endpoint string, kinds []alert.Kind, opts ...SubscriptionOption) (Subscription, error) {
	sub := Subscription{
		Endpoint:  endpoint,
		Kinds:     types.NewSet(kinds...),
		Addresses: types.NewSet[string](),
	}
	for _, opt := range opts {
		opt(&sub)
	}

	return sub, validator.Validate(sub)
}

// WithAddresses restricts the subscription to the given addresses.
func WithAddresses(addresses ...string) SubscriptionOption {
	return func(s *Subscription) {
		s.Addresses.Add(addresses...)
	}
}

// WithMinAmount sets the minimum alert amount magnitude, in native units.
func WithMinAmount(v float64) SubscriptionOption {
	return func(s *Subscription) {
		s.MinAmount = &v
	}
}

// WithHeader adds a header merged into every delivery request.
func WithHeader(key, value string) SubscriptionOption {
	return func(s *Subscription) {
		if s.Headers == nil {
			s.Headers = make(map[string]string)
		}
		s.Headers[key] = value
	}
}

// Matches reports whether the alert should be delivered to this
// subscription: the kind must be subscribed, the address must be included
// (or the address set empty), and an amount-carrying alert must meet
// MinAmount when one is configured.
func (s Subscription) Matches(a alert.Alert) bool {
	if !s.Kinds.Contains(a.Kind()) {
		return false
	}

	if len(s.Addresses) > 0 && !s.Addresses.Contains(a.Watched().Address) {
		return false
	}

	if s.MinAmount != nil {
		if amount, ok := alert.AbsAmount(a); ok && amount < *s.MinAmount {
			return false
		}
	}

	return true
}
