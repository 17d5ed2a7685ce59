// Package dispatch fans one accepted alert out to the local feed and to
// every matching webhook subscription. Destinations are independent failure
// domains: one slow or broken endpoint never blocks the others, and nothing
// here ever propagates an error back into the poll cycle.
package dispatch

import (
	"context"
	"sync"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/logger"
	"github.com/gabapcia/walletpulse/internal/webhook"
)

// Feed is the local delivery target.
type Feed interface {
	// Publish fans the alert out to local subscribers and returns the
	// number of dropped deliveries.
	Publish(ctx context.Context, a alert.Alert) int
}

// WebhookSender delivers one alert to one subscription endpoint.
type WebhookSender interface {
	Deliver(ctx context.Context, sub webhook.Subscription, a alert.Alert) error
}

// Service accepts alerts from the monitor and delivers them. It also
// implements the monitor's StatsRecorder so scheduler counters land in the
// same snapshot as delivery counters.
type Service interface {
	// Dispatch delivers the alert to the local feed and all matching
	// webhook subscriptions. It blocks only as long as the slowest
	// individual delivery's own timeout and never returns an error.
	Dispatch(ctx context.Context, a alert.Alert)

	// Stats returns a snapshot of the run counters.
	Stats() Stats

	RecordCycle()
	RecordLedgerError()
}

type service struct {
	feed          Feed
	sender        WebhookSender
	subscriptions []webhook.Subscription
	stats         *runStats
}

var _ Service = (*service)(nil)

// Dispatch runs local and webhook deliveries concurrently, each wrapped so
// a panic or failure in one destination never cancels the others. It waits
// for all deliveries so that alerts from one transaction finish before the
// next transaction's alerts start, preserving dispatch order.
func (s *service) Dispatch(ctx context.Context, a alert.Alert) {
	s.stats.recordAlert(ctx, a.Kind())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer s.recoverDelivery(ctx, a, "local feed")

		s.stats.recordFeedDrops(ctx, s.feed.Publish(ctx, a))
	}()

	for _, sub := range s.subscriptions {
		if !sub.Matches(a) {
			continue
		}

		wg.Add(1)
		go func(sub webhook.Subscription) {
			defer wg.Done()
			defer s.recoverDelivery(ctx, a, sub.Endpoint)

			if err := s.sender.Deliver(ctx, sub, a); err != nil {
				s.stats.recordDeliveryError(ctx)
				logger.Error(ctx, "webhook delivery failed",
					"alert.kind", a.Kind(),
					"alert.address", a.Watched().Address,
					"webhook.endpoint", sub.Endpoint,
					"error", err,
				)
			}
		}(sub)
	}

	wg.Wait()
}

// recoverDelivery turns a panicking destination into a counted delivery
// error.
func (s *service) recoverDelivery(ctx context.Context, a alert.Alert, destination string) {
	if r := recover(); r != nil {
		s.stats.recordDeliveryError(ctx)
		logger.Error(ctx, "alert delivery panicked",
			"alert.kind", a.Kind(),
			"destination", destination,
			"panic", r,
		)
	}
}

// Stats returns a snapshot of the run counters.
func (s *service) Stats() Stats {
	return s.stats.snapshot()
}

// RecordCycle implements the monitor's StatsRecorder.
func (s *service) RecordCycle() {
	s.stats.recordCycle(context.Background())
}

// RecordLedgerError implements the monitor's StatsRecorder.
func (s *service) RecordLedgerError() {
	s.stats.recordLedgerError(context.Background())
}

// New creates a dispatcher over the local feed, the webhook sender, and the
// registered subscriptions. Subscriptions are expected to be validated
// already (see webhook.NewSubscription).
func New(feed Feed, sender WebhookSender, subscriptions []webhook.Subscription) *service {
	return &service{
		feed:          feed,
		sender:        sender,
		subscriptions: subscriptions,
		stats:         newRunStats(),
	}
}
