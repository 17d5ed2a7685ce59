// Package alertfeed implements the in-process publish/subscribe feed for
// alerts. Subscribers receive alerts over bounded channels at two
// granularities: every alert, or only the kinds they ask for.
package alertfeed

import (
	"context"
	"sync"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/logger"
)

// subscriberBufferSize bounds each subscriber channel. A subscriber that
// falls more than this many alerts behind starts losing them.
const subscriberBufferSize = 16

// subscriber is one registered consumer. A nil kinds set means the
// subscriber receives every alert.
type subscriber struct {
	ch    chan alert.Alert
	kinds map[alert.Kind]struct{}
}

func (s *subscriber) wants(k alert.Kind) bool {
	if s.kinds == nil {
		return true
	}

	_, ok := s.kinds[k]
	return ok
}

// Feed is a fan-out hub for alerts. The zero value is not usable; create
// one with New.
type Feed struct {
	mu          sync.RWMutex
	closed      bool
	subscribers map[*subscriber]struct{}
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{
		subscribers: make(map[*subscriber]struct{}),
	}
}

// SubscribeAll registers a consumer for every dispatched alert. The
// returned cancel function removes the subscription and closes its channel;
// it is safe to call more than once.
func (f *Feed) SubscribeAll() (<-chan alert.Alert, func()) {
	return f.register(nil)
}

// Subscribe registers a consumer for alerts of the given kinds only. Each
// dispatched alert is delivered at most once per subscription, regardless
// of how many kinds it lists.
func (f *Feed) Subscribe(kinds ...alert.Kind) (<-chan alert.Alert, func()) {
	kindSet := make(map[alert.Kind]struct{}, len(kinds))
	for _, k := range kinds {
		kindSet[k] = struct{}{}
	}

	return f.register(kindSet)
}

func (f *Feed) register(kinds map[alert.Kind]struct{}) (<-chan alert.Alert, func()) {
	sub := &subscriber{
		ch:    make(chan alert.Alert, subscriberBufferSize),
		kinds: kinds,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}

	f.subscribers[sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			if _, ok := f.subscribers[sub]; ok {
				delete(f.subscribers, sub)
				close(sub.ch)
			}
		})
	}

	return sub.ch, cancel
}

// Publish delivers the alert to every matching subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full loses the alert rather
// than stalling the poll cycle. It returns the number of dropped
// deliveries.
func (f *Feed) Publish(ctx context.Context, a alert.Alert) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return 0
	}

	var dropped int
	for sub := range f.subscribers {
		if !sub.wants(a.Kind()) {
			continue
		}

		select {
		case sub.ch <- a:
		default:
			dropped++
			logger.Warn(ctx, "alert feed subscriber buffer full, dropping alert",
				"alert.kind", a.Kind(),
				"alert.address", a.Watched().Address,
			)
		}
	}

	return dropped
}

// Close shuts down the feed and closes every subscriber channel. Publishing
// after Close is a no-op.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.closed = true
	for sub := range f.subscribers {
		close(sub.ch)
	}
	f.subscribers = make(map[*subscriber]struct{})
}
