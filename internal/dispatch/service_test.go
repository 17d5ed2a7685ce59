package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/alertfeed"
	"github.com/gabapcia/walletpulse/internal/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records deliveries and fails or panics on configured endpoints.
type fakeSender struct {
	mu        sync.Mutex
	delivered []string
	failOn    map[string]error
	panicOn   map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		failOn:  make(map[string]error),
		panicOn: make(map[string]bool),
	}
}

func (f *fakeSender) Deliver(_ context.Context, sub webhook.Subscription, _ alert.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panicOn[sub.Endpoint] {
		panic("sender blew up")
	}
	if err := f.failOn[sub.Endpoint]; err != nil {
		return err
	}

	f.delivered = append(f.delivered, sub.Endpoint)
	return nil
}

func (f *fakeSender) endpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.delivered))
	copy(out, f.delivered)
	return out
}

func mustSubscription(t *testing.T, endpoint string, kinds ...alert.Kind) webhook.Subscription {
	t.Helper()

	sub, err := webhook.NewSubscription(endpoint, kinds)
	require.NoError(t, err)
	return sub
}

func receivedAlert(id string, amount float64) alert.Alert {
	return alert.NewTransactionReceived(time.Now().UTC(), alert.Address{Address: "W"}, alert.Transaction{ID: id}, amount)
}

func TestService_Dispatch(t *testing.T) {
	t.Run("delivers to the feed and every matching subscription", func(t *testing.T) {
		ctx := t.Context()

		feed := alertfeed.New()
		defer feed.Close()

		feedCh, cancel := feed.SubscribeAll()
		defer cancel()

		sender := newFakeSender()
		svc := New(feed, sender, []webhook.Subscription{
			mustSubscription(t, "https://a.example.com", alert.KindTransactionReceived),
			mustSubscription(t, "https://b.example.com", alert.KindBalanceChanged),
		})

		svc.Dispatch(ctx, receivedAlert("T1", 50))

		assert.Equal(t, []string{"https://a.example.com"}, sender.endpoints())
		assert.Equal(t, alert.KindTransactionReceived, (<-feedCh).Kind())
	})

	t.Run("one failing endpoint never blocks the others", func(t *testing.T) {
		ctx := t.Context()

		feed := alertfeed.New()
		defer feed.Close()

		feedCh, cancel := feed.SubscribeAll()
		defer cancel()

		sender := newFakeSender()
		sender.failOn["https://a.example.com"] = errors.New("endpoint down")

		svc := New(feed, sender, []webhook.Subscription{
			mustSubscription(t, "https://a.example.com", alert.KindTransactionReceived),
			mustSubscription(t, "https://b.example.com", alert.KindTransactionReceived),
		})

		svc.Dispatch(ctx, receivedAlert("T1", 50))

		assert.Equal(t, []string{"https://b.example.com"}, sender.endpoints())
		assert.Equal(t, alert.KindTransactionReceived, (<-feedCh).Kind())

		stats := svc.Stats()
		assert.Equal(t, uint64(1), stats.DeliveryErrors)
	})

	t.Run("a panicking destination is recovered and counted", func(t *testing.T) {
		ctx := t.Context()

		feed := alertfeed.New()
		defer feed.Close()

		sender := newFakeSender()
		sender.panicOn["https://a.example.com"] = true

		svc := New(feed, sender, []webhook.Subscription{
			mustSubscription(t, "https://a.example.com", alert.KindTransactionReceived),
			mustSubscription(t, "https://b.example.com", alert.KindTransactionReceived),
		})

		require.NotPanics(t, func() {
			svc.Dispatch(ctx, receivedAlert("T1", 50))
		})

		assert.Equal(t, []string{"https://b.example.com"}, sender.endpoints())
		assert.Equal(t, uint64(1), svc.Stats().DeliveryErrors)
	})

	t.Run("deliveries of one alert finish before dispatch returns", func(t *testing.T) {
		ctx := t.Context()

		feed := alertfeed.New()
		defer feed.Close()

		sender := newFakeSender()
		svc := New(feed, sender, []webhook.Subscription{
			mustSubscription(t, "https://a.example.com", alert.KindTransactionReceived),
		})

		svc.Dispatch(ctx, receivedAlert("T1", 50))
		svc.Dispatch(ctx, receivedAlert("T2", 50))

		assert.Equal(t, []string{"https://a.example.com", "https://a.example.com"}, sender.endpoints())
	})
}

func TestService_Stats(t *testing.T) {
	ctx := t.Context()

	feed := alertfeed.New()
	defer feed.Close()

	svc := New(feed, newFakeSender(), nil)

	svc.RecordCycle()
	svc.RecordCycle()
	svc.RecordLedgerError()
	svc.Dispatch(ctx, receivedAlert("T1", 50))
	svc.Dispatch(ctx, receivedAlert("T2", 50))
	svc.Dispatch(ctx, alert.NewBalanceChanged(time.Now().UTC(), alert.Address{Address: "W"}, 100, 135))

	stats := svc.Stats()
	assert.Equal(t, uint64(2), stats.Cycles)
	assert.Equal(t, uint64(1), stats.LedgerErrors)
	assert.Equal(t, uint64(2), stats.AlertsByKind[alert.KindTransactionReceived])
	assert.Equal(t, uint64(1), stats.AlertsByKind[alert.KindBalanceChanged])
	assert.Zero(t, stats.DeliveryErrors)
	assert.Zero(t, stats.FeedDrops)

	// The snapshot is detached from the live counters.
	stats.AlertsByKind[alert.KindMonitorError] = 99
	assert.Zero(t, svc.Stats().AlertsByKind[alert.KindMonitorError])
}
