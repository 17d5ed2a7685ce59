package dispatch

import (
	"context"
	"sync"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stats is a point-in-time snapshot of the run counters. Counters are
// process-lifetime and reset only by restart.
type Stats struct {
	Cycles         uint64
	LedgerErrors   uint64
	DeliveryErrors uint64
	FeedDrops      uint64
	AlertsByKind   map[alert.Kind]uint64
}

// runStats accumulates the counters behind a mutex and mirrors them into
// otel counter instruments so they show up in the telemetry backend.
type runStats struct {
	mu             sync.Mutex
	cycles         uint64
	ledgerErrors   uint64
	deliveryErrors uint64
	feedDrops      uint64
	alertsByKind   types.DefaultMap[alert.Kind, uint64]

	cyclesCounter         metric.Int64Counter
	alertsCounter         metric.Int64Counter
	ledgerErrorsCounter   metric.Int64Counter
	deliveryErrorsCounter metric.Int64Counter
	feedDropsCounter      metric.Int64Counter
}

func newRunStats() *runStats {
	meter := otel.Meter("github.com/gabapcia/walletpulse/internal/dispatch")

	cycles, _ := meter.Int64Counter("walletpulse.monitor.cycles")
	alerts, _ := meter.Int64Counter("walletpulse.monitor.alerts")
	ledgerErrors, _ := meter.Int64Counter("walletpulse.monitor.ledger_errors")
	deliveryErrors, _ := meter.Int64Counter("walletpulse.dispatch.delivery_errors")
	feedDrops, _ := meter.Int64Counter("walletpulse.dispatch.feed_drops")

	return &runStats{
		alertsByKind:          types.NewDefaultMap[alert.Kind](func() uint64 { return 0 }),
		cyclesCounter:         cycles,
		alertsCounter:         alerts,
		ledgerErrorsCounter:   ledgerErrors,
		deliveryErrorsCounter: deliveryErrors,
		feedDropsCounter:      feedDrops,
	}
}

func (r *runStats) recordCycle(ctx context.Context) {
	r.mu.Lock()
	r.cycles++
	r.mu.Unlock()

	r.cyclesCounter.Add(ctx, 1)
}

func (r *runStats) recordLedgerError(ctx context.Context) {
	r.mu.Lock()
	r.ledgerErrors++
	r.mu.Unlock()

	r.ledgerErrorsCounter.Add(ctx, 1)
}

func (r *runStats) recordAlert(ctx context.Context, kind alert.Kind) {
	r.mu.Lock()
	r.alertsByKind.Set(kind, r.alertsByKind.Get(kind)+1)
	r.mu.Unlock()

	r.alertsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("alert.kind", string(kind))))
}

func (r *runStats) recordDeliveryError(ctx context.Context) {
	r.mu.Lock()
	r.deliveryErrors++
	r.mu.Unlock()

	r.deliveryErrorsCounter.Add(ctx, 1)
}

func (r *runStats) recordFeedDrops(ctx context.Context, n int) {
	if n <= 0 {
		return
	}

	r.mu.Lock()
	r.feedDrops += uint64(n)
	r.mu.Unlock()

	r.feedDropsCounter.Add(ctx, int64(n))
}

func (r *runStats) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKind := make(map[alert.Kind]uint64, len(r.alertsByKind.ToMap()))
	for kind, count := range r.alertsByKind.ToMap() {
		byKind[kind] = count
	}

	return Stats{
		Cycles:         r.cycles,
		LedgerErrors:   r.ledgerErrors,
		DeliveryErrors: r.deliveryErrors,
		FeedDrops:      r.feedDrops,
		AlertsByKind:   byKind,
	}
}
