// Package addrwatch drives the monitoring loop: a fixed-interval sweep over
// a fixed set of addresses that diffs the ledger's recent history against
// per-address cursors, classifies what is new, and hands accepted alerts to
// the dispatcher. Addresses are visited strictly sequentially within a
// cycle to keep the upstream request rate bounded.
package addrwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/logger"
)

const (
	defaultPollInterval     = 30 * time.Second
	defaultFetchDepth       = 5
	defaultLargeTxThreshold = 10
	defaultBalanceEpsilon   = 1e-4
)

// Sink receives every accepted alert. Implementations must isolate their
// own delivery failures: Dispatch never reports an error back to the poll
// cycle.
type Sink interface {
	Dispatch(ctx context.Context, a alert.Alert)
}

// Service is the monitor lifecycle entrypoint.
type Service interface {
	// Start seeds the poll cursors and launches the repeating poll cycle.
	// Calling Start while the service is already running is a no-op.
	Start(ctx context.Context) error

	// Close stops scheduling further cycles. The in-flight cycle, if any,
	// runs to completion with its network calls intact; Close does not wait
	// for it.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	ledger    Ledger
	addresses []Address
	sink      Sink
	filters   map[string]Filter
	stats     StatsRecorder

	// cycleMu serializes seeding and sweeps, so a restart cannot touch the
	// cursors while a previous generation's cycle is still winding down.
	// Close never takes it, which keeps Close responsive.
	cycleMu sync.Mutex

	// cursors is keyed by address and mutated only while cycleMu is held.
	cursors map[string]*pollCursor

	pollInterval     time.Duration
	fetchDepth       int
	largeTxThreshold float64
	balanceEpsilon   float64
}

var _ Service = (*service)(nil)

// Start performs one seeding poll per address so pre-existing history never
// generates alerts, then launches the cycle loop in a background goroutine.
// The seeding polls run outside the lock so a concurrent Close never waits
// on the network.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isStarted {
		s.mu.Unlock()
		return nil
	}

	stop := make(chan struct{})
	s.closeFunc = func() { close(stop) }
	s.isStarted = true
	s.mu.Unlock()

	s.cycleMu.Lock()
	for _, addr := range s.addresses {
		select {
		case <-stop:
			s.cycleMu.Unlock()
			return nil
		default:
		}

		if err := s.seedAddress(ctx, addr); err != nil {
			// The cursor stays unset and seeding is retried lazily on the
			// next cycle's visit to this address.
			s.stats.RecordLedgerError()
			logger.Warn(ctx, "cursor seeding failed",
				"monitor.address", addr.Address,
				"error", err,
			)
		}
	}
	s.cycleMu.Unlock()

	go s.run(ctx, stop)
	return nil
}

// Close stops the cycle loop. It is safe to call on a service that was
// never started.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
	s.isStarted = false
}

// run sleeps for the configured interval between sweeps. Stopping is
// observed only here, between cycles, so an in-flight sweep always
// completes with its ledger calls intact.
func (s *service) run(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(s.pollInterval):
			s.sweep(ctx)
		}
	}
}

// sweep visits every monitored address once, in registry order. A failure
// for one address is counted, surfaced as a MonitorError alert, and never
// aborts the sweep for the remaining addresses.
func (s *service) sweep(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	for _, addr := range s.addresses {
		if ctx.Err() != nil {
			return
		}

		if err := s.pollAddress(ctx, addr); err != nil {
			// A canceled caller context is a shutdown, not a ledger fault;
			// it must not surface as a MonitorError alert.
			if errors.Is(err, context.Canceled) {
				return
			}

			s.stats.RecordLedgerError()
			logger.Error(ctx, "poll failed",
				"monitor.address", addr.Address,
				"error", err,
			)
			s.sink.Dispatch(ctx, alert.NewMonitorError(time.Now().UTC(), addr.alertAddress(), err))
		}
	}

	s.stats.RecordCycle()
}

// seedAddress writes the initial cursor for an address from the current
// most-recent transaction id and balance, producing no alerts.
func (s *service) seedAddress(ctx context.Context, addr Address) error {
	refs, err := s.ledger.RecentTransactionIDs(ctx, addr.Address, 1)
	if err != nil {
		return fmt.Errorf("seeding transaction history: %w", err)
	}

	balance, err := s.ledger.Balance(ctx, addr.Address)
	if err != nil {
		return fmt.Errorf("seeding balance: %w", err)
	}

	cur := &pollCursor{}
	if len(refs) > 0 {
		cur.advance(refs[0].ID)
	}
	cur.observeBalance(balance, s.balanceEpsilon)

	s.cursors[addr.Address] = cur
	return nil
}

// pollAddress runs the detect, classify, filter, dispatch pipeline for one
// address. New transactions are processed strictly oldest first so alert
// ordering matches on-chain ordering.
func (s *service) pollAddress(ctx context.Context, addr Address) error {
	cur, ok := s.cursors[addr.Address]
	if !ok {
		return s.seedAddress(ctx, addr)
	}

	refs, err := s.ledger.RecentTransactionIDs(ctx, addr.Address, s.fetchDepth)
	if err != nil {
		return fmt.Errorf("fetching recent transactions: %w", err)
	}

	fresh := cur.newTransactions(refs)
	for _, ref := range fresh {
		detail, err := s.ledger.TransactionDetail(ctx, ref.ID)
		if err != nil {
			logger.Warn(ctx, "transaction detail unavailable, emitting fallback alert",
				"monitor.address", addr.Address,
				"transaction.id", ref.ID,
				"error", err,
			)
		}

		for _, a := range s.classifyTransaction(addr, ref, detail, err) {
			s.deliver(ctx, addr, a)
		}
	}

	// Advance to the fetched tip, not to the oldest new entry: this
	// guarantees the next walk terminates even when the fetch depth was
	// insufficient to reach the previous cursor.
	if len(fresh) > 0 {
		cur.advance(refs[0].ID)
	}

	balance, err := s.ledger.Balance(ctx, addr.Address)
	if err != nil {
		return fmt.Errorf("fetching balance: %w", err)
	}

	if previous, changed := cur.observeBalance(balance, s.balanceEpsilon); changed {
		s.deliver(ctx, addr, s.classifyBalance(addr, previous, balance))
	}

	return nil
}

// deliver runs the filter chain and hands accepted alerts to the sink.
func (s *service) deliver(ctx context.Context, addr Address, a alert.Alert) {
	if !s.accept(addr, a) {
		return
	}

	s.sink.Dispatch(ctx, a)
}

// config holds the tunable knobs applied through options.
type config struct {
	pollInterval     time.Duration
	fetchDepth       int
	largeTxThreshold float64
	balanceEpsilon   float64
	filters          map[string]Filter
	stats            StatsRecorder
}

// Option configures the monitor service.
type Option func(*config)

// New creates the monitor over the given ledger, monitored addresses, and
// alert sink. The address slice order is the cycle visit order.
func New(ledger Ledger, addresses []Address, sink Sink, opts ...Option) *service {
	cfg := config{
		pollInterval:     defaultPollInterval,
		fetchDepth:       defaultFetchDepth,
		largeTxThreshold: defaultLargeTxThreshold,
		balanceEpsilon:   defaultBalanceEpsilon,
		filters:          make(map[string]Filter),
		stats:            nopStats{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		ledger:           ledger,
		addresses:        addresses,
		sink:             sink,
		filters:          cfg.filters,
		stats:            cfg.stats,
		cursors:          make(map[string]*pollCursor),
		pollInterval:     cfg.pollInterval,
		fetchDepth:       cfg.fetchDepth,
		largeTxThreshold: cfg.largeTxThreshold,
		balanceEpsilon:   cfg.balanceEpsilon,
	}
}

// WithPollInterval sets the delay between poll cycles.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithFetchDepth sets how many recent transaction ids are fetched per
// address per cycle. Addresses producing more transactions than this within
// one interval lose the excess: the depth trades completeness for a bounded
// request rate.
func WithFetchDepth(n int) Option {
	return func(c *config) {
		c.fetchDepth = n
	}
}

// WithLargeTransactionThreshold sets the absolute wallet delta, in native
// units, at which the additive LargeTransaction alert fires.
func WithLargeTransactionThreshold(v float64) Option {
	return func(c *config) {
		c.largeTxThreshold = v
	}
}

// WithBalanceEpsilon sets the minimum absolute balance movement considered
// a reportable change, absorbing float noise below it.
func WithBalanceEpsilon(v float64) Option {
	return func(c *config) {
		c.balanceEpsilon = v
	}
}

// WithFilter registers a custom predicate for one address.
func WithFilter(address string, f Filter) Option {
	return func(c *config) {
		c.filters[address] = f
	}
}

// WithStatsRecorder wires the scheduler counters into the given recorder.
func WithStatsRecorder(r StatsRecorder) Option {
	return func(c *config) {
		c.stats = r
	}
}
