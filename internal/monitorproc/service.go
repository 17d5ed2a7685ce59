// Package monitorproc is the orchestration layer: it snapshots the address
// registry, builds the monitor over the configured ledger and dispatcher,
// and consumes the local feed for operational logging.
package monitorproc

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/walletpulse/internal/addrwatch"
	"github.com/gabapcia/walletpulse/internal/dispatch"
	"github.com/gabapcia/walletpulse/internal/registry"
)

// ErrServiceAlreadyStarted is returned if Start is called more than once
// per lifecycle.
var ErrServiceAlreadyStarted = errors.New("service already started")

// ErrNoMonitoredAddresses is returned when the registry snapshot is empty:
// a monitor with nothing to watch is a configuration mistake, not a valid
// run.
var ErrNoMonitoredAddresses = errors.New("no monitored addresses registered")

// Service coordinates the monitoring pipeline lifecycle.
type Service interface {
	// Start snapshots the registry, builds the monitor, and begins
	// polling. Returns ErrServiceAlreadyStarted on a second call.
	Start(ctx context.Context) error

	// Close shuts down the monitor and all background routines. Safe to
	// call on a never-started service.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	registry    registry.Service
	ledger      addrwatch.Ledger
	dispatcher  dispatch.Service
	feed        FeedSource
	monitorOpts []addrwatch.Option
}

var _ Service = (*service)(nil)

// Start wires the pipeline: registry snapshot, monitor construction, feed
// logging, and the poll loop.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	addresses, err := s.registry.List(ctx)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return ErrNoMonitoredAddresses
	}

	watched := make([]addrwatch.Address, len(addresses))
	for i, addr := range addresses {
		watched[i] = addrwatch.Address{
			Address:       addr.Address,
			DisplayName:   addr.DisplayName,
			Icon:          addr.Icon,
			DeliverToFeed: addr.DeliverToFeed,
		}
	}

	// Only the alert log runs on a cancelable context. The monitor keeps
	// the caller's so closing never interrupts an in-flight poll cycle.
	logCtx, cancel := context.WithCancel(ctx)

	opts := append([]addrwatch.Option{addrwatch.WithStatsRecorder(s.dispatcher)}, s.monitorOpts...)
	monitor := addrwatch.New(s.ledger, watched, s.dispatcher, opts...)

	if err := monitor.Start(ctx); err != nil {
		cancel()
		return err
	}

	s.startAlertLog(logCtx)

	s.closeFunc = func() {
		monitor.Close()
		cancel()
	}
	s.isStarted = true
	return nil
}

// Close shuts down the monitor and the feed logging goroutine.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.closeFunc = nil
	s.isStarted = false
}

// New creates the orchestration service. The monitor options are forwarded
// to addrwatch.New at Start time, after the registry snapshot is taken.
func New(reg registry.Service, ledger addrwatch.Ledger, dispatcher dispatch.Service, feed FeedSource, monitorOpts ...addrwatch.Option) *service {
	return &service{
		registry:    reg,
		ledger:      ledger,
		dispatcher:  dispatcher,
		feed:        feed,
		monitorOpts: monitorOpts,
	}
}
