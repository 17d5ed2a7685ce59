package monitorproc

import (
	"context"

	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/pkg/logger"
	"github.com/gabapcia/walletpulse/internal/pkg/x/chflow"
)

// FeedSource is the subset of the local feed consumed for the operational
// alert log.
type FeedSource interface {
	SubscribeAll() (<-chan alert.Alert, func())
}

// alertLog writes one structured log line per dispatched alert until the
// feed closes or the context is canceled. Alert history persistence is
// deliberately out of scope; this log is the only trace the process keeps.
func (s *service) alertLog(ctx context.Context, alerts <-chan alert.Alert, cancel func()) {
	defer cancel()

	for {
		a, ok := chflow.Receive(ctx, alerts)
		if !ok {
			return
		}

		if a.Kind() == alert.KindMonitorError {
			logger.Warn(ctx, "monitor error",
				"alert.address", a.Watched().Address,
				"alert.occurred_at", a.OccurredAt(),
			)
			continue
		}

		logger.Info(ctx, "alert dispatched",
			"alert.kind", a.Kind(),
			"alert.address", a.Watched().Address,
			"alert.occurred_at", a.OccurredAt(),
		)
	}
}

// startAlertLog launches the alert logging loop in a background goroutine.
func (s *service) startAlertLog(ctx context.Context) {
	alerts, cancel := s.feed.SubscribeAll()
	go s.alertLog(ctx, alerts, cancel)
}
