package workers

import (
	"context"
	"time"

	"github.com/ospolov/go-dm-client/internal/logger"
	"github.com/ospolov/go-dm-client/internal/service"
)

const defaultRefreshInterval = 5 * time.Minute

// InboxRefresher periodically refetches the inbox so the local cache keeps
// tracking the server state while the process is running. Every fetch goes
// through the façade and therefore writes through into the cache.
type InboxRefresher struct {
	direct   service.DirectService
	interval time.Duration
	logger   *logger.Logger
}

// NewInboxRefresher creates a refresher ticking every interval. Zero or
// negative intervals default to 5 minutes.
func NewInboxRefresher(direct service.DirectService, interval time.Duration, log *logger.Logger) *InboxRefresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &InboxRefresher{direct: direct, interval: interval, logger: log}
}

// Run implements [Worker]. One refresh happens immediately, then on every
// tick until ctx is cancelled. A failed refresh is logged and retried on the
// next tick; a stale cache is better than a dead worker.
func (w *InboxRefresher) Run(ctx context.Context) {
	w.refresh(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.refresh(ctx)
		}
	}
}

func (w *InboxRefresher) refresh(ctx context.Context) {
	threads, err := w.direct.ListInbox(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("inbox refresh failed")
		return
	}
	w.logger.Debug().Int("threads", len(threads)).Msg("inbox refreshed")
}
