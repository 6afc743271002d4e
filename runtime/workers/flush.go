package workers

import (
	"context"
	"log/slog"
	"time"

	"config-lab/sessions"
)

// FlushWorker re-persists every live session on a fixed interval. The
// store already writes through on each mutation; the periodic pass
// covers writes that failed and were only logged.
type FlushWorker struct {
	log      *slog.Logger
	store    *sessions.Store
	interval time.Duration
}

func NewFlushWorker(log *slog.Logger, store *sessions.Store, interval time.Duration) *FlushWorker {
	return &FlushWorker{log: log, store: store, interval: interval}
}

func (w *FlushWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Last chance before shutdown completes; main also flushes
			// after the supervisor drains, this narrows the window.
			if err := w.store.Flush(); err != nil {
				w.log.Warn("Final flush incomplete", "err", err)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := w.store.Flush(); err != nil {
				w.log.Warn("Periodic flush incomplete", "err", err)
			}
		}
	}
}
