package workers

import (
	"context"
	"log/slog"
	"time"

	"config-lab/contract"
	"config-lab/domain"
	"config-lab/sessions"
)

// StatusExpired is the terminal annotation requested for sessions that
// ran out of time without a commit.
const StatusExpired = "expired"

// ReaperWorker sweeps the session store on a fixed interval and expires
// Open sessions older than the budget. Committed and Locked sessions are
// durable history: they stay until an administrative removal.
type ReaperWorker struct {
	log       *slog.Logger
	store     *sessions.Store
	transport contract.Transport
	interval  time.Duration
	budget    time.Duration
}

func NewReaperWorker(
	log *slog.Logger,
	store *sessions.Store,
	transport contract.Transport,
	interval time.Duration,
	budget time.Duration,
) *ReaperWorker {
	return &ReaperWorker{
		log:       log,
		store:     store,
		transport: transport,
		interval:  interval,
		budget:    budget,
	}
}

func (w *ReaperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting session reaper", "interval", w.interval, "budget", w.budget)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Sweep(ctx, time.Now().UTC())
		}
	}
}

// Sweep expires every over-budget Open session. The snapshot only
// nominates candidates; the Open-and-over-budget check runs again inside
// the key's critical section, atomically with the removal, so a commit
// landing mid-sweep keeps its session. The rendered menu is annotated
// only once the removal is final.
func (w *ReaperWorker) Sweep(ctx context.Context, now time.Time) int {
	reaped := 0
	for _, session := range w.store.Snapshot() {
		if session.Status != domain.StatusOpen || session.Age(now) <= w.budget {
			continue
		}

		removed, ok := w.store.RemoveIf(session.Key, func(current domain.Session) bool {
			return current.Status == domain.StatusOpen && current.Age(now) > w.budget
		})
		if !ok {
			continue
		}

		if removed.MessageRef != "" {
			if err := w.transport.AnnotateStatus(ctx, removed.MessageRef, StatusExpired); err != nil {
				w.log.Warn("Failed to annotate expired session",
					"key", removed.Key, "err", err)
			}
		}
		reaped++
		w.log.Info("Session expired",
			"key", removed.Key, "feature", removed.Feature,
			"group_id", removed.Provenance.GroupID)
	}
	return reaped
}
