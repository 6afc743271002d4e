package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"config-lab/domain"
	"config-lab/sessions"

	"github.com/shirou/gopsutil/process"
)

// StatsWorker reports the health of the process and the session store on
// a fixed interval: live sessions by status plus memory and CPU usage.
// The numbers go to the structured log, where the log shipper picks
// them up.
type StatsWorker struct {
	log      *slog.Logger
	store    *sessions.Store
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, store *sessions.Store, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, store: store, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info("Starting stats worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *StatsWorker) report(p *process.Process) {
	var open, committed, locked int
	w.store.ForEach(func(session domain.Session) {
		switch session.Status {
		case domain.StatusOpen:
			open++
		case domain.StatusCommitted:
			committed++
		case domain.StatusLocked:
			locked++
		}
	})

	rss, cpu, status, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
		return
	}

	w.log.Info("Store stats",
		"open", open,
		"committed", committed,
		"locked", locked,
		"pid_status", status,
		"cpu_percent", cpu,
		"ram_bytes", rss,
		"goroutines", runtime.NumGoroutine(),
	)
}

// getSelfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func getSelfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
