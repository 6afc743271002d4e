package workers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"config-lab/registry"
	"config-lab/sessions"

	"github.com/shirou/gopsutil/process"
	"github.com/stretchr/testify/require"
)

func TestGetSelfStats(t *testing.T) {
	req := require.New(t)

	p, err := process.NewProcess(int32(os.Getpid()))
	req.NoError(err)

	rss, cpu, status, err := getSelfStats(p)
	req.NoError(err)
	req.Positive(rss)
	req.GreaterOrEqual(cpu, 0.0)
	req.NotEmpty(status)
}

func TestStatsWorker_StopsOnCancel(t *testing.T) {
	req := require.New(t)
	store := sessions.NewStore(registry.New(), nil, slog.Default())
	worker := NewStatsWorker(slog.Default(), store, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Let at least one report pass before cancelling.
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stats worker did not stop on cancel")
	}
}
