package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout bounds a single resync.
const runTimeout = 5 * time.Minute

// Runner is one unit of scheduled work. *catalog.Importer implements it.
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Start runs r on the cron spec (e.g. "0 3 * * *") until ctx is cancelled.
// A run still in progress when the next tick fires causes that tick to be skipped.
func Start(ctx context.Context, spec string, name string, r Runner) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { runOnce(ctx, name, r) }); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q for %s: %w", spec, name, err)
	}
	c.Start()
	slog.Info("scheduler: job registered", "job", name, "cron", spec)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

func runOnce(ctx context.Context, name string, r Runner) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	n, err := r.Run(runCtx)
	if err != nil {
		slog.Error("scheduler: job failed", "job", name, "error", err)
		return
	}
	slog.Info("scheduler: job finished", "job", name, "count", n)
}
