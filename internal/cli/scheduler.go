package cli // import "jobwatch.app/internal/cli"

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/worker"
)

func (self *Daemon) runScheduler(ctx context.Context) {
	workerFreq := config.Opts.WorkerFrequency()
	syncFreq := config.Opts.SyncFrequency()
	slog.Info("Starting background scheduler...",
		slog.Duration("worker_freq", workerFreq),
		slog.Duration("sync_freq", syncFreq))

	c := cron.New()
	c.Schedule(cron.Every(workerFreq),
		cron.FuncJob(func() { self.scheduledWorkerRun(ctx) }))
	c.Schedule(cron.Every(syncFreq),
		cron.FuncJob(func() { self.scheduledSync(ctx) }))
	c.Start()

	self.g.Go(func() error {
		<-ctx.Done()
		// Stop scheduling and wait for a run in flight.
		<-c.Stop().Done()
		slog.Info("background scheduler stopped",
			slog.Any("reason", context.Cause(ctx)))
		return nil
	})
}

func (self *Daemon) scheduledWorkerRun(ctx context.Context) {
	run, err := self.deps.Worker.Run(ctx)
	switch {
	case errors.Is(err, worker.ErrAlreadyRunning):
		slog.Info("scheduler: worker run already in progress")
	case err != nil:
		slog.Error("scheduler: worker run failed", slog.Any("error", err))
	default:
		slog.Info("scheduler: worker run completed",
			slog.Int64("job_run_id", run.ID),
			slog.String("status", run.Status),
			slog.Int("processed", run.Processed),
			slog.Int("new_offers", run.NewOffers),
			slog.Int("errors", run.Errors))
	}
}

func (self *Daemon) scheduledSync(ctx context.Context) {
	result, err := self.deps.Syncer.SyncOffers(ctx)
	if err != nil {
		slog.Error("scheduler: offer sync failed", slog.Any("error", err))
		return
	}
	slog.Info("scheduler: offer sync completed",
		slog.Int("fetched", result.Fetched),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int64("deleted", result.Deleted),
		slog.Bool("skipped", result.Skipped))
}
