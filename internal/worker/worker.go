// Package worker runs the notification job: diff fresh offers against every
// active subscription and deliver alerts for the new ones.
package worker // import "jobwatch.app/internal/worker"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/filter"
	"jobwatch.app/internal/logging"
	"jobwatch.app/internal/metric"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/storage"
	syncsvc "jobwatch.app/internal/sync"
)

// ErrAlreadyRunning means another worker run holds the database lock. The
// second trigger is a no-op.
var ErrAlreadyRunning = errors.New("worker: another run is in progress")

// Store is the slice of the storage layer the worker needs.
type Store interface {
	ActiveSubscriptions(ctx context.Context) (model.Subscriptions, error)
	MatchOffers(ctx context.Context, f *model.SubscriptionFilters,
	) (model.Offers, error)
	UserSettings(ctx context.Context, userID int64,
	) (*model.UserSettings, error)
	ExtendSeenOffers(ctx context.Context, subscriptionID int64,
		offerIDs []int64) error
	CreateJobRun(ctx context.Context, run *model.JobRun) error
	FinalizeJobRun(ctx context.Context, run *model.JobRun) error
	TryWorkerLock(ctx context.Context) (storage.ReleaseFunc, error)
}

// Dispatcher delivers one notification.
type Dispatcher interface {
	Send(ctx context.Context, sub *model.Subscription,
		settings *model.UserSettings, offer *model.Offer) error
}

// Syncer refreshes the offer cache when it is older than its TTL.
type Syncer interface {
	SyncIfStale(ctx context.Context) (*syncsvc.Result, error)
}

// Config bounds one worker run.
type Config struct {
	// NotificationsPerRun caps sends per subscription per run. Offers
	// beyond the cap are still marked seen and never notified later.
	NotificationsPerRun int
}

// New returns a new worker.
func New(store Store, dispatcher Dispatcher, syncer Syncer, cfg Config,
) *Worker {
	return &Worker{
		store:      store,
		dispatcher: dispatcher,
		syncer:     syncer,
		cfg:        cfg,
	}
}

// Worker is the notification orchestrator. One run processes all active
// subscriptions sequentially, isolating per-subscription failures.
type Worker struct {
	store      Store
	dispatcher Dispatcher
	syncer     Syncer
	cfg        Config
}

// Run executes one worker run and returns its audit record. It returns
// ErrAlreadyRunning when a concurrent run holds the lock.
func (w *Worker) Run(ctx context.Context) (*model.JobRun, error) {
	release, err := w.store.TryWorkerLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	} else if release == nil {
		return nil, ErrAlreadyRunning
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.FromContext(ctx).Error("worker: release lock",
				slog.Any("error", err))
		}
	}()

	run := &model.JobRun{Status: model.JobRunStatusRunning, Log: []string{}}
	if err := w.store.CreateJobRun(ctx, run); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}

	log := logging.FromContext(ctx).With(slog.Int64("job_run", run.ID))
	ctx = logging.WithLogger(ctx, log)
	log.Info("worker: run started")
	startedAt := time.Now()

	err = w.run(ctx, run)
	if err != nil {
		run.Status = model.JobRunStatusFailed
		run.Log = append(run.Log, err.Error())
		log.Error("worker: run failed", slog.Any("error", err))
	} else {
		run.Status = model.JobRunStatusSuccess
		log.Info("worker: run done",
			slog.Int("processed", run.Processed),
			slog.Int("new_offers", run.NewOffers),
			slog.Int("errors", run.Errors),
			slog.Duration("elapsed", time.Since(startedAt)))
	}

	if config.Opts.HasMetricsCollector() {
		metric.JobRunDuration.WithLabelValues(run.Status).
			Observe(time.Since(startedAt).Seconds())
	}

	if err2 := w.store.FinalizeJobRun(context.WithoutCancel(ctx), run,
	); err2 != nil {
		log.Error("worker: finalize run", slog.Any("error", err2))
		if err == nil {
			err = fmt.Errorf("worker: %w", err2)
		}
	}
	return run, err
}

func (w *Worker) run(ctx context.Context, run *model.JobRun) error {
	if _, err := w.syncer.SyncIfStale(ctx); err != nil {
		// A stale cache can still serve this run.
		run.Log = append(run.Log,
			fmt.Sprintf("cache refresh failed: %v", err))
		logging.FromContext(ctx).Error("worker: cache refresh failed",
			slog.Any("error", err))
	}

	subs, err := w.store.ActiveSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list active subscriptions: %w", err)
	}
	if len(subs) == 0 {
		run.Log = append(run.Log, "no active subscriptions to process")
		logging.FromContext(ctx).Info("worker: no active subscriptions")
		return nil
	}

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("worker: %w", err)
		}
		w.processSubscription(ctx, run, sub)
		run.Processed++
	}
	return nil
}

// processSubscription handles one subscription. Failures are recorded on
// the run and never abort the whole run.
func (w *Worker) processSubscription(ctx context.Context, run *model.JobRun,
	sub *model.Subscription,
) {
	log := logging.FromContext(ctx).With(
		slog.Int64("subscription", sub.ID),
		slog.String("label", sub.Label))

	offers, err := w.store.MatchOffers(ctx, &sub.Filters)
	if err != nil {
		w.fail(run, log, sub, "query offers", err)
		return
	}

	seen := sub.SeenSet()
	var newOffers model.Offers
	for _, o := range filter.Apply(&sub.Filters, offers) {
		if _, ok := seen[o.ID]; !ok {
			newOffers = append(newOffers, o)
		}
	}
	if len(newOffers) == 0 {
		return
	}
	run.NewOffers += len(newOffers)

	settings, err := w.store.UserSettings(ctx, sub.UserID)
	if err != nil {
		w.fail(run, log, sub, "load user settings", err)
		// Offers stay unseen, next run retries the whole subscription.
		return
	}

	toNotify := newOffers
	if len(toNotify) > w.cfg.NotificationsPerRun {
		log.Info("worker: capping notifications",
			slog.Int("new_offers", len(newOffers)),
			slog.Int("cap", w.cfg.NotificationsPerRun))
		toNotify = toNotify[:w.cfg.NotificationsPerRun]
	}

	for _, o := range toNotify {
		// One attempt per offer. Failed sends are not retried: the offer
		// is marked seen below either way.
		if err := w.dispatcher.Send(ctx, sub, settings, o); err != nil {
			w.fail(run, log, sub, fmt.Sprintf("notify offer #%d", o.ID), err)
		}
	}

	if err := w.store.ExtendSeenOffers(ctx, sub.ID, newOffers.IDs(),
	); err != nil {
		w.fail(run, log, sub, "extend seen offers", err)
		return
	}

	log.Info("worker: subscription processed",
		slog.Int("matched", len(offers)),
		slog.Int("new_offers", len(newOffers)),
		slog.Int("notified", len(toNotify)))
}

func (w *Worker) fail(run *model.JobRun, log *slog.Logger,
	sub *model.Subscription, what string, err error,
) {
	run.Errors++
	run.Log = append(run.Log,
		fmt.Sprintf("subscription #%d: %s: %v", sub.ID, what, err))
	log.Error("worker: "+what, slog.Any("error", err))
}
