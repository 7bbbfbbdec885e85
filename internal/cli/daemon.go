package cli // import "jobwatch.app/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"jobwatch.app/internal/api"
	"jobwatch.app/internal/config"
	"jobwatch.app/internal/http/server"
	"jobwatch.app/internal/metric"
	"jobwatch.app/internal/notification"
	"jobwatch.app/internal/storage"
	syncsvc "jobwatch.app/internal/sync"
	"jobwatch.app/internal/upstream"
	"jobwatch.app/internal/worker"
)

func NewDaemon() *Daemon { return &Daemon{} }

type Daemon struct {
	store      *storage.Storage
	deps       *api.Deps
	g          *errgroup.Group
	httpServer *http.Server
}

func (self *Daemon) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, os.Interrupt)
	defer cancel()

	slog.Info("Starting daemon...")
	defer self.close(ctx)

	if err := self.configure(ctx); err != nil {
		return err
	}

	if err := self.start(ctx); err != nil {
		return err
	}
	return self.wait(ctx)
}

func (self *Daemon) close(ctx context.Context) {
	if self.store != nil {
		self.store.Close(ctx)
	}
}

func (self *Daemon) configure(ctx context.Context) error {
	store, err := makeStorage(ctx)
	if err != nil {
		return err
	}
	self.store = store

	// Run migrations and start the daemon.
	if config.Opts.RunMigrations() {
		if err := self.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := self.store.SchemaUpToDate(ctx); err != nil {
		return err
	}

	self.deps = makeDeps(self.store)
	return nil
}

func makeDeps(store *storage.Storage) *api.Deps {
	client := upstream.NewClient(
		config.Opts.UpstreamURL(),
		config.Opts.UpstreamTimeout(),
		config.Opts.UpstreamPageLimit())

	syncer := syncsvc.NewService(store, client, syncsvc.Config{
		MaxOffers:     config.Opts.SyncMaxOffers(),
		CityMaxOffers: config.Opts.CitySyncMaxOffers(),
		BatchSize:     config.Opts.SyncBatchSize(),
		CacheTTL:      config.Opts.CacheTTL(),
	})

	dispatcher := notification.NewDispatcher()
	w := worker.New(store, dispatcher, syncer, worker.Config{
		NotificationsPerRun: config.Opts.NotificationsPerRun(),
	})

	return &api.Deps{Worker: w, Syncer: syncer, Dispatcher: dispatcher}
}

func (self *Daemon) start(ctx context.Context) error {
	listener, err := server.Listener()
	if err != nil {
		return err
	}

	self.g, ctx = errgroup.WithContext(ctx)
	if config.Opts.HasSchedulerService() {
		self.runScheduler(ctx)
	}

	if config.Opts.HasHTTPService() {
		self.httpServer = server.StartWebServer(self.store, self.deps, self.g,
			listener)
	}

	if config.Opts.HasMetricsCollector() {
		metric.RegisterMetrics(self.store)
	}
	return nil
}

func (self *Daemon) wait(ctx context.Context) error {
	<-ctx.Done()
	if self.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Shutting down the process gracefully...")
		if err := self.httpServer.Shutdown(ctx); err != nil {
			slog.Error("failed shutdown http server", slog.Any("error", err))
		}
	}

	if err := self.g.Wait(); err != nil {
		slog.Error("process stopped with error", slog.Any("error", err))
		return fmt.Errorf("process stopped with error: %w", err)
	}
	slog.Info("Process gracefully stopped")
	return nil
}
