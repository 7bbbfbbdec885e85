package storage // import "jobwatch.app/internal/storage"

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	poolAcquireCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_acquire_count",
		Help:      "The cumulative count of successful acquires from the pool",
	})

	poolAcquireDurationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_acquire_duration",
		Help:      "The total duration of all successful acquires from the pool",
	})

	poolAcquiredConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_acquired_conns",
		Help:      "The number of currently acquired connections in the pool",
	})

	poolIdleConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_idle_conns",
		Help:      "The number of currently idle conns in the pool",
	})

	poolMaxConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_max_conns",
		Help:      "The maximum size of the pool",
	})

	poolTotalConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "pgx_total_conns",
		Help:      "The total number of resources currently in the pool",
	})

	usersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "users",
		Help:      "Number of users",
	})

	subscriptionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "active_subscriptions",
		Help:      "Number of active subscriptions",
	})

	cachedOffersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "cached_offers",
		Help:      "Number of offers in the cache",
	})

	cachedCitiesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "cached_cities",
		Help:      "Number of cities in the cache",
	})

	jobRunsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "jobwatch",
		Name:      "job_runs",
		Help:      "Number of job runs by status",
	}, []string{"status"})
)

func (s *Storage) RegisterMetrics() {
	prometheus.MustRegister(
		poolAcquireCountGauge,
		poolAcquireDurationGauge,
		poolAcquiredConnsGauge,
		poolIdleConnsGauge,
		poolMaxConnsGauge,
		poolTotalConnsGauge,
		usersGauge,
		subscriptionsGauge,
		cachedOffersGauge,
		cachedCitiesGauge,
		jobRunsGauge)
}

func (s *Storage) Metrics(ctx context.Context, fromDB bool) error {
	if fromDB {
		if err := s.metricsFromDB(ctx); err != nil {
			return err
		}
	}

	stat := s.db.Stat()
	poolAcquireCountGauge.Set(float64(stat.AcquireCount()))
	poolAcquireDurationGauge.Set(float64(stat.AcquireDuration()))
	poolAcquiredConnsGauge.Set(float64(stat.AcquiredConns()))
	poolIdleConnsGauge.Set(float64(stat.IdleConns()))
	poolMaxConnsGauge.Set(float64(stat.MaxConns()))
	poolTotalConnsGauge.Set(float64(stat.TotalConns()))
	return nil
}

func (s *Storage) metricsFromDB(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.updateUsersGauge(ctx) })
	g.Go(func() error { return s.updateSubscriptionsGauge(ctx) })
	g.Go(func() error { return s.updateOffersGauge(ctx) })
	g.Go(func() error { return s.updateCitiesGauge(ctx) })

	if err := s.updateJobRunsGauge(ctx); err != nil {
		_ = g.Wait()
		return err
	}
	return g.Wait() //nolint:wrapcheck // already wrapped
}

func (s *Storage) updateUsersGauge(ctx context.Context) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	usersGauge.Set(float64(count))
	return nil
}

func (s *Storage) updateSubscriptionsGauge(ctx context.Context) error {
	count, err := s.CountActiveSubscriptions(ctx)
	if err != nil {
		return err
	}
	subscriptionsGauge.Set(float64(count))
	return nil
}

func (s *Storage) updateOffersGauge(ctx context.Context) error {
	count, err := s.CountOffers(ctx)
	if err != nil {
		return err
	}
	cachedOffersGauge.Set(float64(count))
	return nil
}

func (s *Storage) updateCitiesGauge(ctx context.Context) error {
	count, err := s.CountCities(ctx)
	if err != nil {
		return err
	}
	cachedCitiesGauge.Set(float64(count))
	return nil
}

func (s *Storage) updateJobRunsGauge(ctx context.Context) error {
	counts, err := s.CountJobRuns(ctx)
	if err != nil {
		return err
	}
	for status, count := range counts {
		jobRunsGauge.WithLabelValues(status).Set(float64(count))
	}
	return nil
}
