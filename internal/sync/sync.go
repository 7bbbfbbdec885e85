// Package sync keeps the local offer cache mirroring the upstream catalog.
package sync // import "jobwatch.app/internal/sync"

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/logging"
	"jobwatch.app/internal/metric"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/storage"
)

// Store is the slice of the storage layer the sync service writes to.
type Store interface {
	RefreshOffers(ctx context.Context, offers model.Offers,
	) (storage.CacheRefreshed, error)
	RemoveMissingOffers(ctx context.Context, keep []int64) (int64, error)
	RefreshCities(ctx context.Context, cities model.Cities) error
	RemoveStaleCities(ctx context.Context, before time.Time) (int64, error)
	LastOfferRefresh(ctx context.Context) (time.Time, error)
	TouchOfferRefresh(ctx context.Context) error
	TrySyncLock(ctx context.Context) (storage.ReleaseFunc, error)
}

// Client fetches the upstream catalog.
type Client interface {
	FetchAll(ctx context.Context, maxOffers int) (model.Offers, error)
}

// Config bounds one catalog sync.
type Config struct {
	MaxOffers     int
	CityMaxOffers int
	BatchSize     int
	CacheTTL      time.Duration
}

// Result summarizes one catalog sync.
type Result struct {
	Fetched       int   `json:"fetched"`
	Created       int   `json:"created"`
	Updated       int   `json:"updated"`
	Deleted       int64 `json:"deleted"`
	Cities        int   `json:"cities"`
	FailedBatches int   `json:"failed_batches,omitempty"`
	Skipped       bool  `json:"skipped,omitempty"`
}

// NewService returns a new sync service.
func NewService(store Store, client Client, cfg Config) *Service {
	return &Service{store: store, client: client, cfg: cfg}
}

// Service drains the upstream catalog into the offer cache and maintains
// the derived city aggregate. Concurrent callers of the same sync share one
// execution.
type Service struct {
	store  Store
	client Client
	cfg    Config
	group  singleflight.Group
}

// SyncOffers runs a full catalog sync. When another sync already runs, in
// process callers share its result and cross process callers get a skipped
// result.
func (s *Service) SyncOffers(ctx context.Context) (*Result, error) {
	v, err, _ := s.group.Do("offers", func() (any, error) {
		startedAt := time.Now()
		result, err := s.syncOffers(ctx)

		if config.Opts.HasMetricsCollector() {
			status := "success"
			if err != nil {
				status = "error"
			}
			metric.SyncDuration.WithLabelValues(status).
				Observe(time.Since(startedAt).Seconds())
		}
		return result, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *Service) syncOffers(ctx context.Context) (*Result, error) {
	release, err := s.store.TrySyncLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	} else if release == nil {
		logging.FromContext(ctx).Info(
			"sync: another catalog sync in progress, skipping")
		return &Result{Skipped: true}, nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.FromContext(ctx).Error("sync: release lock",
				slog.Any("error", err))
		}
	}()

	startedAt := time.Now()
	log := logging.FromContext(ctx)
	log.Info("sync: starting full catalog sync",
		slog.Int("max_offers", s.cfg.MaxOffers))

	offers, err := s.client.FetchAll(ctx, s.cfg.MaxOffers)
	if err != nil {
		return nil, fmt.Errorf("sync: fetch catalog: %w", err)
	}

	result := &Result{Fetched: len(offers)}
	for batch := range batches(offers, s.cfg.BatchSize) {
		refreshed, err := s.store.RefreshOffers(ctx, batch)
		if err != nil {
			// One broken batch must not lose the rest of the catalog.
			result.FailedBatches++
			log.Error("sync: batch upsert failed, skipping batch",
				slog.Int("batch_size", len(batch)),
				slog.Any("error", err))
			continue
		}
		result.Created += refreshed.Created
		result.Updated += refreshed.Updated
	}

	deleted, err := s.store.RemoveMissingOffers(ctx, offers.IDs())
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	result.Deleted = deleted

	cities := AggregateCities(offers)
	result.Cities = len(cities)
	if err := s.store.RefreshCities(ctx, cities); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	if _, err := s.store.RemoveStaleCities(ctx, startedAt); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	// Mark the cache fresh even when the catalog was unchanged and no row
	// was written.
	if err := s.store.TouchOfferRefresh(ctx); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	log.Info("sync: full catalog sync done",
		slog.Int("fetched", result.Fetched),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int64("deleted", result.Deleted),
		slog.Int("cities", result.Cities),
		slog.Int("failed_batches", result.FailedBatches),
		slog.Duration("elapsed", time.Since(startedAt)))
	return result, nil
}

// SyncCities refreshes only the derived city aggregate, with a tighter
// pagination ceiling. The offer cache is left untouched.
func (s *Service) SyncCities(ctx context.Context) (*Result, error) {
	v, err, _ := s.group.Do("cities", func() (any, error) {
		return s.syncCities(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (s *Service) syncCities(ctx context.Context) (*Result, error) {
	// Same lock as the full sync, so a city pass never interleaves city
	// upserts with a catalog sync running from another snapshot.
	release, err := s.store.TrySyncLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	} else if release == nil {
		logging.FromContext(ctx).Info(
			"sync: another catalog sync in progress, skipping city sync")
		return &Result{Skipped: true}, nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logging.FromContext(ctx).Error("sync: release lock",
				slog.Any("error", err))
		}
	}()

	offers, err := s.client.FetchAll(ctx, s.cfg.CityMaxOffers)
	if err != nil {
		return nil, fmt.Errorf("sync: fetch catalog: %w", err)
	}

	cities := AggregateCities(offers)
	if err := s.store.RefreshCities(ctx, cities); err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	return &Result{Fetched: len(offers), Cities: len(cities)}, nil
}

// SyncIfStale runs a full sync when the cache is older than the TTL. It
// returns nil when the cache is still fresh.
func (s *Service) SyncIfStale(ctx context.Context) (*Result, error) {
	last, err := s.store.LastOfferRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}
	if time.Since(last) <= s.cfg.CacheTTL {
		return nil, nil
	}

	logging.FromContext(ctx).Info("sync: offer cache is stale",
		slog.Time("last_refresh", last),
		slog.Duration("ttl", s.cfg.CacheTTL))
	return s.SyncOffers(ctx)
}

func batches(offers model.Offers, size int) func(yield func(model.Offers) bool) {
	return func(yield func(model.Offers) bool) {
		for start := 0; start < len(offers); start += size {
			end := start + size
			if end > len(offers) {
				end = len(offers)
			}
			if !yield(offers[start:end]) {
				return
			}
		}
	}
}

// AggregateCities groups offers by the normalized city name, counting
// offers per city and carrying the first seen English name and country.
func AggregateCities(offers model.Offers) model.Cities {
	byKey := make(map[string]*model.City)
	var cities model.Cities

	for _, o := range offers {
		name := o.City()
		if name == "" {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(name)) + "\x00" + o.CountryID
		c, ok := byKey[key]
		if !ok {
			c = &model.City{
				Name:        name,
				CountryID:   o.CountryID,
				CountryName: o.Country(),
			}
			byKey[key] = c
			cities = append(cities, c)
		}

		c.OfferCount++
		if c.NameEn == "" {
			c.NameEn = o.CityNameEn
		}
		if c.CountryName == "" {
			c.CountryName = o.Country()
		}
	}
	return cities
}
