package sync

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/storage"
)

func TestMain(m *testing.M) {
	config.Opts = config.NewOptions()
	os.Exit(m.Run())
}

type fakeStore struct {
	offers      map[int64]string // id -> hash
	cities      map[string]*model.City
	lastRefresh time.Time
	lockHeld    bool

	failBatch    int // 1-based index of the batch RefreshOffers rejects
	batches      int
	staleRemoved bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		offers: make(map[int64]string),
		cities: make(map[string]*model.City),
	}
}

func (s *fakeStore) RefreshOffers(ctx context.Context, offers model.Offers,
) (refreshed storage.CacheRefreshed, _ error) {
	s.batches++
	if s.batches == s.failBatch {
		return refreshed, assert.AnError
	}

	for _, o := range offers {
		hash, ok := s.offers[o.ID]
		switch {
		case !ok:
			refreshed.Created++
		case hash != o.Hash:
			refreshed.Updated++
		default:
			continue
		}
		s.offers[o.ID] = o.Hash
	}
	return refreshed, nil
}

func (s *fakeStore) RemoveMissingOffers(ctx context.Context, keep []int64,
) (int64, error) {
	keepSet := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	var deleted int64
	for id := range s.offers {
		if _, ok := keepSet[id]; !ok {
			delete(s.offers, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeStore) RefreshCities(ctx context.Context, cities model.Cities,
) error {
	for _, c := range cities {
		s.cities[c.Name] = c
	}
	return nil
}

func (s *fakeStore) RemoveStaleCities(ctx context.Context, before time.Time,
) (int64, error) {
	s.staleRemoved = true
	return 0, nil
}

func (s *fakeStore) LastOfferRefresh(ctx context.Context,
) (time.Time, error) {
	return s.lastRefresh, nil
}

func (s *fakeStore) TouchOfferRefresh(ctx context.Context) error {
	s.lastRefresh = time.Now()
	return nil
}

func (s *fakeStore) TrySyncLock(ctx context.Context,
) (storage.ReleaseFunc, error) {
	if s.lockHeld {
		return nil, nil
	}
	return func(context.Context) error { return nil }, nil
}

type fakeClient struct {
	offers  model.Offers
	fetches int
}

func (c *fakeClient) FetchAll(ctx context.Context, maxOffers int,
) (model.Offers, error) {
	c.fetches++
	if len(c.offers) > maxOffers {
		return c.offers[:maxOffers], nil
	}
	return c.offers, nil
}

func catalog(n int) model.Offers {
	offers := make(model.Offers, n)
	for i := range offers {
		id := int64(i + 1)
		offers[i] = &model.Offer{
			ID:        id,
			Title:     "Offer " + strconv.FormatInt(id, 10),
			CityName:  "Paris",
			CountryID: "FR",
			Hash:      "h" + strconv.FormatInt(id, 10),
		}
	}
	return offers
}

func testService(store *fakeStore, client *fakeClient) *Service {
	return NewService(store, client, Config{
		MaxOffers:     20000,
		CityMaxOffers: 10000,
		BatchSize:     500,
		CacheTTL:      15 * time.Minute,
	})
}

func TestSyncOffers(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(1050)}
	s := testService(store, client)

	result, err := s.SyncOffers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1050, result.Fetched)
	assert.Equal(t, 1050, result.Created)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 3, store.batches, "1050 offers upsert in 3 batches of 500")
	assert.True(t, store.staleRemoved)
	require.Len(t, store.cities, 1)
	assert.Equal(t, 1050, store.cities["Paris"].OfferCount)

	// unchanged catalog: second sync writes nothing
	store.batches = 0
	result, err = s.SyncOffers(t.Context())
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Deleted)
}

func TestSyncOffers_deleteMissing(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(10)}
	store.offers[999] = "gone"

	result, err := testService(store, client).SyncOffers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Deleted)
	assert.Len(t, store.offers, 10)
}

func TestSyncOffers_failedBatchSkipped(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(1050)}
	store.failBatch = 2

	result, err := testService(store, client).SyncOffers(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedBatches)
	assert.Equal(t, 550, result.Created, "batches 1 and 3 still land")
}

func TestSyncOffers_lockHeld(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(5)}
	store.lockHeld = true

	result, err := testService(store, client).SyncOffers(t.Context())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, client.fetches)
}

func TestSyncIfStale_noOpSyncRefreshes(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(5)}
	s := testService(store, client)

	_, err := s.SyncOffers(t.Context())
	require.NoError(t, err)

	// Catalog unchanged since: the next sync writes no row, but the cache
	// is fresh again and the worker must not drain upstream every run.
	store.lastRefresh = time.Now().Add(-time.Hour)
	result, err := s.SyncIfStale(t.Context())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Updated)

	result, err = s.SyncIfStale(t.Context())
	require.NoError(t, err)
	assert.Nil(t, result, "no-op sync still counts as a refresh")
	assert.Equal(t, 2, client.fetches)
}

func TestSyncCities(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{offers: catalog(25)}

	result, err := testService(store, client).SyncCities(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 25, result.Fetched)
	assert.Equal(t, 1, result.Cities)
	assert.Empty(t, store.offers, "city sync must not touch the offer cache")
}

func TestSyncCities_lockHeld(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(5)}
	store.lockHeld = true

	result, err := testService(store, client).SyncCities(t.Context())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Zero(t, client.fetches)
}

func TestSyncIfStale(t *testing.T) {
	store, client := newFakeStore(), &fakeClient{offers: catalog(5)}
	s := testService(store, client)

	store.lastRefresh = time.Now()
	result, err := s.SyncIfStale(t.Context())
	require.NoError(t, err)
	assert.Nil(t, result, "fresh cache: no sync")
	assert.Zero(t, client.fetches)

	store.lastRefresh = time.Now().Add(-time.Hour)
	result, err = s.SyncIfStale(t.Context())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 5, result.Fetched)
}

func TestAggregateCities(t *testing.T) {
	offers := model.Offers{
		{ID: 1, CityName: "Tokyo ", CountryID: "JP", CountryName: "Japon"},
		{ID: 2, CityName: "tokyo", CityNameEn: "Tokyo", CountryID: "JP",
			CountryNameEn: "Japan"},
		{ID: 3, CityName: "Osaka", CountryID: "JP", CountryNameEn: "Japan"},
		{ID: 4, CityName: ""},
	}

	cities := AggregateCities(offers)
	require.Len(t, cities, 2)

	tokyo := cities[0]
	assert.Equal(t, "Tokyo ", tokyo.Name)
	assert.Equal(t, 2, tokyo.OfferCount)
	assert.Equal(t, "Tokyo", tokyo.NameEn, "first seen English name")
	assert.Equal(t, "JP", tokyo.CountryID)

	assert.Equal(t, 1, cities[1].OfferCount)
}
