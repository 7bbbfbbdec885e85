package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/config"
	"jobwatch.app/internal/model"
	"jobwatch.app/internal/storage"
	syncsvc "jobwatch.app/internal/sync"
)

func TestMain(m *testing.M) {
	config.Opts = config.NewOptions()
	os.Exit(m.Run())
}

type fakeStore struct {
	subs     model.Subscriptions
	offers   model.Offers
	settings map[int64]*model.UserSettings
	extended map[int64][]int64
	runs     []*model.JobRun

	lockHeld bool
	subsErr  error
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[int64]*model.UserSettings),
		extended: make(map[int64][]int64),
	}
}

func (s *fakeStore) ActiveSubscriptions(ctx context.Context,
) (model.Subscriptions, error) {
	return s.subs, s.subsErr
}

func (s *fakeStore) MatchOffers(ctx context.Context,
	f *model.SubscriptionFilters,
) (model.Offers, error) {
	if f.Query == "boom" {
		return nil, assert.AnError
	}

	// structured filtering happens in SQL for the real store; the fake
	// only understands the country filter
	if len(f.CountryIDs) == 0 {
		return s.offers, nil
	}
	var matched model.Offers
	for _, o := range s.offers {
		for _, id := range f.CountryIDs {
			if o.CountryID == id {
				matched = append(matched, o)
				break
			}
		}
	}
	return matched, nil
}

func (s *fakeStore) UserSettings(ctx context.Context, userID int64,
) (*model.UserSettings, error) {
	return s.settings[userID], nil
}

func (s *fakeStore) ExtendSeenOffers(ctx context.Context,
	subscriptionID int64, offerIDs []int64,
) error {
	s.extended[subscriptionID] = append(s.extended[subscriptionID],
		offerIDs...)
	return nil
}

func (s *fakeStore) CreateJobRun(ctx context.Context, run *model.JobRun,
) error {
	s.nextID++
	run.ID = s.nextID
	run.StartedAt = time.Now()
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) FinalizeJobRun(ctx context.Context, run *model.JobRun,
) error {
	now := time.Now()
	run.FinishedAt = &now
	return nil
}

func (s *fakeStore) TryWorkerLock(ctx context.Context,
) (storage.ReleaseFunc, error) {
	if s.lockHeld {
		return nil, nil
	}
	return func(context.Context) error { return nil }, nil
}

type fakeDispatcher struct {
	sent    []int64
	failIDs map[int64]struct{}
}

func (d *fakeDispatcher) Send(ctx context.Context, sub *model.Subscription,
	settings *model.UserSettings, offer *model.Offer,
) error {
	if _, ok := d.failIDs[offer.ID]; ok {
		return assert.AnError
	}
	d.sent = append(d.sent, offer.ID)
	return nil
}

type fakeSyncer struct {
	calls int
	err   error
}

func (s *fakeSyncer) SyncIfStale(ctx context.Context,
) (*syncsvc.Result, error) {
	s.calls++
	return nil, s.err
}

func cachedOffers() model.Offers {
	offers := make(model.Offers, 0, 6)
	for id := int64(1); id <= 4; id++ {
		offers = append(offers, &model.Offer{ID: id, CountryID: "FR"})
	}
	offers = append(offers,
		&model.Offer{ID: 5, CountryID: "JP"},
		&model.Offer{ID: 6, CountryID: "JP"})
	return offers
}

func testWorker(store *fakeStore, d *fakeDispatcher, cap int,
) (*Worker, *fakeSyncer) {
	syncer := &fakeSyncer{}
	return New(store, d, syncer, Config{NotificationsPerRun: cap}), syncer
}

func TestRun(t *testing.T) {
	store := newFakeStore()
	store.offers = cachedOffers()
	store.subs = model.Subscriptions{
		{ID: 1, UserID: 10, Label: "everything",
			SeenOfferIDs: []int64{1, 2, 3}, Active: true},
		{ID: 2, UserID: 10, Label: "broken",
			Filters: model.SubscriptionFilters{Query: "boom"}, Active: true},
		{ID: 3, UserID: 11, Label: "japan",
			Filters: model.SubscriptionFilters{CountryIDs: []string{"JP"}},
			SeenOfferIDs: []int64{5}, Active: true},
	}

	d := &fakeDispatcher{}
	w, syncer := testWorker(store, d, 10)

	run, err := w.Run(t.Context())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, model.JobRunStatusSuccess, run.Status)
	assert.Equal(t, 3, run.Processed)
	assert.Equal(t, 4, run.NewOffers, "3 for sub 1 plus 1 for sub 3")
	assert.Equal(t, 1, run.Errors)
	assert.NotNil(t, run.FinishedAt)
	require.Len(t, run.Log, 1)
	assert.Contains(t, run.Log[0], "subscription #2")

	assert.Equal(t, []int64{4, 5, 6}, store.extended[1])
	assert.Empty(t, store.extended[2])
	assert.Equal(t, []int64{6}, store.extended[3])
	assert.Equal(t, []int64{4, 5, 6, 6}, d.sent)
	assert.Equal(t, 1, syncer.calls)
}

func TestRun_noActiveSubscriptions(t *testing.T) {
	store := newFakeStore()
	store.offers = cachedOffers()

	d := &fakeDispatcher{}
	w, _ := testWorker(store, d, 10)

	run, err := w.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, model.JobRunStatusSuccess, run.Status)
	assert.Zero(t, run.Processed)
	require.Len(t, run.Log, 1)
	assert.Contains(t, run.Log[0], "no active subscriptions")
	assert.Empty(t, d.sent)
}

func TestRun_notificationCap(t *testing.T) {
	store := newFakeStore()
	store.offers = cachedOffers()
	store.subs = model.Subscriptions{
		{ID: 1, UserID: 10, Label: "everything", Active: true},
	}

	d := &fakeDispatcher{}
	w, _ := testWorker(store, d, 2)

	run, err := w.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 6, run.NewOffers)
	assert.Len(t, d.sent, 2, "sends capped per run")
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, store.extended[1],
		"capped offers are still marked seen")
	assert.Zero(t, run.Errors)
}

func TestRun_failedSendStillSeen(t *testing.T) {
	store := newFakeStore()
	store.offers = cachedOffers()
	store.subs = model.Subscriptions{
		{ID: 1, UserID: 10, Label: "everything", Active: true},
	}

	d := &fakeDispatcher{failIDs: map[int64]struct{}{3: {}}}
	w, _ := testWorker(store, d, 10)

	run, err := w.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, model.JobRunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.Errors)
	assert.Equal(t, []int64{1, 2, 4, 5, 6}, d.sent)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, store.extended[1],
		"one attempt per offer, failed sends are not retried")
}

func TestRun_alreadyRunning(t *testing.T) {
	store := newFakeStore()
	store.lockHeld = true

	w, _ := testWorker(store, &fakeDispatcher{}, 10)
	run, err := w.Run(t.Context())
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, run)
	assert.Empty(t, store.runs, "no audit record for a skipped run")
}

func TestRun_subscriptionsError(t *testing.T) {
	store := newFakeStore()
	store.subsErr = errors.New("connection refused")

	w, _ := testWorker(store, &fakeDispatcher{}, 10)
	run, err := w.Run(t.Context())
	require.ErrorContains(t, err, "connection refused")
	require.NotNil(t, run)
	assert.Equal(t, model.JobRunStatusFailed, run.Status)
	assert.NotNil(t, run.FinishedAt)
}

func TestRun_staleCacheRefreshFailure(t *testing.T) {
	store := newFakeStore()
	store.offers = cachedOffers()
	store.subs = model.Subscriptions{
		{ID: 1, UserID: 10, Label: "everything", Active: true},
	}

	d := &fakeDispatcher{}
	syncer := &fakeSyncer{err: errors.New("upstream down")}
	w := New(store, d, syncer, Config{NotificationsPerRun: 10})

	run, err := w.Run(t.Context())
	require.NoError(t, err, "a stale cache still serves the run")
	assert.Equal(t, model.JobRunStatusSuccess, run.Status)
	require.NotEmpty(t, run.Log)
	assert.Contains(t, run.Log[0], "cache refresh failed")
	assert.Len(t, d.sent, 6)
}
