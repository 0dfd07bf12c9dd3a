package gateway

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/mongodb"
)

// fakeStore serves documents from memory and counts connection lifecycles.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	connectErr  error
	queryErr    error
	acquired    int
	released    int
	queried     []string
}

func (f *fakeStore) WithConnection(ctx context.Context, fn func(context.Context, mongodb.Session) error) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.mu.Lock()
	f.acquired++
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}()
	return fn(ctx, f)
}

func (f *fakeStore) FindAll(_ context.Context, database, collection string) ([]bson.M, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, database+"."+collection)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.collections[database+"."+collection], nil
}

func (f *fakeStore) ListDatabaseNames(context.Context) ([]string, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []string{"Sensor", "Store"}, nil
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	errs  int
}

func (r *recordingObserver) ObserveQuery(database, collection string, _ int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, database+"."+collection)
	if err != nil {
		r.errs++
	}
}

func newTestService(t *testing.T, store *fakeStore, obs ...QueryObserver) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &buf)
	svc, err := NewService(ServiceDeps{Store: store, Logger: log, Observers: obs})
	require.NoError(t, err)
	return svc, &buf
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceDeps{Logger: logging.Discard()})
	require.Error(t, err)
	_, err = NewService(ServiceDeps{Store: &fakeStore{}})
	require.Error(t, err)
}

func TestFetch_Success(t *testing.T) {
	store := &fakeStore{collections: map[string][]bson.M{
		"Sensor.Plant_3": {{"_id": "x", "moisture": 0.4}},
	}}
	obs := &recordingObserver{}
	svc, _ := newTestService(t, store, obs)

	ref, err := svc.Resolve(ResourcePlant, "3")
	require.NoError(t, err)
	records, err := svc.Fetch(context.Background(), ref)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0.4, records[0]["moisture"])
	assert.Equal(t, 1, store.acquired)
	assert.Equal(t, 1, store.released)
	assert.Equal(t, []string{"Sensor.Plant_3"}, obs.calls)
}

func TestFetch_EmptyCollection(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{})

	records, err := svc.Fetch(context.Background(), CollectionRef{Database: "Sensor", Collection: "Data"})

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetch_StoreFailureIsGeneric(t *testing.T) {
	internal := errors.New("dial tcp 10.0.0.7:27017: connection refused")
	store := &fakeStore{queryErr: internal}
	obs := &recordingObserver{}
	svc, logs := newTestService(t, store, obs)

	_, err := svc.Fetch(context.Background(), CollectionRef{Database: "Store", Collection: "Products"})

	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, internal, "store detail must not leak to callers")
	assert.NotContains(t, err.Error(), "10.0.0.7")
	assert.Equal(t, 1, store.released, "connection released on failure")
	assert.Equal(t, 1, obs.errs)

	// Diagnostics go to the log instead.
	out := logs.String()
	assert.True(t, strings.Contains(out, `"collection":"Products"`), out)
	assert.Contains(t, out, "connection refused")
}

func TestFetch_ConnectFailure(t *testing.T) {
	store := &fakeStore{connectErr: mongodb.ErrConnectionFailed}
	svc, _ := newTestService(t, store)

	_, err := svc.Fetch(context.Background(), CollectionRef{Database: "Sensor", Collection: "Data"})

	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 0, store.acquired)
}

func TestFetch_Idempotent(t *testing.T) {
	store := &fakeStore{collections: map[string][]bson.M{
		"Sensor.Data": {{"_id": "a", "t": 1}, {"_id": "b", "t": 2}},
	}}
	svc, _ := newTestService(t, store)
	ref := CollectionRef{Database: "Sensor", Collection: "Data"}

	first, err := svc.Fetch(context.Background(), ref)
	require.NoError(t, err)
	second, err := svc.Fetch(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.acquired, "one connection per call, never reused")
}

func TestDatabaseNames(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{})
	names, err := svc.DatabaseNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Sensor", "Store"}, names)

	failing, _ := newTestService(t, &fakeStore{queryErr: errors.New("auth failed")})
	_, err = failing.DatabaseNames(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
