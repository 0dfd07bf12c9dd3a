package mongodb

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
)

type fakeClient struct {
	mu           sync.Mutex
	pingErr      error
	findErr      error
	docs         []bson.M
	disconnected int
	findDeadline bool
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected++
	return nil
}

func (f *fakeClient) FindAll(ctx context.Context, _, _ string) ([]bson.M, error) {
	_, f.findDeadline = ctx.Deadline()
	return f.docs, f.findErr
}

func (f *fakeClient) ListDatabaseNames(context.Context) ([]string, error) {
	return []string{"Sensor", "Store"}, nil
}

func (f *fakeClient) disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

func testConfig() config.MongoDBConfig {
	return config.MongoDBConfig{
		URL:            "mongodb://127.0.0.1:27017",
		ConnectTimeout: 2,
		QueryTimeout:   2,
	}
}

func storeWith(fc *fakeClient, dialErr error) *Store {
	s := New(testConfig())
	s.dial = func(context.Context, config.MongoDBConfig) (client, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return fc, nil
	}
	return s
}

func TestWithConnection_Success(t *testing.T) {
	fc := &fakeClient{docs: []bson.M{{"_id": "a"}}}
	s := storeWith(fc, nil)

	var got []bson.M
	err := s.WithConnection(context.Background(), func(ctx context.Context, sess Session) error {
		var findErr error
		got, findErr = sess.FindAll(ctx, "Sensor", "Data")
		return findErr
	})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, fc.disconnects(), "connection must be released once")
	assert.True(t, fc.findDeadline, "queries must carry a deadline")
}

func TestWithConnection_ReleasedOnQueryError(t *testing.T) {
	fc := &fakeClient{findErr: ErrQueryFailed}
	s := storeWith(fc, nil)

	err := s.WithConnection(context.Background(), func(ctx context.Context, sess Session) error {
		_, findErr := sess.FindAll(ctx, "Sensor", "Data")
		return findErr
	})

	require.ErrorIs(t, err, ErrQueryFailed)
	assert.Equal(t, 1, fc.disconnects())
}

func TestWithConnection_ReleasedOnCallbackError(t *testing.T) {
	fc := &fakeClient{}
	s := storeWith(fc, nil)
	sentinel := errors.New("resolver failed after acquisition")

	err := s.WithConnection(context.Background(), func(context.Context, Session) error {
		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, fc.disconnects())
}

func TestWithConnection_ReleasedOnPanic(t *testing.T) {
	fc := &fakeClient{}
	s := storeWith(fc, nil)

	assert.Panics(t, func() {
		//nolint:errcheck // panics before returning
		s.WithConnection(context.Background(), func(context.Context, Session) error {
			panic("boom")
		})
	})
	assert.Equal(t, 1, fc.disconnects())
}

func TestWithConnection_ReleasedOnPingFailure(t *testing.T) {
	fc := &fakeClient{pingErr: errors.New("server selection timeout")}
	s := storeWith(fc, nil)
	called := false

	err := s.WithConnection(context.Background(), func(context.Context, Session) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.False(t, called, "callback must not run without a live connection")
	assert.Equal(t, 1, fc.disconnects())
}

func TestWithConnection_DialFailureReleasesNothing(t *testing.T) {
	fc := &fakeClient{}
	s := storeWith(fc, errors.New("connection refused"))

	err := s.WithConnection(context.Background(), func(context.Context, Session) error {
		t.Fatal("callback must not run")
		return nil
	})

	require.ErrorIs(t, err, ErrConnectionFailed)
	assert.Equal(t, 0, fc.disconnects())
}

func TestBoundedSession_RejectsEmptyTarget(t *testing.T) {
	fc := &fakeClient{}
	s := storeWith(fc, nil)

	err := s.WithConnection(context.Background(), func(ctx context.Context, sess Session) error {
		_, findErr := sess.FindAll(ctx, "", "Data")
		return findErr
	})

	require.ErrorIs(t, err, ErrInvalidTarget)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(errors.New("other")))
}

// TestIntegration_FindAll runs against a real server when one is available.
func TestIntegration_FindAll(t *testing.T) {
	url := os.Getenv("LEAFLENS_TEST_MONGODB_URL")
	if url == "" {
		t.Skip("LEAFLENS_TEST_MONGODB_URL not set, skipping integration test")
	}

	cfg := testConfig()
	cfg.URL = url
	s := New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.WithConnection(ctx, func(ctx context.Context, sess Session) error {
		if _, err := sess.ListDatabaseNames(ctx); err != nil {
			return err
		}
		_, err := sess.FindAll(ctx, "Sensor", "Data")
		return err
	})
	require.NoError(t, err)
}
