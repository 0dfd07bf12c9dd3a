package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
)

// disconnectTimeout bounds the release of a per-request client. It runs
// even when the request context is already cancelled.
const disconnectTimeout = 5 * time.Second

// Session is the query surface available inside WithConnection.
type Session interface {
	// FindAll returns every document in database.collection in natural order.
	FindAll(ctx context.Context, database, collection string) ([]bson.M, error)

	// ListDatabaseNames returns the names of all databases on the server.
	ListDatabaseNames(ctx context.Context) ([]string, error)
}

// client is the subset of *mongo.Client used by the store.
type client interface {
	Ping(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Session
}

// dialFunc creates a client; replaced in tests.
type dialFunc func(ctx context.Context, cfg config.MongoDBConfig) (client, error)

// Store opens one document store connection per call to WithConnection.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Store struct {
	cfg  config.MongoDBConfig
	dial dialFunc
}

// New creates a Store for the configured server. No connection is made until
// WithConnection is called.
func New(cfg config.MongoDBConfig) *Store {
	return &Store{cfg: cfg, dial: dialDriver}
}

// WithConnection acquires a connection, runs fn against it and releases the
// connection on every exit path, including a panic inside fn.
//
// The connection phase (dial + ping) is bounded by connect_timeout. Errors
// from the connection phase wrap ErrConnectionFailed; errors returned by fn
// are passed through unchanged.
func (s *Store) WithConnection(ctx context.Context, fn func(ctx context.Context, sess Session) error) error {
	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.GetConnectTimeout())
	defer cancel()

	c, err := s.dial(connectCtx, s.cfg)
	if err != nil {
		// Nothing was acquired, so there is nothing to release.
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer releaseCancel()
		//nolint:errcheck // release failures cannot change the request outcome
		c.Disconnect(releaseCtx)
	}()

	if err := c.Ping(connectCtx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrConnectionFailed, err)
	}

	return fn(ctx, &boundedSession{inner: c, timeout: s.cfg.GetQueryTimeout()})
}

// boundedSession applies the query timeout to every call.
type boundedSession struct {
	inner   Session
	timeout time.Duration
}

func (b *boundedSession) FindAll(ctx context.Context, database, collection string) ([]bson.M, error) {
	if database == "" || collection == "" {
		return nil, fmt.Errorf("%w: database=%q collection=%q", ErrInvalidTarget, database, collection)
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.FindAll(ctx, database, collection)
}

func (b *boundedSession) ListDatabaseNames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.ListDatabaseNames(ctx)
}

// driverClient adapts *mongo.Client to the client interface.
type driverClient struct {
	c *mongo.Client
}

// dialDriver builds a real driver client. Nested documents decode as bson.M
// so that records serialise to plain JSON objects.
func dialDriver(ctx context.Context, cfg config.MongoDBConfig) (client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(cfg.GetConnectTimeout()).
		SetServerSelectionTimeout(cfg.GetConnectTimeout()).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &driverClient{c: c}, nil
}

func (d *driverClient) Ping(ctx context.Context) error {
	return d.c.Ping(ctx, nil)
}

func (d *driverClient) Disconnect(ctx context.Context) error {
	return d.c.Disconnect(ctx)
}

func (d *driverClient) FindAll(ctx context.Context, database, collection string) ([]bson.M, error) {
	cursor, err := d.c.Database(database).Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find %s.%s: %w", ErrQueryFailed, database, collection, err)
	}

	// All closes the cursor.
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: read %s.%s: %w", ErrQueryFailed, database, collection, err)
	}
	return docs, nil
}

func (d *driverClient) ListDatabaseNames(ctx context.Context) ([]string, error) {
	names, err := d.c.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: list databases: %w", ErrQueryFailed, err)
	}
	return names, nil
}

// IsTimeout reports whether err came from a connect or query deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err)
}
