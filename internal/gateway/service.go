package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/mongodb"
)

// Store is the scoped-acquisition contract implemented by mongodb.Store.
type Store interface {
	WithConnection(ctx context.Context, fn func(ctx context.Context, sess mongodb.Session) error) error
}

// QueryObserver is notified after every store query, successful or not.
// Implementations must be safe for concurrent use and must not block.
type QueryObserver interface {
	ObserveQuery(database, collection string, records int, elapsed time.Duration, err error)
}

// ServiceDeps holds the dependencies of a Service.
type ServiceDeps struct {
	Store     Store
	Catalog   *Catalog
	Logger    *logging.Logger
	Observers []QueryObserver
}

// Service resolves resources and reads them through the store.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	store     Store
	catalog   *Catalog
	logger    *logging.Logger
	observers []QueryObserver
}

// NewService validates deps and returns a Service. A nil Catalog selects
// DefaultCatalog.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	return &Service{
		store:     deps.Store,
		catalog:   catalog,
		logger:    deps.Logger.Component("gateway"),
		observers: deps.Observers,
	}, nil
}

// Resolve maps a resource descriptor to its collection without touching the store.
func (s *Service) Resolve(resource Resource, param string) (CollectionRef, error) {
	return s.catalog.Resolve(resource, param)
}

// Catalog returns the resource table in use.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Fetch reads every record in ref over a fresh connection and normalises
// the result. Any store failure is logged here and returned as
// ErrStoreUnavailable; the underlying error is not exposed to callers.
func (s *Service) Fetch(ctx context.Context, ref CollectionRef) ([]Record, error) {
	start := time.Now()

	var docs []bson.M
	err := s.store.WithConnection(ctx, func(ctx context.Context, sess mongodb.Session) error {
		var queryErr error
		docs, queryErr = sess.FindAll(ctx, ref.Database, ref.Collection)
		return queryErr
	})

	s.observe(ref, len(docs), time.Since(start), err)

	if err != nil {
		s.logger.Error("store query failed",
			"database", ref.Database,
			"collection", ref.Collection,
			"timeout", mongodb.IsTimeout(err),
			"canceled", errors.Is(err, context.Canceled),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, ref)
	}

	return Normalize(docs), nil
}

// DatabaseNames lists the databases visible to the configured credentials.
func (s *Service) DatabaseNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.store.WithConnection(ctx, func(ctx context.Context, sess mongodb.Session) error {
		var listErr error
		names, listErr = sess.ListDatabaseNames(ctx)
		return listErr
	})
	if err != nil {
		s.logger.Error("listing databases failed", "error", err)
		return nil, fmt.Errorf("%w: list databases", ErrStoreUnavailable)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Service) observe(ref CollectionRef, records int, elapsed time.Duration, err error) {
	for _, o := range s.observers {
		o.ObserveQuery(ref.Database, ref.Collection, records, elapsed, err)
	}
}
