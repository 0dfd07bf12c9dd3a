// Package mongodb provides per-request access to the LeafLens document store.
//
// Connections are not pooled across requests. Each
// call to Store.WithConnection dials a fresh client, hands the caller a
// Session bound to it and disconnects when the callback returns, whatever
// the outcome:
//
//	store := mongodb.New(cfg.MongoDB)
//	err := store.WithConnection(ctx, func(ctx context.Context, s mongodb.Session) error {
//	    docs, err := s.FindAll(ctx, "Sensor", "Data")
//	    ...
//	})
//
// # Timeouts
//
// Connection establishment is bounded by connect_timeout and every query by
// query_timeout. Both are derived from the request context, so a client that
// goes away cancels the in-flight store work.
//
// # Thread Safety
//
// Store is safe for concurrent use; Sessions must not outlive the callback
// they were handed to.
package mongodb
