package mongodb

import "errors"

// Sentinel errors for document store operations.
//
//	if errors.Is(err, mongodb.ErrConnectionFailed) {
//	    // store unreachable
//	}
var (
	// ErrConnectionFailed indicates the client could not be created or the server did not answer a ping.
	ErrConnectionFailed = errors.New("mongodb: connection failed")

	// ErrQueryFailed indicates a query or cursor iteration failed.
	ErrQueryFailed = errors.New("mongodb: query failed")

	// ErrInvalidTarget indicates an empty database or collection name.
	ErrInvalidTarget = errors.New("mongodb: invalid target")
)
