package gateway

import "errors"

// Domain errors for gateway operations.
var (
	// ErrInvalidParameter indicates a malformed or out-of-range resource parameter.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownResource indicates a resource name with no catalog entry.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrStoreUnavailable indicates the document store could not serve a query.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidCatalog indicates an ambiguous or incomplete resource table.
	ErrInvalidCatalog = errors.New("invalid catalog")
)
