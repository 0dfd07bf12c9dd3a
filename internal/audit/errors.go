package audit

import "errors"

// ErrAlreadyRunning is returned by Run when the drain loop is already active.
var ErrAlreadyRunning = errors.New("audit: recorder already running")
