package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
)

// ErrNoSecret is returned by NewGate when no secret is configured.
var ErrNoSecret = errors.New("auth: shared secret is not configured")

// Attempt describes one authorisation attempt.
type Attempt struct {
	// Value is the submitted header value; empty when Present is false.
	Value      string
	Present    bool
	Method     string
	Path       string
	RemoteAddr string
	RequestID  string
}

// FailureRecorder receives failed attempts. Implementations must not block.
type FailureRecorder interface {
	RecordAuthFailure(ctx context.Context, attempt Attempt)
}

// Gate compares a request credential against the configured secret.
// It is immutable after construction and safe for concurrent use.
type Gate struct {
	header   string
	secret   []byte
	recorder FailureRecorder
	logger   *logging.Logger
}

// NewGate builds a Gate from configuration. recorder may be nil.
func NewGate(cfg config.AuthConfig, logger *logging.Logger, recorder FailureRecorder) (*Gate, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	header := strings.TrimSpace(cfg.Header)
	if header == "" {
		return nil, errors.New("auth: header name is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Gate{
		header:   header,
		secret:   []byte(cfg.Secret),
		recorder: recorder,
		logger:   logger.Component("auth"),
	}, nil
}

// Header returns the name of the header carrying the credential.
func (g *Gate) Header() string {
	return g.header
}

// Authorize reports whether value equals the configured secret exactly.
// Comparison is case-sensitive with no trimming or normalisation.
func (g *Gate) Authorize(value string) bool {
	return subtle.ConstantTimeCompare([]byte(value), g.secret) == 1
}

// Check authorises an attempt and records it when it fails.
func (g *Gate) Check(ctx context.Context, attempt Attempt) bool {
	if attempt.Present && g.Authorize(attempt.Value) {
		return true
	}

	g.logger.Warn("authorisation failed",
		"method", attempt.Method,
		"path", attempt.Path,
		"remote_addr", attempt.RemoteAddr,
		"credential_present", attempt.Present,
		"request_id", attempt.RequestID,
	)

	if g.recorder != nil {
		g.recorder.RecordAuthFailure(ctx, attempt)
	}
	return false
}
