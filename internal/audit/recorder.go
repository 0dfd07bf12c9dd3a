package audit

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nerrad567/leaflens-gateway/internal/auth"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
)

const (
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second

	// maxSubmittedBytes caps the stored copy of a rejected header value.
	maxSubmittedBytes = 256
)

// Publisher announces audit events to live subscribers.
type Publisher interface {
	PublishAuditEvent(action string, payload []byte) error
}

// Event is the published summary of an entry. It carries no details.
type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Path       string    `json:"path,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// Recorder queues audit entries and writes them from a single goroutine.
// Record never blocks: when the queue is full the entry is dropped.
type Recorder struct {
	repo      Repository
	publisher Publisher
	logger    *logging.Logger
	queue     chan *AuditLog
	running   atomic.Bool
	dropped   atomic.Uint64
}

// NewRecorder returns a Recorder writing to repo. publisher may be nil.
// A non-positive buffer selects the default of 256.
func NewRecorder(repo Repository, publisher Publisher, logger *logging.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Component("audit"),
		queue:     make(chan *AuditLog, buffer),
	}
}

// Record enqueues entry for asynchronous write.
func (r *Recorder) Record(entry *AuditLog) {
	if entry.ID == "" {
		entry.ID = "aud-" + uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Source == "" {
		entry.Source = "api"
	}

	select {
	case r.queue <- entry:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit queue full, dropping entry",
			"action", entry.Action,
			"path", entry.Path,
		)
	}
}

// RecordAuthFailure implements auth.FailureRecorder.
func (r *Recorder) RecordAuthFailure(_ context.Context, attempt auth.Attempt) {
	details := map[string]any{
		"method":             attempt.Method,
		"credential_present": attempt.Present,
	}
	if attempt.Present {
		value, truncated := truncateUTF8(attempt.Value, maxSubmittedBytes)
		details["submitted"] = value
		if truncated {
			details["submitted_truncated"] = true
			details["submitted_bytes"] = len(attempt.Value)
		}
	}

	r.Record(&AuditLog{
		Action:     ActionAuthFailure,
		Path:       attempt.Path,
		RemoteAddr: attempt.RemoteAddr,
		RequestID:  attempt.RequestID,
		Details:    details,
	})
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) (string, bool) {
	if len(s) <= n {
		return s, false
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n], true
}

// Dropped returns how many entries were discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Run writes queued entries until ctx is cancelled, then flushes whatever
// is still queued and returns.
func (r *Recorder) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) write(entry *AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Error("audit log write failed",
			"action", entry.Action,
			"id", entry.ID,
			"error", err,
		)
	}

	if r.publisher == nil {
		return
	}
	payload, err := json.Marshal(Event{
		ID:         entry.ID,
		Action:     entry.Action,
		Path:       entry.Path,
		RemoteAddr: entry.RemoteAddr,
		RequestID:  entry.RequestID,
		Source:     entry.Source,
		Timestamp:  entry.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := r.publisher.PublishAuditEvent(entry.Action, payload); err != nil {
		r.logger.Debug("audit event publish failed", "action", entry.Action, "error", err)
	}
}
