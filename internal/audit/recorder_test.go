package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/leaflens-gateway/internal/auth"
)

type memoryRepo struct {
	mu      sync.Mutex
	entries []*AuditLog
	err     error
}

func (m *memoryRepo) Create(_ context.Context, log *AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, log)
	return nil
}

func (m *memoryRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func (m *memoryRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type capturePublisher struct {
	mu       sync.Mutex
	payloads map[string][][]byte
}

func (c *capturePublisher) PublishAuditEvent(action string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payloads == nil {
		c.payloads = make(map[string][][]byte)
	}
	c.payloads[action] = append(c.payloads[action], payload)
	return nil
}

func runRecorder(t *testing.T, r *Recorder) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	return func() {
		stop()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("recorder did not stop")
		}
	}
}

func TestRecorder_RecordAuthFailure(t *testing.T) {
	repo := &memoryRepo{}
	pub := &capturePublisher{}
	r := NewRecorder(repo, pub, nil, 8)
	stop := runRecorder(t, r)

	r.RecordAuthFailure(context.Background(), auth.Attempt{
		Value:      "guess-123",
		Present:    true,
		Method:     "GET",
		Path:       "/api/plant/2",
		RemoteAddr: "198.51.100.4:5000",
		RequestID:  "req-1",
	})
	stop()

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	assert.Equal(t, ActionAuthFailure, entry.Action)
	assert.Equal(t, "/api/plant/2", entry.Path)
	assert.Equal(t, "req-1", entry.RequestID)
	assert.Equal(t, "guess-123", entry.Details["submitted"])
	assert.False(t, entry.CreatedAt.IsZero())

	require.Len(t, pub.payloads[ActionAuthFailure], 1)
	payload := pub.payloads[ActionAuthFailure][0]
	assert.NotContains(t, string(payload), "guess-123", "published summary carries no credential")

	var ev Event
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, entry.ID, ev.ID)
}

func TestRecorder_AbsentCredentialHasNoSubmittedValue(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, nil, nil, 8)
	stop := runRecorder(t, r)

	r.RecordAuthFailure(context.Background(), auth.Attempt{Path: "/cron"})
	stop()

	require.Len(t, repo.entries, 1)
	_, ok := repo.entries[0].Details["submitted"]
	assert.False(t, ok)
}

func TestRecorder_SubmittedValueIsCapped(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, nil, nil, 8)
	stop := runRecorder(t, r)

	long := strings.Repeat("x", maxSubmittedBytes-1) + "é" + strings.Repeat("y", 1<<20)
	r.RecordAuthFailure(context.Background(), auth.Attempt{Value: long, Present: true, Path: "/api/data"})
	r.RecordAuthFailure(context.Background(), auth.Attempt{Value: "short", Present: true, Path: "/api/data"})
	stop()

	require.Len(t, repo.entries, 2)

	capped := repo.entries[0].Details
	submitted, ok := capped["submitted"].(string)
	require.True(t, ok)
	assert.LessOrEqual(t, len(submitted), maxSubmittedBytes)
	assert.True(t, utf8.ValidString(submitted), "cut must not split a rune")
	assert.Equal(t, strings.Repeat("x", maxSubmittedBytes-1), submitted)
	assert.Equal(t, true, capped["submitted_truncated"])
	assert.Equal(t, len(long), capped["submitted_bytes"])

	plain := repo.entries[1].Details
	assert.Equal(t, "short", plain["submitted"])
	_, flagged := plain["submitted_truncated"]
	assert.False(t, flagged)
}

func TestRecorder_DrainsOnShutdown(t *testing.T) {
	repo := &memoryRepo{}
	r := NewRecorder(repo, nil, nil, 32)

	// Queue before the loop starts; cancellation must still flush them.
	for i := 0; i < 10; i++ {
		r.Record(&AuditLog{Action: "queued"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, 10, repo.len())
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	r := NewRecorder(&memoryRepo{}, nil, nil, 1)

	r.Record(&AuditLog{Action: "first"})
	r.Record(&AuditLog{Action: "second"})

	assert.Equal(t, uint64(1), r.Dropped())
}

func TestRecorder_WriteErrorDoesNotStopLoop(t *testing.T) {
	repo := &memoryRepo{err: errors.New("disk full")}
	pub := &capturePublisher{}
	r := NewRecorder(repo, pub, nil, 4)
	stop := runRecorder(t, r)

	r.Record(&AuditLog{Action: "a"})
	r.Record(&AuditLog{Action: "b"})
	stop()

	assert.Len(t, pub.payloads, 2, "entries are still published when the store write fails")
}

func TestRecorder_RunTwice(t *testing.T) {
	r := NewRecorder(&memoryRepo{}, nil, nil, 1)
	stop := runRecorder(t, r)
	defer stop()

	require.Eventually(t, r.running.Load, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, r.Run(context.Background()), ErrAlreadyRunning)
}
