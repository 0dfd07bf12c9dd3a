package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/database"
	"github.com/nerrad567/leaflens-gateway/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	require.NoError(t, db.Migrate(ctx, migrations.FS))
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entry := &AuditLog{
		Action:     ActionAuthFailure,
		Path:       "/api/data",
		RemoteAddr: "192.0.2.10:4123",
		Details:    map[string]any{"credential_present": false},
	}
	require.NoError(t, repo.Create(ctx, entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "api", entry.Source)

	result, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, defaultListLimit, result.Limit)

	got := result.Logs[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, "/api/data", got.Path)
	assert.Equal(t, "192.0.2.10:4123", got.RemoteAddr)
	assert.Empty(t, got.RequestID)
	assert.Equal(t, false, got.Details["credential_present"])
	assert.WithinDuration(t, entry.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestSQLiteRepository_ListNewestFirstAndFiltered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	for i, action := range []string{ActionAuthFailure, "other", ActionAuthFailure} {
		require.NoError(t, repo.Create(ctx, &AuditLog{
			Action:    action,
			Path:      "/p",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all.Logs, 3)
	assert.True(t, all.Logs[0].CreatedAt.After(all.Logs[1].CreatedAt))
	assert.True(t, all.Logs[1].CreatedAt.After(all.Logs[2].CreatedAt))

	failures, err := repo.List(ctx, Filter{Action: ActionAuthFailure, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, failures.Total)
	require.Len(t, failures.Logs, 1)
	assert.Equal(t, base.Add(2*time.Minute), failures.Logs[0].CreatedAt)
}

func TestSQLiteRepository_ListEmptyAndClamp(t *testing.T) {
	repo := newTestRepo(t)

	result, err := repo.List(context.Background(), Filter{Limit: 10_000})
	require.NoError(t, err)
	assert.NotNil(t, result.Logs)
	assert.Empty(t, result.Logs)
	assert.Equal(t, maxListLimit, result.Limit)
}
