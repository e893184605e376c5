package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "data", "softsell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestVisitorRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetVisitor(ctx, "visitor_missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	now := time.Unix(1_700_000_000, 0)
	require.NoError(t, repo.UpsertVisitor(ctx, &domain.Visitor{
		VisitorID:  "visitor_1",
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))

	got, err = repo.GetVisitor(ctx, "visitor_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "visitor_1", got.VisitorID)
	assert.True(t, got.LastSeenAt.Equal(now))

	later := now.Add(time.Hour)
	require.NoError(t, repo.UpdateLastSeen(ctx, "visitor_1", later))
	got, err = repo.GetVisitor(ctx, "visitor_1")
	require.NoError(t, err)
	assert.True(t, got.LastSeenAt.Equal(later))
	assert.True(t, got.CreatedAt.Equal(now))
}

func TestPreferenceUpsert(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	_, ok, err := repo.GetPreference(ctx, "visitor_1", "darkMode")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetPreference(ctx, "visitor_1", "darkMode", "true"))
	require.NoError(t, repo.SetPreference(ctx, "visitor_1", "darkMode", "false"))

	value, ok, err := repo.GetPreference(ctx, "visitor_1", "darkMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", value)

	_, ok, err = repo.GetPreference(ctx, "visitor_2", "darkMode")
	require.NoError(t, err)
	assert.False(t, ok, "preferences are scoped per visitor")
}

func TestDeleteStaleVisitorsRemovesPreferences(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	stale := now.Add(-48 * time.Hour)
	for _, v := range []*domain.Visitor{
		{VisitorID: "visitor_stale", LastSeenAt: stale, CreatedAt: stale, UpdatedAt: stale},
		{VisitorID: "visitor_fresh", LastSeenAt: now, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, repo.UpsertVisitor(ctx, v))
		require.NoError(t, repo.SetPreference(ctx, v.VisitorID, "darkMode", "true"))
	}

	deleted, err := repo.DeleteStaleVisitors(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := repo.GetVisitor(ctx, "visitor_stale")
	require.NoError(t, err)
	assert.Nil(t, gone)
	_, ok, err := repo.GetPreference(ctx, "visitor_stale", "darkMode")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repo.GetPreference(ctx, "visitor_fresh", "darkMode")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	require.NoError(t, repo.Ping(context.Background()))
}
