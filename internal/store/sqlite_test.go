package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-wizard/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_SessionLifecycle(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, model.KindPersonalProfile, "https://linkedin.com/in/jane")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "idle", sess.State)

	require.NoError(t, s.UpdateSessionState(ctx, sess.ID, "polling", "job-1"))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "polling", got.State)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, model.KindPersonalProfile, got.Kind)

	// State-only update keeps the job id.
	require.NoError(t, s.UpdateSessionState(ctx, sess.ID, "reviewing", ""))
	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "reviewing", got.State)
	assert.Equal(t, "job-1", got.JobID)

	final := map[string]any{"full_name": "Jane Doe", "headline": "VP of Sales"}
	require.NoError(t, s.CompleteSession(ctx, sess.ID, final, "rec-9"))

	got, err = s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "done", got.State)
	assert.Equal(t, "rec-9", got.PersistedID)
	assert.Equal(t, "Jane Doe", got.FinalData["full_name"])
	assert.Empty(t, got.Error)
}

func TestSQLiteStore_FailSession(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, model.KindCompanyProfile, "https://acme.example.com")
	require.NoError(t, err)

	require.NoError(t, s.FailSession(ctx, sess.ID, "failed", "generation: job job-1 failed"))

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.State)
	assert.Contains(t, got.Error, "job-1")
}

func TestSQLiteStore_UpdateMissingSession(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	err := s.UpdateSessionState(ctx, "nonexistent", "polling", "job-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	err = s.FailSession(ctx, "nonexistent", "failed", "boom")
	require.Error(t, err)

	err = s.CompleteSession(ctx, "nonexistent", nil, "rec-1")
	require.Error(t, err)
}

func TestSQLiteStore_GetMissingSession(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.GetSession(context.Background(), "nonexistent")
	require.Error(t, err)
}

func TestSQLiteStore_ListSessions(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	p1, err := s.CreateSession(ctx, model.KindPersonalProfile, "https://linkedin.com/in/a")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, model.KindPersonalProfile, "https://linkedin.com/in/b")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, model.KindCompanyProfile, "https://c.example.com")
	require.NoError(t, err)

	all, err := s.ListSessions(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	personal, err := s.ListSessions(ctx, SessionFilter{Kind: model.KindPersonalProfile})
	require.NoError(t, err)
	assert.Len(t, personal, 2)

	require.NoError(t, s.UpdateSessionState(ctx, p1.ID, "done", ""))
	done, err := s.ListSessions(ctx, SessionFilter{State: "done"})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, p1.ID, done[0].ID)

	limited, err := s.ListSessions(ctx, SessionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
