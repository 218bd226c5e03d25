package answers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSavedAnswerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "Sam", "female"))

	a, found, err := s.Get(ctx, "Sam")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Sam", a.Name)
	assert.Equal(t, "female", a.Gender)
}

func TestUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "Alice", "female"))
	require.NoError(t, s.Upsert(ctx, "Alice", "male"))

	a, found, err := s.Get(ctx, "Alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "male", a.Gender)
}

func TestKeysAreCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "alice", "female"))

	_, found, err := s.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteRemovesEntry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "Alice", "female"))
	require.NoError(t, s.Delete(ctx, "Alice"))

	_, found, err := s.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Delete(ctx, "Nobody"))
	require.NoError(t, s.Delete(ctx, ""))
}

func TestListAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Upsert(ctx, "Bob", "male"))
	require.NoError(t, s.Upsert(ctx, "Alice", "female"))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].Name)
	assert.Equal(t, "Bob", all[1].Name)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateUser(ctx, UserRecord{Username: "admin", PasswordHash: "x", CreatedAt: time.Now()}))

	u, exists, err := s.GetUser(ctx, "admin")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "x", u.PasswordHash)

	require.NoError(t, s.UpdateUserPassword(ctx, "admin", "y"))
	u, _, err = s.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "y", u.PasswordHash)

	_, exists, err = s.GetUser(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess := SessionRecord{Token: "tok", Username: "admin", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, exists, err := s.GetSession(ctx, "tok")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, "admin", got.Username)

	require.NoError(t, s.DeleteSession(ctx, "tok"))
	_, exists, err = s.GetSession(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteExpiredSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, SessionRecord{Token: "old", Username: "a", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, s.CreateSession(ctx, SessionRecord{Token: "new", Username: "a", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := s.DeleteExpiredSessions(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, exists, err := s.GetSession(ctx, "new")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAPIKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := APIKeyRecord{ID: "id1", Name: "ci", Prefix: "sk-1234", HashedKey: "h", CreatedAt: time.Now()}
	require.NoError(t, s.CreateAPIKey(ctx, rec))

	keys, err := s.ListAPIKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ci", keys[0].Name)
	assert.Nil(t, keys[0].LastUsedAt)

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, "id1"))
	keys, err = s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.NotNil(t, keys[0].LastUsedAt)

	require.NoError(t, s.DeleteAPIKey(ctx, "id1"))
	keys, err = s.ListAPIKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
