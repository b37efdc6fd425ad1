package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore()
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.InitSchema())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveAndLoadSnapshot(t *testing.T) {
	s := newTestStore(t)

	entries := map[string]string{
		"x1": "(0 1 2 3 4 5 6 7 8 9)",
		"x2": "(0 1 4 9 16 25 36 49 64 81)",
	}
	snap, err := s.SaveSnapshot("user", "before-refactor", entries)
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, "user", snap.Namespace)
	assert.Equal(t, "before-refactor", snap.Label)
	assert.False(t, snap.CreatedAt.IsZero())

	got, err := s.SnapshotEntries(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestSQLiteStore_LatestSnapshot(t *testing.T) {
	s := newTestStore(t)

	latest, err := s.LatestSnapshot("user")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.SaveSnapshot("user", "first", map[string]string{"a": "1"})
	require.NoError(t, err)
	second, err := s.SaveSnapshot("user", "second", map[string]string{"a": "2"})
	require.NoError(t, err)

	latest, err = s.LatestSnapshot("user")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	// Namespaces are independent.
	latest, err = s.LatestSnapshot("scratch")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLiteStore_ListSnapshots(t *testing.T) {
	s := newTestStore(t)

	snaps, err := s.ListSnapshots("user")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	_, err = s.SaveSnapshot("user", "a", map[string]string{"x": "1"})
	require.NoError(t, err)
	_, err = s.SaveSnapshot("user", "b", nil)
	require.NoError(t, err)
	_, err = s.SaveSnapshot("scratch", "c", nil)
	require.NoError(t, err)

	snaps, err = s.ListSnapshots("user")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
}

func TestSQLiteStore_DeleteSnapshot(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.SaveSnapshot("user", "", map[string]string{"x": "1"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSnapshot(snap.ID))

	_, err = s.SnapshotEntries(snap.ID)
	assert.ErrorContains(t, err, "not found")

	err = s.DeleteSnapshot(snap.ID)
	assert.ErrorContains(t, err, "snapshot not found")
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	s := NewSQLiteStore()
	_, err := s.SaveSnapshot("user", "", nil)
	assert.ErrorContains(t, err, "database not opened")
	_, err = s.LatestSnapshot("user")
	assert.ErrorContains(t, err, "database not opened")
}
