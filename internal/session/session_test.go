package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replforge/shadowlet/internal/shadow"
	"github.com/replforge/shadowlet/internal/testutil"
)

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.StatePath == "" {
		cfg.StatePath = ":memory:"
	}
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_Eval(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})

	res := s.Eval(shadow.Request{Expr: "(range 3)", Context: "[xs (range 3)]"})
	require.Empty(t, res.Err)
	assert.Equal(t, "{xs (0 1 2)}", res.Display())

	v, ok := s.Shadows().Get("user", "xs")
	require.True(t, ok)
	assert.Equal(t, "(0 1 2)", v.String())
}

func TestSession_InitFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.clj")
	require.NoError(t, os.WriteFile(path, []byte("(defn sq [n] (* n n))\n(def base 10)\n"), 0o644))

	s := newTestSession(t, Config{Namespace: "user", InitFiles: []string{path}})

	v, err := s.EvalSource("(sq base)", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "100", v.String())
}

func TestSession_InitFileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.clj")
	require.NoError(t, os.WriteFile(path, []byte("(undefined-fn)\n"), 0o644))

	_, err := New(Config{Namespace: "user", StatePath: ":memory:", InitFiles: []string{path}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate")
}

func TestSession_NamespaceSwitch(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "scratch"})
	assert.Equal(t, "scratch", s.Namespace())

	s.SetNamespace("user")
	assert.Equal(t, "user", s.Namespace())
}

func TestSession_ClearShadows(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})
	s.Eval(shadow.Request{Expr: "1", Context: "[x 1]"})
	s.Eval(shadow.Request{Expr: "2", Context: "[y 2]"})

	assert.Equal(t, 2, s.ClearShadows())
	assert.Empty(t, s.Shadows().Names("user"))
	assert.Equal(t, 0, s.ClearShadows())
}

func TestSession_SnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")

	s := newTestSession(t, Config{Namespace: "user", StatePath: statePath})
	s.Eval(shadow.Request{Expr: "(range 4)", Context: "[xs (range 4)]"})
	s.Eval(shadow.Request{Expr: `{:a 1}`, Context: "[m {:a 1}]"})

	snap, n, err := s.SaveSnapshot("checkpoint")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "checkpoint", snap.Label)

	s.ClearShadows()
	require.Empty(t, s.Shadows().Names("user"))

	restored, err := s.LoadSnapshot("")
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	v, ok := s.Shadows().Get("user", "xs")
	require.True(t, ok)
	assert.Equal(t, "(0 1 2 3)", v.String())

	// Restored shadows resolve in later evaluations.
	res := s.Eval(shadow.Request{Expr: "(count xs)", Context: "[xs (range 4) n (count xs)]"})
	require.Empty(t, res.Err)
	assert.Equal(t, "{n 4}", res.Display())
}

func TestSession_SnapshotSkipsFunctions(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})
	s.Eval(shadow.Request{Expr: "(fn [x] x)", Context: "[f (fn [x] x)]"})
	s.Eval(shadow.Request{Expr: "1", Context: "[x 1]"})

	_, n, err := s.SaveSnapshot("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSession_ListSnapshots(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})
	_, _, err := s.SaveSnapshot("a")
	require.NoError(t, err)
	_, _, err = s.SaveSnapshot("b")
	require.NoError(t, err)

	snaps, err := s.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "b", snaps[0].Label)
}

func TestSession_LoadSnapshotMissing(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})
	_, err := s.LoadSnapshot("")
	assert.ErrorContains(t, err, "no snapshots")
}

func TestSession_DeleteSnapshot(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})
	snap, _, err := s.SaveSnapshot("")
	require.NoError(t, err)

	require.NoError(t, s.DeleteSnapshot(snap.ID))
	assert.ErrorContains(t, s.DeleteSnapshot(snap.ID), "snapshot not found")
}

func TestSession_PurgeSnapshots(t *testing.T) {
	s := newTestSession(t, Config{Namespace: "user"})

	res := s.Eval(shadow.Request{Expr: "1", Context: "[x 1]"})
	require.Empty(t, res.Err)
	_, _, err := s.SaveSnapshot("a")
	require.NoError(t, err)
	_, _, err = s.SaveSnapshot("b")
	require.NoError(t, err)

	// The purge is scoped to the current namespace.
	s.SetNamespace("scratch")
	n, err := s.PurgeSnapshots()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	s.SetNamespace("user")
	n, err = s.PurgeSnapshots()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snaps, err := s.ListSnapshots()
	require.NoError(t, err)
	assert.Empty(t, snaps)

	_, err = s.LoadSnapshot("")
	assert.ErrorContains(t, err, "no snapshots")
}

func TestSession_PurgeSnapshotsDisabled(t *testing.T) {
	s, err := New(Config{Namespace: "user"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n, err := s.PurgeSnapshots()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
