package repl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replforge/shadowlet/internal/session"
	"github.com/replforge/shadowlet/internal/testutil"
)

// newTestLoop builds a loop with no readline instance so dot-commands can be
// driven directly.
func newTestLoop(t *testing.T) (*loop, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	s, err := session.New(session.Config{StatePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	return &loop{s: s, opts: Options{Output: "plain", Stdout: stdout, Stderr: stderr}}, stdout, stderr
}

func TestDotCommand_Quit(t *testing.T) {
	r, _, _ := newTestLoop(t)
	assert.True(t, r.dotCommand(".quit"))
	assert.True(t, r.dotCommand(".exit"))
	assert.False(t, r.dotCommand(".help"))
}

func TestDotCommand_Namespace(t *testing.T) {
	r, stdout, _ := newTestLoop(t)

	r.dotCommand(".ns")
	assert.Equal(t, "user\n", stdout.String())

	r.dotCommand(".ns scratch")
	assert.Equal(t, "scratch", r.s.Namespace())
}

func TestDotCommand_Unknown(t *testing.T) {
	r, _, stderr := newTestLoop(t)
	r.dotCommand(".bogus")
	assert.Contains(t, stderr.String(), "Unknown command: .bogus")
}

func TestDotCommand_Shadows(t *testing.T) {
	r, stdout, _ := newTestLoop(t)

	r.dotCommand(".shadows")
	assert.Contains(t, stdout.String(), "no shadows in user")
	stdout.Reset()

	r.shadowEval("[x 1] | 1")
	r.dotCommand(".shadows")
	assert.Contains(t, stdout.String(), "x 1")
}

func TestDotCommand_ShadowsTable(t *testing.T) {
	r, stdout, _ := newTestLoop(t)
	r.opts.Output = "table"

	r.shadowEval("[x 1] | 1")
	stdout.Reset()
	r.dotCommand(".shadows")
	assert.Contains(t, stdout.String(), "NAME")
	assert.Contains(t, stdout.String(), "VALUE")
}

func TestDotCommand_ClearShadows(t *testing.T) {
	r, stdout, _ := newTestLoop(t)

	r.shadowEval("[x 1] | 1")
	r.shadowEval("[y 2] | 2")
	stdout.Reset()

	r.dotCommand(".clear-shadows")
	assert.Contains(t, stdout.String(), "cleared 2 shadows")
	assert.Empty(t, r.s.Shadows().Names("user"))
}

func TestDotCommand_SaveLoad(t *testing.T) {
	r, stdout, stderr := newTestLoop(t)

	r.shadowEval("[xs (range 3)] | (range 3)")
	stdout.Reset()

	r.dotCommand(".save checkpoint")
	assert.Contains(t, stdout.String(), "saved snapshot")
	stdout.Reset()

	r.dotCommand(".clear-shadows")
	stdout.Reset()

	r.dotCommand(".load")
	assert.Contains(t, stdout.String(), "restored 1 shadows")
	assert.Empty(t, stderr.String())

	v, ok := r.s.Shadows().Get("user", "xs")
	require.True(t, ok)
	assert.Equal(t, "(0 1 2)", v.String())
}

func TestDotCommand_LoadMissing(t *testing.T) {
	r, _, stderr := newTestLoop(t)
	r.dotCommand(".load nope")
	assert.Contains(t, stderr.String(), "error: ")
}

func TestDotCommand_LoadFile(t *testing.T) {
	r, stdout, stderr := newTestLoop(t)

	path := filepath.Join(t.TempDir(), "init.clj")
	require.NoError(t, os.WriteFile(path, []byte("(defn sq [n] (* n n))\n"), 0o644))

	r.dotCommand(".load-file " + path)
	assert.Contains(t, stdout.String(), "loaded "+path)

	v, err := r.s.EvalSource("(sq 6)", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "36", v.String())

	stderr.Reset()
	r.dotCommand(".load-file")
	assert.Contains(t, stderr.String(), "Usage: .load-file")
}

func TestShadowEval(t *testing.T) {
	r, stdout, _ := newTestLoop(t)

	r.shadowEval("[x1 (range 10)] | (range 10)")
	assert.Contains(t, stdout.String(), "{x1 (0 1 2 3 4 5 6 7 8 9)}")

	v, ok := r.s.Shadows().Get("user", "x1")
	require.True(t, ok)
	assert.Equal(t, "(0 1 2 3 4 5 6 7 8 9)", v.String())

	// Trailing binding names the destination once earlier shadows exist.
	stdout.Reset()
	r.shadowEval("[x1 (range 10) n (count x1)] | (count x1)")
	assert.Contains(t, stdout.String(), "{n 10}")
}

func TestShadowEval_NoContext(t *testing.T) {
	r, stdout, _ := newTestLoop(t)
	r.shadowEval(" | (+ 1 2)")
	assert.Contains(t, stdout.String(), "3")
	assert.Empty(t, r.s.Shadows().Names("user"))
}

func TestShadowEval_Usage(t *testing.T) {
	r, _, stderr := newTestLoop(t)
	r.shadowEval("(+ 1 2)")
	assert.Contains(t, stderr.String(), "Usage: .shadow")
}

func TestShadowEval_Error(t *testing.T) {
	r, _, stderr := newTestLoop(t)
	r.shadowEval("[x (oops)] | (oops)")
	assert.Contains(t, stderr.String(), "error: ")
}

func TestPrintHelp(t *testing.T) {
	r, stdout, _ := newTestLoop(t)
	r.printHelp()
	for _, cmd := range []string{".ns", ".shadows", ".shadow", ".save", ".load-file", ".quit"} {
		assert.Contains(t, stdout.String(), cmd)
	}
}

func TestNewCompleter(t *testing.T) {
	s, err := session.New(session.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, errEval := s.EvalSource("(def answer 42)", "", 1)
	require.NoError(t, errEval)

	c := newCompleter(s)
	require.NotNil(t, c)
	assert.Contains(t, s.VisibleNames(), "answer")
}

func TestWatchInitFiles_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init.clj")
	require.NoError(t, os.WriteFile(path, []byte("(def answer 1)\n"), 0o644))

	s, err := session.New(session.Config{InitFiles: []string{path}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, watchInitFiles(ctx, s, []string{path}, testutil.NewTestLogger(t)))

	require.NoError(t, os.WriteFile(path, []byte("(def answer 2)\n"), 0o644))

	require.Eventually(t, func() bool {
		v, evalErr := s.EvalSource("answer", "", 1)
		return evalErr == nil && v.String() == "2"
	}, 3*time.Second, 50*time.Millisecond)
}
