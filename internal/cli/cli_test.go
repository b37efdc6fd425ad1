package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProject creates a project dir with a config that keeps state on disk
// in the temp dir, and returns the config path.
func newTestProject(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := "state_path: state.db\n" + extra
	path := filepath.Join(dir, "shadowlet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestEvalCommand_Plain(t *testing.T) {
	cfg := newTestProject(t, "")
	out, err := execute(t, "--config", cfg, "eval", "(+ 1 2)")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestEvalCommand_Error(t *testing.T) {
	cfg := newTestProject(t, "")
	out, err := execute(t, "--config", cfg, "eval", "(/ 1 0)")
	require.NoError(t, err)
	assert.Contains(t, out, "error: ")
}

func TestEvalCommand_ShadowsPersistAcrossInvocations(t *testing.T) {
	cfg := newTestProject(t, "")

	out, err := execute(t, "--config", cfg, "eval", "(range 10)", "--context", "[x1 (range 10)]")
	require.NoError(t, err)
	assert.Contains(t, out, "{x1 (0 1 2 3 4 5 6 7 8 9)}")

	// A separate invocation sees x1 through the auto snapshot.
	out, err = execute(t, "--config", cfg, "eval", "(count x1)", "--context", "[x1 (range 10) n (count x1)]")
	require.NoError(t, err)
	assert.Contains(t, out, "{n 10}")
}

func TestEvalCommand_WithInitFile(t *testing.T) {
	cfg := newTestProject(t, "init_files:\n  - init.clj\n")
	dir := filepath.Dir(cfg)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.clj"),
		[]byte("(defn sq [n] (* n n))\n"), 0o644))

	out, err := execute(t, "--config", cfg, "eval", "(map sq x1)",
		"--context", "[x1 (range 3) x2 (map sq x1)]")
	require.NoError(t, err)
	// x1 was never shadowed, so the expression fails displayably.
	assert.Contains(t, out, "error: ")

	_, err = execute(t, "--config", cfg, "eval", "(range 3)", "--context", "[x1 (range 3)]")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfg, "eval", "(map sq x1)",
		"--context", "[x1 (range 3) x2 (map sq x1)]")
	require.NoError(t, err)
	assert.Contains(t, out, "{x2 (0 1 4)}")
}

func TestShadowsCommand(t *testing.T) {
	cfg := newTestProject(t, "")

	out, err := execute(t, "--config", cfg, "shadows")
	require.NoError(t, err)
	assert.Contains(t, out, "No shadows in user")

	_, err = execute(t, "--config", cfg, "eval", "1", "--context", "[x 1]")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfg, "shadows", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "x\t1")
}

func TestEvalCommand_JSONOutput(t *testing.T) {
	cfg := newTestProject(t, "")

	out, err := execute(t, "--config", cfg, "-o", "json", "eval", "(range 3)", "--context", "[xs (range 3)]")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"xs": "(0 1 2)"}, got)

	out, err = execute(t, "--config", cfg, "-o", "json", "eval", "(+ 1 2)")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"value": "3"}, got)

	out, err = execute(t, "--config", cfg, "-o", "json", "eval", "(/ 1 0)")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got["error"], "error: ")
}

func TestShadowsCommand_JSONOutput(t *testing.T) {
	cfg := newTestProject(t, "")

	out, err := execute(t, "--config", cfg, "shadows", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "{}\n", out)

	_, err = execute(t, "--config", cfg, "eval", "1", "--context", "[x 1]")
	require.NoError(t, err)

	out, err = execute(t, "--config", cfg, "shadows", "-o", "json")
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"x": "1"}, got)
}

func TestShadowsClearCommand(t *testing.T) {
	cfg := newTestProject(t, "")

	_, err := execute(t, "--config", cfg, "eval", "1", "--context", "[x 1]")
	require.NoError(t, err)

	out, err := execute(t, "--config", cfg, "shadows", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 shadows in user")

	// Clearing also purges snapshots, so the shadow stays gone in later
	// invocations instead of being restored from the auto snapshot.
	out, err = execute(t, "--config", cfg, "shadows")
	require.NoError(t, err)
	assert.Contains(t, out, "No shadows in user")

	out, err = execute(t, "--config", cfg, "eval", "(inc x)", "--context", "[x 1 y (inc x)]")
	require.NoError(t, err)
	assert.Contains(t, out, "error: ")
}

func TestSnapshotCommands(t *testing.T) {
	cfg := newTestProject(t, "")

	_, err := execute(t, "--config", cfg, "eval", "(range 3)", "--context", "[xs (range 3)]")
	require.NoError(t, err)

	saveOut, err := execute(t, "--config", cfg, "snapshot", "save", "--label", "checkpoint")
	require.NoError(t, err)
	assert.Contains(t, saveOut, "Saved snapshot")

	out, err := execute(t, "--config", cfg, "snapshot", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "checkpoint")

	out, err = execute(t, "--config", cfg, "snapshot", "load")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 shadows into user")

	// "Saved snapshot <id> (1 shadows)"
	id := strings.Fields(saveOut)[2]
	out, err = execute(t, "--config", cfg, "snapshot", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted snapshot "+id)

	out, err = execute(t, "--config", cfg, "snapshot", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "checkpoint")

	_, err = execute(t, "--config", cfg, "snapshot", "delete", id)
	assert.ErrorContains(t, err, "snapshot not found")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "proj")

	out, err := execute(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized shadowlet project")

	assert.FileExists(t, filepath.Join(target, "shadowlet.yaml"))
	assert.FileExists(t, filepath.Join(target, "init.clj"))
	assert.DirExists(t, filepath.Join(target, ".shadowlet"))

	// Second init without --force fails.
	_, err = execute(t, "init", target)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "init", target, "--force")
	assert.NoError(t, err)
}

func TestNamespaceFlag(t *testing.T) {
	cfg := newTestProject(t, "")
	out, err := execute(t, "--config", cfg, "-n", "scratch", "eval", "1", "--context", "[x 1]")
	require.NoError(t, err)
	assert.Contains(t, out, "{x 1}")

	out, err = execute(t, "--config", cfg, "-n", "scratch", "shadows", "-o", "plain")
	require.NoError(t, err)
	assert.Contains(t, out, "x\t1")

	// The default namespace has no shadows.
	out, err = execute(t, "--config", cfg, "shadows")
	require.NoError(t, err)
	assert.Contains(t, out, "No shadows in user")
}
