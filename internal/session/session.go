// Package session wires the runtime, shadow store and snapshot persistence
// into one evaluation session shared by the CLI and the REPL.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/replforge/shadowlet/internal/interp"
	"github.com/replforge/shadowlet/internal/shadow"
	"github.com/replforge/shadowlet/internal/state"
	"github.com/replforge/shadowlet/pkg/sexp"
)

// Config holds session configuration.
type Config struct {
	// Namespace is the namespace the session starts in.
	Namespace string
	// StatePath is the path to the SQLite snapshot database. Empty disables
	// persistence; ":memory:" keeps it in-process.
	StatePath string
	// InitFiles are evaluated in order before the session is handed out.
	InitFiles []string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Session owns one runtime, its shadow store, and the snapshot store. All
// evaluation goes through the session so the init-file watcher and the
// interactive loop never race on the runtime.
type Session struct {
	mu        sync.Mutex
	logger    *slog.Logger
	rt        *interp.Runtime
	rewriter  *shadow.Rewriter
	snapshots state.SnapshotStore
	initFiles []string
}

// New creates a session, opens the snapshot store and evaluates init files.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("initializing session", "namespace", cfg.Namespace, "state_path", cfg.StatePath)

	rt := interp.NewRuntime()
	if cfg.Namespace != "" {
		rt.SetCurrent(cfg.Namespace)
	}

	s := &Session{
		logger:    logger,
		rt:        rt,
		rewriter:  shadow.NewRewriter(rt, shadow.NewStore()),
		initFiles: cfg.InitFiles,
	}

	if cfg.StatePath != "" {
		if cfg.StatePath != ":memory:" {
			if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return nil, fmt.Errorf("failed to create state directory: %w", err)
				}
			}
		}
		store := state.NewSQLiteStore()
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open snapshot store: %w", err)
		}
		if err := store.InitSchema(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
		}
		s.snapshots = store
	}

	if err := s.LoadInitFiles(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the snapshot store.
func (s *Session) Close() error {
	if s.snapshots != nil {
		return s.snapshots.Close()
	}
	return nil
}

// Runtime returns the session's runtime.
func (s *Session) Runtime() *interp.Runtime { return s.rt }

// Shadows returns the session's shadow store.
func (s *Session) Shadows() *shadow.Store { return s.rewriter.Store() }

// Namespace returns the current namespace name.
func (s *Session) Namespace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.Current().Name()
}

// SetNamespace switches the current namespace.
func (s *Session) SetNamespace(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rt.SetCurrent(name)
}

// VisibleNames returns every name resolvable from the current namespace plus
// its shadows, for completion.
func (s *Session) VisibleNames() []string {
	s.mu.Lock()
	names := s.rt.VisibleNames()
	ns := s.rt.Current().Name()
	s.mu.Unlock()
	return append(names, s.Shadows().Names(ns)...)
}

// Eval runs one shadow evaluation.
func (s *Session) Eval(req shadow.Request) shadow.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.rewriter.Eval(req)
	if res.Err != "" {
		s.logger.Debug("evaluation failed", "expr", req.Expr, "err", res.Err)
	}
	return res
}

// EvalSource evaluates source directly in the current namespace, without any
// shadow handling. Used for init files and plain REPL input.
func (s *Session) EvalSource(src, file string, line int) (interp.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rt.EvalString(src, file, line)
}

// LoadInitFiles evaluates every configured init file in order.
func (s *Session) LoadInitFiles() error {
	for _, path := range s.initFiles {
		if err := s.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads and evaluates one source file in the current namespace.
func (s *Session) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read init file: %w", err)
	}
	if _, err := s.EvalSource(string(src), path, 1); err != nil {
		return fmt.Errorf("failed to evaluate %s: %w", path, err)
	}
	s.logger.Debug("loaded init file", "path", path)
	return nil
}

// ClearShadows removes every shadow in the current namespace and returns how
// many were removed.
func (s *Session) ClearShadows() int {
	return s.Shadows().Clear(s.Namespace())
}

// SaveSnapshot persists the current namespace's shadows under a new snapshot.
// Function values cannot be rehydrated and are skipped. Returns the snapshot
// and how many entries it holds.
func (s *Session) SaveSnapshot(label string) (*state.Snapshot, int, error) {
	if s.snapshots == nil {
		return nil, 0, fmt.Errorf("snapshot persistence is disabled")
	}
	ns := s.Namespace()

	entries := make(map[string]string)
	for name, v := range s.Shadows().Snapshot(ns) {
		if v.Kind == interp.KindFn || v.Kind == interp.KindBuiltin {
			s.logger.Debug("skipping function shadow in snapshot", "name", name)
			continue
		}
		entries[name] = v.String()
	}

	snap, err := s.snapshots.SaveSnapshot(ns, label, entries)
	if err != nil {
		return nil, 0, err
	}
	s.logger.Debug("saved snapshot", "id", snap.ID, "entries", len(entries))
	return snap, len(entries), nil
}

// LoadSnapshot restores shadows from a snapshot into the current namespace.
// With an empty id, the namespace's latest snapshot is used. Returns how many
// shadows were restored.
func (s *Session) LoadSnapshot(id string) (int, error) {
	if s.snapshots == nil {
		return 0, fmt.Errorf("snapshot persistence is disabled")
	}
	ns := s.Namespace()

	if id == "" {
		snap, err := s.snapshots.LatestSnapshot(ns)
		if err != nil {
			return 0, err
		}
		if snap == nil {
			return 0, fmt.Errorf("no snapshots for namespace %s", ns)
		}
		id = snap.ID
	}

	entries, err := s.snapshots.SnapshotEntries(id)
	if err != nil {
		return 0, err
	}

	restored := 0
	for name, printed := range entries {
		f, err := sexp.ReadOne(printed, "", 1)
		if err != nil {
			return restored, fmt.Errorf("snapshot entry %s is unreadable: %w", name, err)
		}
		s.Shadows().Set(ns, name, interp.LiteralValue(f))
		restored++
	}
	return restored, nil
}

// DeleteSnapshot removes one persisted snapshot.
func (s *Session) DeleteSnapshot(id string) error {
	if s.snapshots == nil {
		return fmt.Errorf("snapshot persistence is disabled")
	}
	return s.snapshots.DeleteSnapshot(id)
}

// PurgeSnapshots deletes every persisted snapshot for the current namespace,
// so cleared shadows cannot resurface from an earlier save. Returns how many
// snapshots were deleted; with persistence disabled there is nothing to purge.
func (s *Session) PurgeSnapshots() (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}
	snaps, err := s.snapshots.ListSnapshots(s.Namespace())
	if err != nil {
		return 0, err
	}
	for i, snap := range snaps {
		if err := s.snapshots.DeleteSnapshot(snap.ID); err != nil {
			return i, err
		}
	}
	return len(snaps), nil
}

// ListSnapshots returns the current namespace's snapshots, newest first.
func (s *Session) ListSnapshots() ([]*state.Snapshot, error) {
	if s.snapshots == nil {
		return nil, fmt.Errorf("snapshot persistence is disabled")
	}
	return s.snapshots.ListSnapshots(s.Namespace())
}
