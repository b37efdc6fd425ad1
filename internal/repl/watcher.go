package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/replforge/shadowlet/internal/session"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 200 * time.Millisecond

// watchInitFiles re-evaluates init files when they change on disk. Watching
// stops when ctx is cancelled.
func watchInitFiles(ctx context.Context, s *session.Session, files []string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watched := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		watched[abs] = true
		// Watch the directory: editors often replace the file on save,
		// which drops a watch on the file itself.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", abs, err)
		}
	}

	go func() {
		defer func() { _ = watcher.Close() }()

		var debounce *time.Timer
		var debounceC <-chan time.Time
		pending := make(map[string]bool)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil {
					abs = event.Name
				}
				if !watched[abs] {
					continue
				}

				pending[abs] = true
				if debounce == nil {
					debounce = time.NewTimer(debounceDelay)
				} else {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(debounceDelay)
				}
				debounceC = debounce.C

			case <-debounceC:
				debounceC = nil
				for path := range pending {
					if err := s.LoadFile(path); err != nil {
						logger.Warn("failed to reload init file", "path", path, "err", err)
						continue
					}
					logger.Info("reloaded init file", "path", path)
				}
				pending = make(map[string]bool)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "err", err)
			}
		}
	}()

	return nil
}
