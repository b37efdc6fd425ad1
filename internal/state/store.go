// Package state persists shadow snapshots to SQLite so a session's captured
// values survive process restarts. Values are stored as printed forms and
// rehydrated by the caller through the reader.
package state

import "time"

// Snapshot is a point-in-time copy of one namespace's shadows.
type Snapshot struct {
	ID        string
	Namespace string
	Label     string
	CreatedAt time.Time
}

// SnapshotStore is the persistence interface the REPL and CLI depend on.
type SnapshotStore interface {
	// SaveSnapshot stores entries (name to printed form) under a new
	// snapshot for the namespace.
	SaveSnapshot(namespace, label string, entries map[string]string) (*Snapshot, error)

	// LatestSnapshot returns the most recent snapshot for the namespace,
	// or nil when none exists.
	LatestSnapshot(namespace string) (*Snapshot, error)

	// ListSnapshots returns all snapshots for the namespace, newest first.
	ListSnapshots(namespace string) ([]*Snapshot, error)

	// SnapshotEntries returns a snapshot's name-to-printed-form entries.
	SnapshotEntries(id string) (map[string]string, error)

	// DeleteSnapshot removes a snapshot and its entries.
	DeleteSnapshot(id string) error

	Close() error
}
