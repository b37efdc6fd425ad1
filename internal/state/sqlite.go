package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements SnapshotStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite snapshot store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema initializes the database schema.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// SaveSnapshot stores entries under a new snapshot for the namespace.
func (s *SQLiteStore) SaveSnapshot(namespace, label string, entries map[string]string) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	snap := &Snapshot{
		ID:        generateID(),
		Namespace: namespace,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, namespace, label, created_at) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.Namespace, snap.Label, snap.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for name, printed := range entries {
		_, err = tx.Exec(
			`INSERT INTO snapshot_entries (snapshot_id, name, printed) VALUES (?, ?, ?)`,
			snap.ID, name, printed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert snapshot entry %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return snap, nil
}

// LatestSnapshot retrieves the most recent snapshot for a namespace.
func (s *SQLiteStore) LatestSnapshot(namespace string) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	snap := &Snapshot{}
	err := s.db.QueryRow(
		`SELECT id, namespace, label, created_at
		 FROM snapshots WHERE namespace = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		namespace,
	).Scan(&snap.ID, &snap.Namespace, &snap.Label, &snap.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil // No snapshots found, return nil without error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return snap, nil
}

// ListSnapshots retrieves all snapshots for a namespace, newest first.
func (s *SQLiteStore) ListSnapshots(namespace string) ([]*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, namespace, label, created_at
		 FROM snapshots WHERE namespace = ? ORDER BY created_at DESC, rowid DESC`,
		namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap := &Snapshot{}
		if err := rows.Scan(&snap.ID, &snap.Namespace, &snap.Label, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// SnapshotEntries retrieves a snapshot's name-to-printed-form entries.
func (s *SQLiteStore) SnapshotEntries(id string) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM snapshots WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up snapshot: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT name, printed FROM snapshot_entries WHERE snapshot_id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var name, printed string
		if err := rows.Scan(&name, &printed); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		entries[name] = printed
	}

	return entries, rows.Err()
}

// DeleteSnapshot removes a snapshot and its entries.
func (s *SQLiteStore) DeleteSnapshot(id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("snapshot not found: %s", id)
	}

	return nil
}

// Ensure SQLiteStore implements SnapshotStore interface
var _ SnapshotStore = (*SQLiteStore)(nil)
