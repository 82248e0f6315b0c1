// Package sqlite persists the in-memory state to a single SQLite table as
// JSON buckets, snapshotting after every successful mutation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"scormhost/internal/domain"
	"scormhost/internal/persistence/memory"
)

// Compile-time contract assertion.
var _ domain.Store = (*Store)(nil)

const (
	bucketPackages = "packages"
	bucketSessions = "sessions"
)

// Store is a snapshotting SQLite-backed persistent store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the
// in-memory state from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "scormhost.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot memory.Snapshot
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		switch bucket {
		case bucketPackages:
			if err := json.Unmarshal(payload, &snapshot.Packages); err != nil {
				return fmt.Errorf("decode packages: %w", err)
			}
		case bucketSessions:
			if err := json.Unmarshal(payload, &snapshot.Sessions); err != nil {
				return fmt.Errorf("decode sessions: %w", err)
			}
		}
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for bucket, v := range map[string]any{
		bucketPackages: snapshot.Packages,
		bucketSessions: snapshot.Sessions,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// SavePackage inserts a catalog row and snapshots to disk.
func (s *Store) SavePackage(ctx context.Context, record domain.PackageRecord) (string, error) {
	id, err := s.Store.SavePackage(ctx, record)
	if err != nil {
		return id, err
	}
	return id, s.persist()
}

// DeletePackage removes a catalog row and snapshots to disk.
func (s *Store) DeletePackage(ctx context.Context, id string) (bool, error) {
	existed, err := s.Store.DeletePackage(ctx, id)
	if err != nil || !existed {
		return existed, err
	}
	return existed, s.persist()
}

// PutSession upserts a session snapshot and snapshots to disk.
func (s *Store) PutSession(ctx context.Context, snapshot domain.SessionSnapshot) error {
	if err := s.Store.PutSession(ctx, snapshot); err != nil {
		return err
	}
	return s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
