// Package memory provides the authoritative in-memory store for package
// catalog rows and session snapshots. The sqlite and postgres stores embed
// it and persist its exported state after each mutation.
package memory

import (
	"context"
	"fmt"
	"sync"

	"scormhost/internal/domain"
)

// Compile-time contract assertion.
var _ domain.Store = (*Store)(nil)

// Store keeps catalog and session state in process memory.
type Store struct {
	mu       sync.RWMutex
	packages map[string]domain.PackageRecord
	sessions map[string]domain.SessionSnapshot
}

// Snapshot is the full serializable state, used by the durable stores.
type Snapshot struct {
	Packages map[string]domain.PackageRecord   `json:"packages"`
	Sessions map[string]domain.SessionSnapshot `json:"sessions"`
}

// New returns an empty store.
func New() *Store {
	return &Store{
		packages: make(map[string]domain.PackageRecord),
		sessions: make(map[string]domain.SessionSnapshot),
	}
}

// SavePackage inserts a catalog row. A record with the same id, or the same
// package identifier within the same course, is rejected rather than
// overwritten.
func (s *Store) SavePackage(ctx context.Context, record domain.PackageRecord) (string, error) {
	if record.ID == "" {
		return "", fmt.Errorf("package id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.packages[record.ID]; exists {
		return "", fmt.Errorf("package %s: %w", record.ID, domain.ErrDuplicatePackage)
	}
	for _, existing := range s.packages {
		if existing.CourseID == record.CourseID && existing.Identifier == record.Identifier {
			return "", fmt.Errorf("identifier %s in course %s: %w", record.Identifier, record.CourseID, domain.ErrDuplicatePackage)
		}
	}
	s.packages[record.ID] = record
	return record.ID, nil
}

// GetPackage returns a catalog row by id.
func (s *Store) GetPackage(ctx context.Context, id string) (domain.PackageRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.packages[id]
	return record, ok, nil
}

// DeletePackage removes a catalog row, reporting whether it existed.
// Session history is untouched.
func (s *Store) DeletePackage(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.packages[id]
	delete(s.packages, id)
	return existed, nil
}

// GetSession returns a persisted session snapshot by session id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.SessionSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[sessionID]
	if !ok {
		return domain.SessionSnapshot{}, false, nil
	}
	return snap.Clone(), true, nil
}

// PutSession upserts a session snapshot.
func (s *Store) PutSession(ctx context.Context, snapshot domain.SessionSnapshot) error {
	if snapshot.SessionID == "" {
		return fmt.Errorf("session id required")
	}
	s.mu.Lock()
	s.sessions[snapshot.SessionID] = snapshot.Clone()
	s.mu.Unlock()
	return nil
}

// ExportState returns a deep copy of the full store state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Packages: make(map[string]domain.PackageRecord, len(s.packages)),
		Sessions: make(map[string]domain.SessionSnapshot, len(s.sessions)),
	}
	for id, record := range s.packages {
		snap.Packages[id] = record
	}
	for id, sess := range s.sessions {
		snap.Sessions[id] = sess.Clone()
	}
	return snap
}

// ImportState replaces the store state with the given snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packages = make(map[string]domain.PackageRecord, len(snap.Packages))
	s.sessions = make(map[string]domain.SessionSnapshot, len(snap.Sessions))
	for id, record := range snap.Packages {
		s.packages[id] = record
	}
	for id, sess := range snap.Sessions {
		s.sessions[id] = sess.Clone()
	}
}
