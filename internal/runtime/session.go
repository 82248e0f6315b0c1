package runtime

import (
	"context"
	"fmt"
	"sync"

	"scormhost/internal/domain"
)

// Manager is the process-wide registry of active playback sessions. Entries
// are created on session start and evicted only by explicit removal; the
// content frame may call back at arbitrary times, so nothing is dropped
// implicitly.
type Manager struct {
	store    domain.SessionStore
	pipeline *CommitPipeline
	logger   domain.Logger

	mu       sync.RWMutex
	sessions map[string]*DataModel
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger attaches a logger to the manager and the models it creates.
func WithLogger(logger domain.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager constructs a session registry over the given session store.
func NewManager(store domain.SessionStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		pipeline: NewCommitPipeline(store),
		logger:   domain.NopLogger{},
		sessions: make(map[string]*DataModel),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession returns the registered model for sessionID if one exists.
// Otherwise it constructs one, hydrated from persisted state when present
// with entry marked as resume, and registers it.
func (m *Manager) CreateSession(ctx context.Context, sessionID, packageID string) (*DataModel, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if dm, ok := m.sessions[sessionID]; ok {
		return dm, nil
	}

	var dm *DataModel
	if m.store != nil {
		snap, found, err := m.store.GetSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("hydrate session %s: %w", sessionID, err)
		}
		if found {
			dm = NewDataModelFromSnapshot(snap)
			dm.MarkResumed()
			m.logger.Info("session resumed", "session_id", sessionID, "package_id", dm.PackageID())
		}
	}
	if dm == nil {
		dm = NewDataModel(sessionID, packageID)
		m.logger.Info("session created", "session_id", sessionID, "package_id", packageID)
	}
	dm.bind(m.pipeline, m.logger, context.WithoutCancel(ctx))
	m.sessions[sessionID] = dm
	return dm, nil
}

// GetSession returns the in-memory model for a session id, if registered.
func (m *Manager) GetSession(sessionID string) (*DataModel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dm, ok := m.sessions[sessionID]
	return dm, ok
}

// RemoveSession evicts the in-memory model without touching persisted
// history. Returns whether an entry existed.
func (m *Manager) RemoveSession(sessionID string) bool {
	m.mu.Lock()
	_, existed := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if existed {
		m.pipeline.Forget(sessionID)
		m.logger.Info("session evicted", "session_id", sessionID)
	}
	return existed
}

// ActiveSessions reports the number of registered models.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
