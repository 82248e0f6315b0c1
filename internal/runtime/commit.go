package runtime

import (
	"context"
	"fmt"
	"sync"

	"scormhost/internal/domain"
)

// CommitPipeline flushes session snapshots to persistence. Flushes are
// serialized per session: a commit issued while another is in flight for the
// same session waits rather than interleaving, so the snapshot written last
// is always the one taken last.
type CommitPipeline struct {
	store domain.SessionStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCommitPipeline wraps a session store.
func NewCommitPipeline(store domain.SessionStore) *CommitPipeline {
	return &CommitPipeline{store: store, locks: make(map[string]*sync.Mutex)}
}

// Flush writes one snapshot as a single batch.
func (p *CommitPipeline) Flush(ctx context.Context, snap domain.SessionSnapshot) error {
	if p.store == nil {
		return fmt.Errorf("commit pipeline: no session store configured")
	}
	lock := p.lockFor(snap.SessionID)
	lock.Lock()
	defer lock.Unlock()
	if err := p.store.PutSession(ctx, snap); err != nil {
		return fmt.Errorf("persist session %s: %w", snap.SessionID, err)
	}
	return nil
}

func (p *CommitPipeline) lockFor(sessionID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[sessionID] = lock
	}
	return lock
}

// Forget drops the per-session lock after eviction.
func (p *CommitPipeline) Forget(sessionID string) {
	p.mu.Lock()
	delete(p.locks, sessionID)
	p.mu.Unlock()
}
