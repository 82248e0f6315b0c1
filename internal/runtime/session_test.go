package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scormhost/internal/domain"
)

type fakeSessionStore struct {
	mu        sync.Mutex
	snapshots map[string]domain.SessionSnapshot
	puts      int
	failPuts  bool
	failGets  bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{snapshots: make(map[string]domain.SessionSnapshot)}
}

func (s *fakeSessionStore) GetSession(_ context.Context, sessionID string) (domain.SessionSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGets {
		return domain.SessionSnapshot{}, false, errors.New("store offline")
	}
	snap, ok := s.snapshots[sessionID]
	return snap.Clone(), ok, nil
}

func (s *fakeSessionStore) PutSession(_ context.Context, snap domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts {
		return errors.New("store offline")
	}
	s.puts++
	s.snapshots[snap.SessionID] = snap.Clone()
	return nil
}

func (s *fakeSessionStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func TestManagerCreateAndReuse(t *testing.T) {
	m := NewManager(newFakeSessionStore())
	ctx := context.Background()

	dm, err := m.CreateSession(ctx, "sess-1", "pkg-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if dm.PackageID() != "pkg-1" {
		t.Fatalf("package id = %q", dm.PackageID())
	}
	again, err := m.CreateSession(ctx, "sess-1", "pkg-other")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if again != dm {
		t.Fatal("second create returned a different model")
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("active = %d", m.ActiveSessions())
	}
	if _, ok := m.GetSession("sess-1"); !ok {
		t.Fatal("GetSession miss")
	}
	if !m.RemoveSession("sess-1") {
		t.Fatal("RemoveSession = false")
	}
	if m.RemoveSession("sess-1") {
		t.Fatal("second RemoveSession = true")
	}
	if m.ActiveSessions() != 0 {
		t.Fatalf("active = %d", m.ActiveSessions())
	}
}

func TestManagerRequiresSessionID(t *testing.T) {
	m := NewManager(newFakeSessionStore())
	if _, err := m.CreateSession(context.Background(), "", "pkg-1"); err == nil {
		t.Fatal("empty session id accepted")
	}
}

func TestManagerHydratesPersistedSession(t *testing.T) {
	store := newFakeSessionStore()
	store.snapshots["sess-1"] = domain.SessionSnapshot{
		SessionID: "sess-1",
		PackageID: "pkg-1",
		DataModel: map[string]string{
			"cmi.location":            "page-4",
			"cmi.suspend_data":        "state-blob",
			"cmi.interactions._count": "1",
		},
		Interactions: []map[string]string{{"id": "q1"}},
	}
	m := NewManager(store)

	dm, err := m.CreateSession(context.Background(), "sess-1", "pkg-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if got := dm.Initialize(""); got != "true" {
		t.Fatalf("Initialize = %q", got)
	}
	if got := dm.GetValue("cmi.entry"); got != "resume" {
		t.Fatalf("entry = %q, want resume", got)
	}
	if got := dm.GetValue("cmi.location"); got != "page-4" {
		t.Fatalf("location = %q", got)
	}
	if got := dm.GetValue("cmi.interactions.0.id"); got != "q1" {
		t.Fatalf("interaction = %q", got)
	}
}

func TestManagerFreshSessionStartsAbInitio(t *testing.T) {
	m := NewManager(newFakeSessionStore())
	dm, err := m.CreateSession(context.Background(), "sess-new", "pkg-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	dm.Initialize("")
	if got := dm.GetValue("cmi.entry"); got != "ab-initio" {
		t.Fatalf("entry = %q", got)
	}
}

func TestManagerHydrationFailureSurfaces(t *testing.T) {
	store := newFakeSessionStore()
	store.failGets = true
	m := NewManager(store)
	if _, err := m.CreateSession(context.Background(), "sess-1", "pkg-1"); err == nil {
		t.Fatal("store error swallowed")
	}
}

func TestCommitPersistsThroughManager(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store)
	dm, err := m.CreateSession(context.Background(), "sess-1", "pkg-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	dm.Initialize("")
	dm.SetValue("cmi.location", "page-2")
	if got := dm.Commit(""); got != "true" {
		t.Fatalf("Commit = %q, error %s", got, dm.GetLastError())
	}
	if store.putCount() != 1 {
		t.Fatalf("puts = %d", store.putCount())
	}
	snap, ok, _ := store.GetSession(context.Background(), "sess-1")
	if !ok || snap.DataModel["cmi.location"] != "page-2" {
		t.Fatalf("persisted = %+v, %v", snap, ok)
	}

	// Nothing dirty: commit succeeds without another write.
	if got := dm.Commit(""); got != "true" {
		t.Fatalf("idempotent Commit = %q", got)
	}
	if store.putCount() != 1 {
		t.Fatalf("puts after clean commit = %d", store.putCount())
	}
}

func TestTerminateFlushesImplicitly(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store)
	dm, _ := m.CreateSession(context.Background(), "sess-1", "pkg-1")
	dm.Initialize("")
	dm.SetValue("cmi.completion_status", "completed")
	if got := dm.Terminate(""); got != "true" {
		t.Fatalf("Terminate = %q", got)
	}
	if store.putCount() != 1 {
		t.Fatalf("puts = %d", store.putCount())
	}
	snap, _, _ := store.GetSession(context.Background(), "sess-1")
	if snap.DataModel["cmi.completion_status"] != "completed" {
		t.Fatalf("persisted = %+v", snap.DataModel)
	}
}

func TestCommitFailureReportsProtocolCode(t *testing.T) {
	store := newFakeSessionStore()
	store.failPuts = true
	m := NewManager(store)
	dm, _ := m.CreateSession(context.Background(), "sess-1", "pkg-1")
	dm.Initialize("")
	dm.SetValue("cmi.location", "x")
	if got := dm.Commit(""); got != "false" {
		t.Fatalf("Commit = %q", got)
	}
	if code := dm.GetLastError(); code != ErrGeneralCommitFailure {
		t.Fatalf("last error = %s", code)
	}
	// Dirty state survives the failed flush and lands on the next commit.
	store.failPuts = false
	if got := dm.Commit(""); got != "true" {
		t.Fatalf("retry Commit = %q", got)
	}
	if store.putCount() != 1 {
		t.Fatalf("puts = %d", store.putCount())
	}
}

func TestTerminateFlushFailureStillTerminates(t *testing.T) {
	store := newFakeSessionStore()
	store.failPuts = true
	m := NewManager(store)
	dm, _ := m.CreateSession(context.Background(), "sess-1", "pkg-1")
	dm.Initialize("")
	dm.SetValue("cmi.location", "x")
	if got := dm.Terminate(""); got != "false" {
		t.Fatalf("Terminate = %q", got)
	}
	if code := dm.GetLastError(); code != ErrGeneralTermination {
		t.Fatalf("last error = %s", code)
	}
	if dm.State() != StateTerminated {
		t.Fatalf("state = %v", dm.State())
	}
}

func TestPipelineForgetAndFlushWithoutStore(t *testing.T) {
	p := NewCommitPipeline(nil)
	if err := p.Flush(context.Background(), domain.SessionSnapshot{SessionID: "s"}); err == nil {
		t.Fatal("flush without store succeeded")
	}
	p = NewCommitPipeline(newFakeSessionStore())
	if err := p.Flush(context.Background(), domain.SessionSnapshot{SessionID: "s"}); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	p.Forget("s")
	if err := p.Flush(context.Background(), domain.SessionSnapshot{SessionID: "s"}); err != nil {
		t.Fatalf("Flush after Forget: %v", err)
	}
}
