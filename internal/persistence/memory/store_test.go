package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"scormhost/internal/domain"
)

func record(id, courseID, identifier string) domain.PackageRecord {
	return domain.PackageRecord{
		ID:         id,
		CourseID:   courseID,
		Identifier: identifier,
		Title:      "Course",
		Version:    domain.SCORM2004,
		LaunchURL:  "index.html",
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSavePackageRejectsDuplicates(t *testing.T) {
	store := New()
	ctx := context.Background()

	id, err := store.SavePackage(ctx, record("p1", "c1", "com.example.a"))
	if err != nil || id != "p1" {
		t.Fatalf("SavePackage = %q, %v", id, err)
	}
	if _, err := store.SavePackage(ctx, record("p1", "c2", "com.example.b")); !errors.Is(err, domain.ErrDuplicatePackage) {
		t.Fatalf("duplicate id err = %v", err)
	}
	if _, err := store.SavePackage(ctx, record("p2", "c1", "com.example.a")); !errors.Is(err, domain.ErrDuplicatePackage) {
		t.Fatalf("duplicate identifier err = %v", err)
	}
	// Same identifier in a different course is fine.
	if _, err := store.SavePackage(ctx, record("p3", "c2", "com.example.a")); err != nil {
		t.Fatalf("cross-course save: %v", err)
	}
	if _, err := store.SavePackage(ctx, domain.PackageRecord{}); err == nil {
		t.Fatal("empty id accepted")
	}
}

func TestPackageLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.SavePackage(ctx, record("p1", "c1", "com.example.a")); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	got, found, err := store.GetPackage(ctx, "p1")
	if err != nil || !found || got.Identifier != "com.example.a" {
		t.Fatalf("GetPackage = %+v, %v, %v", got, found, err)
	}
	if _, found, _ := store.GetPackage(ctx, "ghost"); found {
		t.Fatal("ghost package found")
	}
	existed, err := store.DeletePackage(ctx, "p1")
	if err != nil || !existed {
		t.Fatalf("DeletePackage = %v, %v", existed, err)
	}
	existed, err = store.DeletePackage(ctx, "p1")
	if err != nil || existed {
		t.Fatalf("second DeletePackage = %v, %v", existed, err)
	}
}

func TestSessionUpsertAndIsolation(t *testing.T) {
	store := New()
	ctx := context.Background()
	snap := domain.SessionSnapshot{
		SessionID:    "s1",
		PackageID:    "p1",
		DataModel:    map[string]string{"cmi.location": "page-1"},
		Interactions: []map[string]string{{"id": "q1"}},
	}
	if err := store.PutSession(ctx, snap); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	if err := store.PutSession(ctx, domain.SessionSnapshot{}); err == nil {
		t.Fatal("empty session id accepted")
	}

	// Mutating the caller's copy must not leak into the store.
	snap.DataModel["cmi.location"] = "tampered"
	got, found, err := store.GetSession(ctx, "s1")
	if err != nil || !found {
		t.Fatalf("GetSession = %v, %v", found, err)
	}
	if got.DataModel["cmi.location"] != "page-1" {
		t.Fatalf("stored = %q", got.DataModel["cmi.location"])
	}
	got.Interactions[0]["id"] = "tampered"
	again, _, _ := store.GetSession(ctx, "s1")
	if again.Interactions[0]["id"] != "q1" {
		t.Fatalf("store shares returned memory: %q", again.Interactions[0]["id"])
	}

	snap.DataModel = map[string]string{"cmi.location": "page-2"}
	if err := store.PutSession(ctx, snap); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, _, _ = store.GetSession(ctx, "s1")
	if got.DataModel["cmi.location"] != "page-2" {
		t.Fatalf("upsert lost: %q", got.DataModel["cmi.location"])
	}
}

func TestDeletePackageKeepsSessions(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.SavePackage(ctx, record("p1", "c1", "com.example.a")); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	if err := store.PutSession(ctx, domain.SessionSnapshot{SessionID: "s1", PackageID: "p1"}); err != nil {
		t.Fatalf("PutSession: %v", err)
	}
	if _, err := store.DeletePackage(ctx, "p1"); err != nil {
		t.Fatalf("DeletePackage: %v", err)
	}
	if _, found, _ := store.GetSession(ctx, "s1"); !found {
		t.Fatal("session history lost with package delete")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.SavePackage(ctx, record("p1", "c1", "com.example.a")); err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	if err := store.PutSession(ctx, domain.SessionSnapshot{SessionID: "s1", PackageID: "p1"}); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	other := New()
	other.ImportState(store.ExportState())
	if _, found, _ := other.GetPackage(ctx, "p1"); !found {
		t.Fatal("package lost in transfer")
	}
	if _, found, _ := other.GetSession(ctx, "s1"); !found {
		t.Fatal("session lost in transfer")
	}
}
