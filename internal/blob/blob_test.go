package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "packages/p1/index.html", want: "packages/p1/index.html"},
		{in: "./packages/p1/a.js", want: "packages/p1/a.js"},
		{in: "packages//p1///b.css", want: "packages/p1/b.css"},
		{in: "packages\\p1\\win.html", want: "packages/p1/win.html"},
		{in: "a/b/../c", want: "a/c"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "..", wantErr: true},
		{in: "../outside", wantErr: true},
		{in: "a/../../outside", wantErr: true},
	}
	for _, tc := range cases {
		got, err := SanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeKey(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeKey(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %q", store.Driver())
	}
	store, err = Open(ctx, Options{FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %q", store.Driver())
	}
	if _, err := Open(ctx, Options{Driver: "tape"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

// storeContract exercises the Store behaviors both local drivers share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	n, err := store.Put(ctx, "packages/p1/index.html", strings.NewReader("<html/>"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 7 {
		t.Fatalf("size = %d", n)
	}
	if _, err := store.Put(ctx, "packages/p1/index.html", strings.NewReader("other")); !errors.Is(err, ErrExists) {
		t.Fatalf("overwrite err = %v, want ErrExists", err)
	}
	if _, err := store.Put(ctx, "../escape", strings.NewReader("x")); err == nil {
		t.Fatal("escaping key accepted")
	}

	rc, err := store.Open(ctx, "packages/p1/index.html")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "<html/>" {
		t.Fatalf("body = %q", body)
	}
	if _, err := store.Open(ctx, "packages/p1/ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Open missing = %v, want ErrNotFound", err)
	}

	if _, err := store.Put(ctx, "packages/p1/a.js", strings.NewReader("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Put(ctx, "packages/p2/b.js", strings.NewReader("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	keys, err := store.List(ctx, "packages/p1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "packages/p1/a.js" || keys[1] != "packages/p1/index.html" {
		t.Fatalf("keys = %v", keys)
	}

	ok, err := store.Delete(ctx, "packages/p1/a.js")
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	ok, err = store.Delete(ctx, "packages/p1/a.js")
	if err != nil || ok {
		t.Fatalf("second Delete = %v, %v", ok, err)
	}

	removed, err := store.DeletePrefix(ctx, "packages/p1")
	if err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	keys, _ = store.List(ctx, "")
	if len(keys) != 1 || keys[0] != "packages/p2/b.js" {
		t.Fatalf("surviving keys = %v", keys)
	}
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemory())
}

func TestFilesystemStoreContract(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	storeContract(t, store)
}

func TestFilesystemPrunesEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "packages/p1/deep/nested/file.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.DeletePrefix(ctx, "packages/p1"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	keys, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("keys = %v", keys)
	}
}
