package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"scormhost/internal/config"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	if strings.TrimSpace(out) != version {
		t.Fatalf("out = %q", out)
	}
}

func TestSampleConfigCommand(t *testing.T) {
	out := execute(t, "sample-config")
	for _, section := range []string{"[server]", "[blob]", "[persistence]", "[limits]", "[logging]"} {
		if !strings.Contains(out, section) {
			t.Fatalf("sample config missing %s:\n%s", section, out)
		}
	}
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, config.Persistence{Driver: "memory"})
	if err != nil || store == nil {
		t.Fatalf("memory: %v", err)
	}
	closeStore()

	store, closeStore, err = openStore(ctx, config.Persistence{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "state.db"),
	})
	if err != nil || store == nil {
		t.Fatalf("sqlite: %v", err)
	}
	closeStore()

	if _, _, err := openStore(ctx, config.Persistence{Driver: "oracle"}); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
