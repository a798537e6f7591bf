package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSeedDefault_Basics(t *testing.T) {
	st := SeedDefault()
	ws := st.Workspaces[DemoWorkspace]
	if ws == nil {
		t.Fatalf("expected workspace %s", DemoWorkspace)
	}
	if ws.Automations["hello"] == nil || ws.Pages["home"] == nil {
		t.Fatalf("expected seeded automation and page")
	}
	sess := st.Sessions[DemoToken]
	if sess == nil || st.Users[sess.UserID] == nil {
		t.Fatalf("expected demo session bound to a user")
	}
	if st.Store["charts"] == nil || len(st.Store["charts"].Blocks) != 2 {
		t.Fatalf("expected charts app with blocks")
	}
	if got := len(st.Permissions[PermissionKey("workspaces", DemoWorkspace)]); got != 1 {
		t.Fatalf("expected owner permission, got %d", got)
	}
}

func TestSaveAtomicAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mock", "state.json")

	st := SeedDefault()
	if err := SaveAtomic(path, st); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(b), "\n") {
		t.Fatalf("expected trailing newline")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ws := loaded.Workspaces[DemoWorkspace]
	if ws == nil {
		t.Fatalf("expected workspace present after load")
	}
	hello := ws.Automations["hello"]
	if hello == nil || len(hello.Do) != 2 {
		t.Fatalf("expected hello automation with 2 instructions, got %#v", hello)
	}
	if got := hello.Name.Translations["fr"]; got != "Bonjour" {
		t.Fatalf("expected localized name to survive, got %q", got)
	}
}

func TestLoad_AllocatesMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"version":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Users == nil || st.Workspaces == nil || st.Events == nil || st.Permissions == nil || st.Store == nil || st.Sessions == nil {
		t.Fatalf("expected all maps allocated")
	}
}
