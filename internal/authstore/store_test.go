package authstore

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestStore_SetGet_TrimsAndValidates(t *testing.T) {
	s := &Store{}
	s.Set("  http://localhost:3001/v2/ ", Record{Token: "  tok  ", Email: "a@b.c"})

	got, ok := s.Get("http://localhost:3001/v2")
	if !ok {
		t.Fatalf("expected token present")
	}
	if got.Token != "tok" || got.Email != "a@b.c" {
		t.Fatalf("unexpected record: %#v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt set")
	}

	// Blank tokens are never returned.
	s.Tokens["http://x"] = Record{Token: "   "}
	if _, ok := s.Get("http://x"); ok {
		t.Fatalf("expected missing token")
	}

	s.Set("", Record{Token: "tok2"})
	s.Set("http://y", Record{})
	if _, ok := s.Get("http://y"); ok {
		t.Fatalf("expected not set")
	}

	s.Delete("http://localhost:3001/v2/")
	if _, ok := s.Get("http://localhost:3001/v2"); ok {
		t.Fatalf("expected deleted")
	}
}

func TestRecord_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	if (Record{}).Expired(now) {
		t.Fatalf("record without expiry never expires")
	}
	if !(Record{ExpiresAt: &past}).Expired(now) {
		t.Fatalf("expected expired")
	}
	if (Record{ExpiresAt: &future}).Expired(now) {
		t.Fatalf("expected valid")
	}
}

func TestStore_SaveAtomicAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "auth.json")

	s := &Store{}
	s.Set("http://localhost:3001/v2", Record{Token: "tok"})
	if err := SaveAtomic(path, s); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}

	if runtime.GOOS != "windows" {
		st, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if st.Mode().Perm() != 0o600 {
			t.Fatalf("expected 0600 perms, got %o", st.Mode().Perm())
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasSuffix(string(b), "\n") {
		t.Fatalf("expected trailing newline")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := loaded.Get("http://localhost:3001/v2/")
	if !ok || got.Token != "tok" {
		t.Fatalf("expected token tok, got %q (ok=%v)", got.Token, ok)
	}
}

func TestStore_LoadOrEmpty(t *testing.T) {
	dir := t.TempDir()
	st, err := LoadOrEmpty(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("LoadOrEmpty: %v", err)
	}
	if st.Tokens == nil {
		t.Fatalf("expected tokens map initialized")
	}

	path := filepath.Join(dir, "auth.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Tokens == nil {
		t.Fatalf("expected tokens map initialized")
	}
}
