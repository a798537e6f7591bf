package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestCmpOrDash(t *testing.T) {
	for in, want := range map[string]string{"": "-", "  ": "-", " saved ": "saved"} {
		if got := cmpOrDash(in); got != want {
			t.Fatalf("cmpOrDash(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClampHelpers(t *testing.T) {
	if got := minInt(maxInt(0, 1), 5); got != 1 {
		t.Fatalf("expected row 0 to clamp to 1, got %d", got)
	}
	if got := minInt(maxInt(9, 1), 5); got != 5 {
		t.Fatalf("expected row 9 to clamp to 5, got %d", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("Bonjour", 10); got != "Bonjour" {
		t.Fatalf("expected untouched name, got %q", got)
	}
	if got := truncateRunes("Créer une page", 6); got != "Créer…" {
		t.Fatalf("expected rune-aware cut, got %q", got)
	}
	if got := truncateRunes("x", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTranslateNavKeys(t *testing.T) {
	if got := translateNavKeys(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")}); got.Type != tea.KeyRunes {
		t.Fatalf("expected passthrough, got %#v", got)
	}
	cases := map[tea.KeyType]tea.KeyType{
		tea.KeyCtrlN: tea.KeyDown,
		tea.KeyCtrlP: tea.KeyUp,
		tea.KeyCtrlF: tea.KeyPgDown,
		tea.KeyCtrlB: tea.KeyPgUp,
	}
	for in, want := range cases {
		if got := translateNavKeys(tea.KeyMsg{Type: in}); got.Type != want {
			t.Fatalf("%v: expected %v, got %v", in, want, got.Type)
		}
	}
}
