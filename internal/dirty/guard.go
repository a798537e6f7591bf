// Package dirty tracks unsaved edits and holds back navigation while they
// exist.
package dirty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/mitchellh/hashstructure/v2"
)

var ErrNavigationAborted = errors.New("navigation aborted: there are unsaved changes")

func hash(v any) (uint64, error) {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash value: %w", err)
	}
	return h, nil
}

// Changed deep-compares a and b.
func Changed(a, b any) (bool, error) {
	ha, err := hash(a)
	if err != nil {
		return false, err
	}
	hb, err := hash(b)
	if err != nil {
		return false, err
	}
	return ha != hb, nil
}

type Guard struct {
	mu         sync.Mutex
	original   uint64
	dirty      bool
	pending    string
	hasPending bool
}

func New(original any) (*Guard, error) {
	g := &Guard{}
	if err := g.Reset(original); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset takes original as the new clean state, typically after a save.
func (g *Guard) Reset(original any) error {
	h, err := hash(original)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.original = h
	g.dirty = false
	g.mu.Unlock()
	return nil
}

// Update compares current with the clean state.
func (g *Guard) Update(current any) error {
	h, err := hash(current)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.dirty = h != g.original
	g.mu.Unlock()
	return nil
}

func (g *Guard) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

// Intercept is called before leaving for route. While dirty it remembers
// the route and returns ErrNavigationAborted.
func (g *Guard) Intercept(route string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.dirty {
		return nil
	}
	g.pending, g.hasPending = route, true
	return ErrNavigationAborted
}

func (g *Guard) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending, g.hasPending
}

// Confirm discards the dirty flag and returns the held route, if any.
func (g *Guard) Confirm() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	route, ok := g.pending, g.hasPending
	g.dirty = false
	g.pending, g.hasPending = "", false
	return route, ok
}

// Cancel drops the held route and stays dirty.
func (g *Guard) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending, g.hasPending = "", false
}

// Ask prompts whether to leave with unsaved changes. On yes it confirms the
// guard and returns the pending route.
func Ask(ctx context.Context, g *Guard, in io.Reader, out io.Writer, accessible bool) (string, bool, error) {
	leave := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("You have unsaved changes").
			Description("Leave and discard them?").
			Affirmative("Leave").
			Negative("Stay").
			Value(&leave),
	)).WithAccessible(accessible)
	if in != nil {
		form = form.WithInput(in)
	}
	if out != nil {
		form = form.WithOutput(out)
	}
	if err := form.RunWithContext(ctx); err != nil {
		g.Cancel()
		return "", false, err
	}
	if !leave {
		g.Cancel()
		return "", false, nil
	}
	route, _ := g.Confirm()
	return route, true, nil
}
