// Package builder holds the ordered block placements of a page and
// assembles the catalog of blocks that can be placed on it.
package builder

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/prismeai/prisme-cli/internal/model"
)

var ErrUnknownKey = errors.New("no block with this key")

// Builder is the single owner of a page's placements. Every mutation
// notifies the OnChange callback with a copy of the new list.
type Builder struct {
	mu       sync.Mutex
	blocks   []model.BlockConfig
	onChange func([]model.BlockConfig)
	newKey   func() string
}

type Option func(*Builder)

func WithOnChange(fn func([]model.BlockConfig)) Option {
	return func(b *Builder) { b.onChange = fn }
}

// WithKeyFunc replaces the random key generator.
func WithKeyFunc(fn func() string) Option {
	return func(b *Builder) { b.newKey = fn }
}

func New(blocks []model.BlockConfig, opts ...Option) *Builder {
	b := &Builder{newKey: func() string { return uuid.NewString() }}
	for _, opt := range opts {
		opt(b)
	}
	b.blocks = ensureKeys(copyBlocks(blocks), b.newKey)
	return b
}

// Picker chooses the block to insert, typically by asking the user.
type Picker interface {
	Pick(ctx context.Context) (model.BlockInCatalog, error)
}

type PickerFunc func(ctx context.Context) (model.BlockInCatalog, error)

func (fn PickerFunc) Pick(ctx context.Context) (model.BlockInCatalog, error) { return fn(ctx) }

// Pick asks picker for a catalog entry and inserts it at position. Preset
// variants are placed as their parent block with the preset config.
func (b *Builder) Pick(ctx context.Context, position int, picker Picker) (string, error) {
	entry, err := picker.Pick(ctx)
	if err != nil {
		return "", err
	}
	slug := entry.Slug
	if entry.Parent != "" {
		slug = entry.Parent
	}
	return b.AddBlock(position, slug, maps.Clone(entry.Config)), nil
}

// AddBlock splices a new placement at position (clamped to the list bounds)
// and returns its key.
func (b *Builder) AddBlock(position int, slug string, config map[string]any) string {
	b.mu.Lock()
	key := b.newKey()
	position = clamp(position, 0, len(b.blocks))
	placed := model.BlockConfig{Slug: slug, Config: config, Key: key}
	b.blocks = append(b.blocks[:position], append([]model.BlockConfig{placed}, b.blocks[position:]...)...)
	out := copyBlocks(b.blocks)
	b.mu.Unlock()

	b.notify(out)
	return key
}

func (b *Builder) RemoveBlock(key string) error {
	b.mu.Lock()
	idx := b.index(key)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("remove %q: %w", key, ErrUnknownKey)
	}
	b.blocks = append(b.blocks[:idx], b.blocks[idx+1:]...)
	out := copyBlocks(b.blocks)
	b.mu.Unlock()

	b.notify(out)
	return nil
}

// SetBlockConfig merges partial into the placement's config. Keys set to nil
// are removed.
func (b *Builder) SetBlockConfig(key string, partial map[string]any) error {
	b.mu.Lock()
	idx := b.index(key)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("configure %q: %w", key, ErrUnknownKey)
	}
	cfg := maps.Clone(b.blocks[idx].Config)
	if cfg == nil {
		cfg = map[string]any{}
	}
	for k, v := range partial {
		if v == nil {
			delete(cfg, k)
			continue
		}
		cfg[k] = v
	}
	b.blocks[idx].Config = cfg
	out := copyBlocks(b.blocks)
	b.mu.Unlock()

	b.notify(out)
	return nil
}

// Sort moves the placement at from to index to.
func (b *Builder) Sort(from, to int) error {
	b.mu.Lock()
	n := len(b.blocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		b.mu.Unlock()
		return fmt.Errorf("move %d -> %d: index out of range [0,%d)", from, to, n)
	}
	if from == to {
		b.mu.Unlock()
		return nil
	}
	moved := b.blocks[from]
	b.blocks = append(b.blocks[:from], b.blocks[from+1:]...)
	b.blocks = append(b.blocks[:to], append([]model.BlockConfig{moved}, b.blocks[to:]...)...)
	out := copyBlocks(b.blocks)
	b.mu.Unlock()

	b.notify(out)
	return nil
}

// Blocks returns a copy of the placements, keys included.
func (b *Builder) Blocks() []model.BlockConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return copyBlocks(b.blocks)
}

// Key returns the key of the placement at index i.
func (b *Builder) Key(i int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.blocks) {
		return "", false
	}
	return b.blocks[i].Key, true
}

// Page returns p with its blocks replaced by the builder's placements,
// stripped of their client-local keys.
func (b *Builder) Page(p model.Page) model.Page {
	blocks := b.Blocks()
	for i := range blocks {
		blocks[i].Key = ""
	}
	p.Blocks = blocks
	return p
}

// EnsureKeys returns a copy of blocks where every placement has a key.
func EnsureKeys(blocks []model.BlockConfig) []model.BlockConfig {
	return ensureKeys(copyBlocks(blocks), uuid.NewString)
}

func ensureKeys(blocks []model.BlockConfig, newKey func() string) []model.BlockConfig {
	for i := range blocks {
		if blocks[i].Key == "" {
			blocks[i].Key = newKey()
		}
	}
	return blocks
}

func (b *Builder) index(key string) int {
	for i, bc := range b.blocks {
		if bc.Key == key {
			return i
		}
	}
	return -1
}

func (b *Builder) notify(blocks []model.BlockConfig) {
	if b.onChange != nil {
		b.onChange(blocks)
	}
}

func copyBlocks(in []model.BlockConfig) []model.BlockConfig {
	out := make([]model.BlockConfig, len(in))
	for i, bc := range in {
		bc.Config = maps.Clone(bc.Config)
		out[i] = bc
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
