package builder

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismeai/prisme-cli/internal/model"
)

func sequentialKeys() func() string {
	n := 0
	return func() string {
		n++
		return "k" + strconv.Itoa(n)
	}
}

func slugs(blocks []model.BlockConfig) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Slug)
	}
	return out
}

func TestBuilder_AddRemoveSort(t *testing.T) {
	var changes int
	b := New([]model.BlockConfig{{Slug: "Header"}, {Slug: "Footer"}},
		WithKeyFunc(sequentialKeys()),
		WithOnChange(func([]model.BlockConfig) { changes++ }),
	)
	require.Equal(t, []string{"k1", "k2"}, []string{b.Blocks()[0].Key, b.Blocks()[1].Key})

	key := b.AddBlock(1, "RichText", nil)
	assert.Equal(t, "k3", key)
	assert.Equal(t, []string{"Header", "RichText", "Footer"}, slugs(b.Blocks()))

	b.AddBlock(99, "Image", nil)
	b.AddBlock(-4, "Hero", nil)
	assert.Equal(t, []string{"Hero", "Header", "RichText", "Footer", "Image"}, slugs(b.Blocks()))

	require.NoError(t, b.Sort(0, 4))
	assert.Equal(t, []string{"Header", "RichText", "Footer", "Image", "Hero"}, slugs(b.Blocks()))
	require.NoError(t, b.Sort(3, 1))
	assert.Equal(t, []string{"Header", "Image", "RichText", "Footer", "Hero"}, slugs(b.Blocks()))
	assert.Error(t, b.Sort(0, 5))

	require.NoError(t, b.RemoveBlock(key))
	assert.Equal(t, []string{"Header", "Image", "Footer", "Hero"}, slugs(b.Blocks()))
	assert.ErrorIs(t, b.RemoveBlock(key), ErrUnknownKey)

	assert.Equal(t, 6, changes)
}

func TestBuilder_SetBlockConfigMerges(t *testing.T) {
	b := New([]model.BlockConfig{{Slug: "Hero", Key: "h", Config: map[string]any{"title": "Hi", "img": "a.png"}}})

	require.NoError(t, b.SetBlockConfig("h", map[string]any{"title": "Hello", "lead": "x", "img": nil}))
	assert.Equal(t, map[string]any{"title": "Hello", "lead": "x"}, b.Blocks()[0].Config)
	assert.ErrorIs(t, b.SetBlockConfig("missing", nil), ErrUnknownKey)
}

func TestBuilder_BlocksIsACopy(t *testing.T) {
	b := New([]model.BlockConfig{{Slug: "Hero", Key: "h", Config: map[string]any{"title": "Hi"}}})
	blocks := b.Blocks()
	blocks[0].Config["title"] = "changed"
	assert.Equal(t, "Hi", b.Blocks()[0].Config["title"])
}

func TestBuilder_PageStripsKeys(t *testing.T) {
	b := New(nil, WithKeyFunc(sequentialKeys()))
	b.AddBlock(0, "RichText", map[string]any{"content": "hello"})

	page := b.Page(model.Page{Slug: "home"})
	require.Len(t, page.Blocks, 1)
	assert.Empty(t, page.Blocks[0].Key)
	assert.Equal(t, "home", page.Slug)
	assert.NotEmpty(t, b.Blocks()[0].Key)
}

func TestBuilder_PickPlacesVariantAsParent(t *testing.T) {
	b := New(nil)
	picker := PickerFunc(func(context.Context) (model.BlockInCatalog, error) {
		entry, ok := Find(BuiltIns(), "cards:short")
		require.True(t, ok)
		return entry, nil
	})

	key, err := b.Pick(context.Background(), 0, picker)
	require.NoError(t, err)
	got := b.Blocks()[0]
	assert.Equal(t, key, got.Key)
	assert.Equal(t, "Cards", got.Slug)
	assert.Equal(t, map[string]any{"variant": "short"}, got.Config)
}

func TestEnsureKeys_KeepsExisting(t *testing.T) {
	out := EnsureKeys([]model.BlockConfig{{Slug: "a", Key: "keep"}, {Slug: "b"}})
	assert.Equal(t, "keep", out[0].Key)
	assert.NotEmpty(t, out[1].Key)
}
