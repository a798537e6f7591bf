package dirty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_InterceptWhileDirty(t *testing.T) {
	original := map[string]any{"name": "a", "do": []any{"x"}}
	g, err := New(original)
	require.NoError(t, err)

	require.NoError(t, g.Intercept("/workspaces/1"))
	_, ok := g.Pending()
	assert.False(t, ok)

	require.NoError(t, g.Update(map[string]any{"name": "b", "do": []any{"x"}}))
	assert.True(t, g.Dirty())
	assert.ErrorIs(t, g.Intercept("/workspaces/1/pages/home"), ErrNavigationAborted)

	route, ok := g.Pending()
	assert.True(t, ok)
	assert.Equal(t, "/workspaces/1/pages/home", route)

	g.Cancel()
	assert.True(t, g.Dirty())
	_, ok = g.Pending()
	assert.False(t, ok)

	assert.ErrorIs(t, g.Intercept("/workspaces/2"), ErrNavigationAborted)
	route, ok = g.Confirm()
	assert.True(t, ok)
	assert.Equal(t, "/workspaces/2", route)
	assert.False(t, g.Dirty())
	assert.NoError(t, g.Intercept("/anywhere"))
}

func TestGuard_RevertingEditsIsClean(t *testing.T) {
	g, err := New(map[string]any{"a": 1})
	require.NoError(t, err)
	require.NoError(t, g.Update(map[string]any{"a": 2}))
	assert.True(t, g.Dirty())
	require.NoError(t, g.Update(map[string]any{"a": 1}))
	assert.False(t, g.Dirty())
}

func TestGuard_ResetAfterSave(t *testing.T) {
	g, err := New("v1")
	require.NoError(t, err)
	require.NoError(t, g.Update("v2"))
	require.NoError(t, g.Reset("v2"))
	assert.False(t, g.Dirty())
}

func TestChanged(t *testing.T) {
	changed, err := Changed(map[string]any{"a": []any{1, 2}}, map[string]any{"a": []any{1, 2}})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = Changed(map[string]any{"a": []any{1, 2}}, map[string]any{"a": []any{2, 1}})
	require.NoError(t, err)
	assert.True(t, changed)
}
