package form

import (
	"encoding/json"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prismeai/prisme-cli/internal/schema"
)

func mustSchema(t *testing.T, raw string) *schema.Schema {
	t.Helper()
	var s schema.Schema
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return &s
}

func pointers(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Pointer)
	}
	return out
}

func TestPlan_FollowsPropertyOrderAndResolvesWidgets(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "title": {"en": "Title", "fr": "Titre"}},
			"count": {"type": "integer"},
			"enabled": {"type": "boolean"},
			"color": {"type": "string", "enum": ["red", "blue"], "enumNames": ["Red", "Blue"]},
			"tags": {"type": "array", "items": {"type": "string"}},
			"secret": {"type": "string", "ui:widget": "password"}
		}
	}`)

	fields, choices := Plan(s, nil, PlanOptions{Lang: "fr"})
	require.Empty(t, choices)
	assert.Equal(t, []string{"/title", "/count", "/enabled", "/color", "/tags", "/secret"}, pointers(fields))

	widgets := map[string]string{}
	for _, f := range fields {
		widgets[f.Pointer] = f.Widget
	}
	assert.Equal(t, map[string]string{
		"/title":   "input",
		"/count":   "number",
		"/enabled": "confirm",
		"/color":   "select",
		"/tags":    "list",
		"/secret":  "password",
	}, widgets)

	assert.Equal(t, "Titre", fields[0].Label)
	assert.True(t, fields[0].Required)
	assert.False(t, fields[1].Required)
	assert.Equal(t, []schema.Option{{Value: "red", Label: "Red"}, {Value: "blue", Label: "Blue"}}, fields[3].Options)
}

func TestPlan_UnknownWidgetFallsBackToType(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"n":{"type":"number","ui:widget":"slider"}}}`)
	fields, _ := Plan(s, nil, PlanOptions{})
	require.Len(t, fields, 1)
	assert.Equal(t, "number", fields[0].Widget)
}

func TestPlan_InlineWidgetWins(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"x":{"type":"string"}}}`)
	inline := WidgetFunc(func(f Field, current any) (huh.Field, func() any) {
		return nil, func() any { return "inline" }
	})
	s.Properties["x"].Inline = Widget(inline)

	fields, _ := Plan(s, nil, PlanOptions{})
	require.Len(t, fields, 1)
	assert.Equal(t, "inline", fields[0].Widget)
	require.NotNil(t, fields[0].Inline)
}

func TestPlan_LocalizedFieldsPerLanguage(t *testing.T) {
	s := mustSchema(t, `{"type":"object","properties":{"name":{"type":"localized:string","title":"Name"}}}`)
	fields, _ := Plan(s, nil, PlanOptions{Lang: "en", Languages: []string{"en", "fr"}})
	require.Len(t, fields, 2)
	assert.Equal(t, "Name (en)", fields[0].Label)
	assert.Equal(t, "fr", fields[1].Lang)
	assert.Equal(t, "/name", fields[1].Pointer)
}

func TestPlan_OneOfUsesMatchingAlternative(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"oneOf": [
			{"title": "By URL", "properties": {"url": {"type": "string"}}},
			{"title": "By slug", "properties": {"slug": {"type": "string"}}}
		]
	}`)

	fields, choices := Plan(s, map[string]any{"slug": "home"}, PlanOptions{})
	require.Len(t, choices, 1)
	assert.Equal(t, "", choices[0].Pointer)
	assert.Equal(t, []schema.Option{{Value: "0", Label: "By URL"}, {Value: "1", Label: "By slug"}}, choices[0].Options)
	assert.Equal(t, []string{"/slug"}, pointers(fields))

	fields, _ = Plan(s, map[string]any{"slug": "home"}, PlanOptions{Choices: map[string]int{"": 0}})
	assert.Equal(t, []string{"/url"}, pointers(fields))
}

func TestPlan_ArraysOfObjectsAndAdditionalProperties(t *testing.T) {
	s := mustSchema(t, `{
		"type": "object",
		"properties": {
			"items": {"type": "array", "items": {"type": "object", "properties": {"label": {"type": "string"}}}},
			"headers": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`)
	value := map[string]any{
		"items":   []any{map[string]any{"label": "a"}, map[string]any{}},
		"headers": map[string]any{"b": "2", "a": "1"},
	}
	fields, _ := Plan(s, value, PlanOptions{})
	assert.Equal(t, []string{"/items/0/label", "/items/1/label", "/headers/a", "/headers/b"}, pointers(fields))
}

func TestSplitList_ConvertsItemTypes(t *testing.T) {
	assert.Equal(t, []any{"a", "b"}, SplitList("a\n\n b \n", "string"))
	assert.Equal(t, []any{int64(1), "x"}, SplitList("1\nx", "integer"))
	assert.Equal(t, []any{true}, SplitList("true", "boolean"))
	assert.Equal(t, []any{}, SplitList("", ""))
}

func TestMergeLocalized(t *testing.T) {
	assert.Equal(t, "hi", mergeLocalized(nil, "en", "hi", false))
	assert.Equal(t, map[string]any{"fr": "salut", "en": "hi"}, mergeLocalized("hi", "fr", "salut", true))
	assert.Equal(t, map[string]any{"en": "hi", "fr": "salut"}, mergeLocalized(map[string]any{"en": "hi"}, "fr", "salut", true))
}

func TestEnumValueKeepsOriginalType(t *testing.T) {
	s := mustSchema(t, `{"type":"number","enum":[1, 2.5]}`)
	f := Field{Node: s}
	assert.Equal(t, 2.5, enumValue(f, "2.5"))
	assert.Equal(t, "other", enumValue(f, "other"))
}
