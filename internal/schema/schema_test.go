package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/prismeai/prisme-cli/internal/model"
)

const formSchema = `{
  "type": "object",
  "title": {"fr": "Réglages", "en": "Settings"},
  "properties": {
    "zeta": {"type": "string", "ui:widget": "select:automations"},
    "alpha": {"type": "localized:string", "title": "Alpha"},
    "list": {"type": "array", "items": {"type": "object", "properties": {"page": {"ui:widget": "select:pages"}}}},
    "extra": {"type": "object", "additionalProperties": {"type": "number"}},
    "choice": {"oneOf": [{"title": "A", "properties": {"a": {"type": "string"}}}, {"title": "B"}]}
  },
  "x-custom": {"keep": true},
  "ui:options": {"help": {"en": "Help", "fr": "Aide"}}
}`

func decode(t *testing.T) *Schema {
	t.Helper()
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(formSchema), &s))
	return &s
}

func TestSchema_DecodeKeepsOrderAndExtra(t *testing.T) {
	s := decode(t)
	assert.Equal(t, []string{"zeta", "alpha", "list", "extra", "choice"}, s.PropertyNames())
	assert.Equal(t, map[string]any{"keep": true}, s.Extra["x-custom"])
	assert.Equal(t, "select:automations", s.Properties["zeta"].Widget)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Contains(t, back, "x-custom")
	assert.Contains(t, back, "ui:options")
}

func TestSchema_YAMLPreservesPropertyOrder(t *testing.T) {
	src := "type: object\nproperties:\n  b:\n    type: string\n  a:\n    type: number\n"
	var s Schema
	require.NoError(t, yaml.Unmarshal([]byte(src), &s))
	assert.Equal(t, []string{"b", "a"}, s.PropertyNames())
}

func TestWalk_VisitsEveryBranch(t *testing.T) {
	var pointers []string
	Walk(decode(t), func(p string, _ *Schema) bool {
		pointers = append(pointers, p)
		return true
	})
	assert.Equal(t, []string{
		"", "/zeta", "/alpha", "/list", "/list/*", "/list/*/page",
		"/extra", "/extra/*", "/choice", "/choice", "/choice/a", "/choice",
	}, pointers)
}

func TestLocalizeSchema_FlattensTexts(t *testing.T) {
	src := decode(t)
	out := LocalizeSchema(src, "fr")
	assert.Equal(t, "Réglages", out.Title.Text)
	assert.Empty(t, out.Title.Translations)
	assert.Equal(t, "Aide", out.UIOptions["help"])
	assert.Equal(t, TypeLocalizedString, out.Properties["alpha"].Type)

	// source untouched
	assert.Len(t, src.Title.Translations, 2)
}

func TestExpandSelectors_InjectsWorkspaceOptions(t *testing.T) {
	ws := &model.Workspace{
		Automations: map[string]*model.Automation{
			"b-flow": {Name: model.Text("Beta")},
			"a-flow": {Name: model.LocalizedText{Translations: map[string]string{"en": "Alpha"}}},
		},
		Pages: map[string]*model.Page{"home": {Name: model.Text("Home")}},
	}
	out := ExpandSelectors(decode(t), SourcesFromWorkspace(ws, "en"))

	zeta := out.Properties["zeta"]
	assert.Equal(t, "select", zeta.Widget)
	assert.Equal(t, []any{"a-flow", "b-flow"}, zeta.Enum)
	assert.Equal(t, "Alpha", zeta.EnumNames[0].Text)

	page := out.Properties["list"].Items.Properties["page"]
	assert.Equal(t, "select", page.Widget)
	assert.Equal(t, []any{"home"}, page.Enum)
	assert.Equal(t, "string", page.Type)
}

func TestTemplateDots_AreInverse(t *testing.T) {
	inputs := []map[string]any{
		{"template.a.b": 1, "other.key": 2},
		{"template_x.y": map[string]any{"template__z": []any{map[string]any{"template.q_": "v"}}}},
		{"template": "plain", "templates.list_u": true},
	}
	for _, in := range inputs {
		removed := RemoveTemplateDots(in)
		assert.Equal(t, in, GetBackTemplateDots(removed))
		for k := range removed.(map[string]any) {
			if len(k) >= len(templatePrefix) && k[:len(templatePrefix)] == templatePrefix {
				assert.NotContains(t, k, ".")
			}
		}
	}
	assert.Equal(t, map[string]any{"template_da_ub": 1}, RemoveTemplateDots(map[string]any{"template.a_b": 1}))
}
