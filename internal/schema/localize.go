package schema

import "github.com/prismeai/prisme-cli/internal/model"

// LocalizeSchema returns a copy of s whose display texts (title,
// description, placeholder, enumNames and language maps inside ui:options)
// are resolved for lang. localized:* types are kept for the form layer.
func LocalizeSchema(s *Schema, lang string) *Schema {
	out := s.Clone()
	Walk(out, func(_ string, n *Schema) bool {
		n.Title = flatten(n.Title, lang)
		n.Description = flatten(n.Description, lang)
		n.Placeholder = flatten(n.Placeholder, lang)
		for i, name := range n.EnumNames {
			n.EnumNames[i] = flatten(name, lang)
		}
		for k, v := range n.UIOptions {
			n.UIOptions[k] = localizeValue(v, lang)
		}
		return true
	})
	return out
}

func flatten(t model.LocalizedText, lang string) model.LocalizedText {
	if len(t.Translations) == 0 {
		return t
	}
	return model.Text(model.Localize(t, lang))
}

func localizeValue(v any, lang string) any {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := model.LocalizeAny(t, lang); ok {
			return s
		}
		for k, x := range t {
			t[k] = localizeValue(x, lang)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = localizeValue(x, lang)
		}
		return t
	}
	return v
}
