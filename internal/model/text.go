// Package model holds the documents the console exchanges with the backend:
// workspaces, automations, pages, blocks, app instances and events.
package model

import (
	"encoding/json"
	"errors"
	"sort"

	"gopkg.in/yaml.v3"
)

// LocalizedText is either a plain string or a map of language to text.
type LocalizedText struct {
	Text         string
	Translations map[string]string
}

func Text(s string) LocalizedText { return LocalizedText{Text: s} }

func (t LocalizedText) IsZero() bool {
	return t.Text == "" && len(t.Translations) == 0
}

// Languages returns the translated languages in sorted order.
func (t LocalizedText) Languages() []string {
	langs := make([]string, 0, len(t.Translations))
	for lang := range t.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Value returns the JSON-ish representation (string or map).
func (t LocalizedText) Value() any {
	if len(t.Translations) > 0 {
		out := make(map[string]any, len(t.Translations))
		for k, v := range t.Translations {
			out[k] = v
		}
		return out
	}
	return t.Text
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if len(t.Translations) > 0 {
		return json.Marshal(t.Translations)
	}
	return json.Marshal(t.Text)
}

func (t *LocalizedText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = LocalizedText{Text: s}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.New("localized text must be a string or a map of strings")
	}
	*t = LocalizedText{Translations: m}
	return nil
}

func (t LocalizedText) MarshalYAML() (any, error) {
	return t.Value(), nil
}

func (t *LocalizedText) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = LocalizedText{Text: node.Value}
		return nil
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		*t = LocalizedText{Translations: m}
		return nil
	}
	return errors.New("localized text must be a string or a map of strings")
}
