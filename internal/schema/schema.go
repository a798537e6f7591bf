// Package schema models the JSON-Schema dialect used by the console forms:
// plain JSON Schema extended with "ui:widget", "ui:options" and the
// "localized:*" pseudo-types.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/prismeai/prisme-cli/internal/model"
)

const (
	TypeLocalizedString   = "localized:string"
	TypeLocalizedTextarea = "localized:textarea"
)

// Schema is one node of a schema tree. Keys the console does not interpret
// are kept in Extra and written back untouched.
type Schema struct {
	Type                 string
	Title                model.LocalizedText
	Description          model.LocalizedText
	Placeholder          model.LocalizedText
	Properties           map[string]*Schema
	Order                []string
	Items                *Schema
	OneOf                []*Schema
	AdditionalProperties *Schema
	Enum                 []any
	EnumNames            []model.LocalizedText
	Default              any
	Required             []string
	Widget               string
	UIOptions            map[string]any
	Extra                map[string]any

	// Inline is a widget implementation set in code instead of by name.
	Inline any
}

var known = map[string]bool{
	"type": true, "title": true, "description": true, "placeholder": true,
	"properties": true, "items": true, "oneOf": true, "additionalProperties": true,
	"enum": true, "enumNames": true, "default": true, "required": true,
	"ui:widget": true, "ui:options": true,
}

// PropertyNames returns property keys in declaration order, followed by any
// key missing from Order in sorted order.
func (s *Schema) PropertyNames() []string {
	if s == nil || len(s.Properties) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(s.Properties))
	out := make([]string, 0, len(s.Properties))
	for _, k := range s.Order {
		if _, ok := s.Properties[k]; ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	var rest []string
	for k := range s.Properties {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Inline widgets are shared.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Properties != nil {
		cp.Properties = make(map[string]*Schema, len(s.Properties))
		for k, p := range s.Properties {
			cp.Properties[k] = p.Clone()
		}
	}
	cp.Order = append([]string(nil), s.Order...)
	cp.Items = s.Items.Clone()
	cp.AdditionalProperties = s.AdditionalProperties.Clone()
	if s.OneOf != nil {
		cp.OneOf = make([]*Schema, len(s.OneOf))
		for i, o := range s.OneOf {
			cp.OneOf[i] = o.Clone()
		}
	}
	cp.Enum = append([]any(nil), s.Enum...)
	cp.EnumNames = append([]model.LocalizedText(nil), s.EnumNames...)
	cp.Required = append([]string(nil), s.Required...)
	cp.Default = CopyValue(s.Default)
	if s.UIOptions != nil {
		cp.UIOptions = CopyValue(s.UIOptions).(map[string]any)
	}
	if s.Extra != nil {
		cp.Extra = CopyValue(s.Extra).(map[string]any)
	}
	return &cp
}

// CopyValue deep-copies untyped JSON-like data.
func CopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = CopyValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = CopyValue(x)
		}
		return out
	}
	return v
}

// FromMap converts an untyped schema (as stored in workspace documents).
func FromMap(m map[string]any) (*Schema, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var s Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Map converts s back into untyped form.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("true")) {
		*s = Schema{}
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("schema must be an object: %w", err)
	}
	var out Schema
	decode := func(key string, v any) error {
		body, ok := raw[key]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	}
	var widget any
	steps := []struct {
		key string
		v   any
	}{
		{"type", &out.Type},
		{"title", &out.Title},
		{"description", &out.Description},
		{"placeholder", &out.Placeholder},
		{"properties", &out.Properties},
		{"items", &out.Items},
		{"oneOf", &out.OneOf},
		{"enum", &out.Enum},
		{"enumNames", &out.EnumNames},
		{"default", &out.Default},
		{"required", &out.Required},
		{"ui:widget", &widget},
		{"ui:options", &out.UIOptions},
	}
	for _, st := range steps {
		if err := decode(st.key, st.v); err != nil {
			return err
		}
	}
	if w, ok := widget.(string); ok {
		out.Widget = w
	}
	if ap, ok := raw["additionalProperties"]; ok {
		trimmed := bytes.TrimSpace(ap)
		if !bytes.Equal(trimmed, []byte("false")) {
			out.AdditionalProperties = &Schema{}
			if err := json.Unmarshal(ap, out.AdditionalProperties); err != nil {
				return fmt.Errorf("additionalProperties: %w", err)
			}
		}
	}
	if props, ok := raw["properties"]; ok {
		order, err := objectKeys(props)
		if err != nil {
			return fmt.Errorf("properties: %w", err)
		}
		out.Order = order
	}
	for k, v := range raw {
		if known[k] {
			continue
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		out.Extra[k] = val
	}
	*s = out
	return nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(b []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func (s Schema) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+8)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Type != "" {
		out["type"] = s.Type
	}
	if !s.Title.IsZero() {
		out["title"] = s.Title
	}
	if !s.Description.IsZero() {
		out["description"] = s.Description
	}
	if !s.Placeholder.IsZero() {
		out["placeholder"] = s.Placeholder
	}
	if s.Properties != nil {
		out["properties"] = s.Properties
	}
	if s.Items != nil {
		out["items"] = s.Items
	}
	if len(s.OneOf) > 0 {
		out["oneOf"] = s.OneOf
	}
	if s.AdditionalProperties != nil {
		out["additionalProperties"] = s.AdditionalProperties
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.EnumNames) > 0 {
		out["enumNames"] = s.EnumNames
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Widget != "" {
		out["ui:widget"] = s.Widget
	}
	if len(s.UIOptions) > 0 {
		out["ui:options"] = s.UIOptions
	}
	return json.Marshal(out)
}

// UnmarshalYAML goes through JSON so both codecs share one decoder; mapping
// order is preserved by the conversion.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	var buf bytes.Buffer
	if err := nodeJSON(&buf, node); err != nil {
		return err
	}
	return s.UnmarshalJSON(buf.Bytes())
}

func (s Schema) MarshalYAML() (any, error) {
	return s.Map(), nil
}

func nodeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return nodeJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return nodeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := nodeJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := nodeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		buf.Write(b)
		return nil
	}
}
