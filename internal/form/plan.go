// Package form renders schema trees as interactive terminal forms.
package form

import (
	"sort"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/schema"
)

type Field struct {
	Pointer     string
	Label       string
	Description string
	Placeholder string
	// Widget is the resolved widget name (or "inline").
	Widget   string
	Type     string
	Options  []schema.Option
	Required bool
	// Lang is set on the per-language fields of localized:* nodes.
	Lang   string
	Node   *schema.Schema
	Inline Widget
}

// Choice describes a oneOf node whose alternative must be picked first.
type Choice struct {
	Pointer string
	Label   string
	Options []schema.Option
	Node    *schema.Schema
}

type PlanOptions struct {
	// Lang is the display language; Languages lists the languages edited on
	// localized:* fields (defaults to Lang).
	Lang      string
	Languages []string
	// Choices maps oneOf pointers to the chosen alternative index.
	Choices  map[string]int
	Registry Registry
}

// Plan flattens a schema into the list of editable fields for value. The
// traversal covers properties, items (for existing elements),
// oneOf (the chosen alternative) and additionalProperties (existing keys).
func Plan(s *schema.Schema, value any, opts PlanOptions) ([]Field, []Choice) {
	if opts.Lang == "" {
		opts.Lang = "en"
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{opts.Lang}
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	p := &planner{opts: opts}
	p.visit("", "", s, value, false)
	return p.fields, p.choices
}

type planner struct {
	opts    PlanOptions
	fields  []Field
	choices []Choice
}

func (p *planner) visit(pointer, name string, s *schema.Schema, value any, required bool) {
	if s == nil {
		return
	}
	label := model.Localize(s.Title, p.opts.Lang)
	if label == "" {
		label = name
	}

	if len(s.OneOf) > 0 {
		idx, ok := p.opts.Choices[pointer]
		if !ok {
			idx = matchAlternative(s.OneOf, value)
		}
		if idx < 0 || idx >= len(s.OneOf) {
			idx = 0
		}
		choice := Choice{Pointer: pointer, Label: label, Node: s}
		for i, alt := range s.OneOf {
			altLabel := model.Localize(alt.Title, p.opts.Lang)
			if altLabel == "" {
				altLabel = "Option " + itoa(i+1)
			}
			choice.Options = append(choice.Options, schema.Option{Value: itoa(i), Label: altLabel})
		}
		p.choices = append(p.choices, choice)
		merged := s.Clone()
		merged.OneOf = nil
		mergeAlternative(merged, s.OneOf[idx])
		p.visit(pointer, name, merged, value, required)
		return
	}

	switch {
	case len(s.Properties) > 0:
		obj, _ := value.(map[string]any)
		for _, key := range s.PropertyNames() {
			p.visit(pointer+"/"+schema.EscapePointer(key), key, s.Properties[key], obj[key], s.IsRequired(key))
		}
		if s.AdditionalProperties != nil {
			keys := make([]string, 0, len(obj))
			for k := range obj {
				if _, declared := s.Properties[k]; !declared {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				p.visit(pointer+"/"+schema.EscapePointer(k), k, s.AdditionalProperties, obj[k], false)
			}
		}
		return
	case s.Type == "object" && s.AdditionalProperties != nil:
		obj, _ := value.(map[string]any)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p.visit(pointer+"/"+schema.EscapePointer(k), k, s.AdditionalProperties, obj[k], false)
		}
		return
	case s.Type == "array" && s.Items != nil && !scalarItems(s.Items):
		list, _ := value.([]any)
		for i, item := range list {
			p.visit(pointer+"/"+itoa(i), label+" #"+itoa(i+1), s.Items, item, false)
		}
		return
	case s.Type == schema.TypeLocalizedString || s.Type == schema.TypeLocalizedTextarea:
		widget := "input"
		if s.Type == schema.TypeLocalizedTextarea {
			widget = "textarea"
		}
		for _, lang := range p.opts.Languages {
			f := p.field(pointer, label, s, required)
			f.Widget = widget
			f.Lang = lang
			if len(p.opts.Languages) > 1 {
				f.Label = label + " (" + lang + ")"
			}
			p.fields = append(p.fields, f)
		}
		return
	}

	f := p.field(pointer, label, s, required)
	f.Widget, f.Inline = p.resolve(s)
	p.fields = append(p.fields, f)
}

func (p *planner) field(pointer, label string, s *schema.Schema, required bool) Field {
	f := Field{
		Pointer:     pointer,
		Label:       label,
		Description: model.Localize(s.Description, p.opts.Lang),
		Placeholder: model.Localize(s.Placeholder, p.opts.Lang),
		Type:        s.Type,
		Required:    required,
		Node:        s,
	}
	if f.Label == "" {
		f.Label = pointer
	}
	for i, v := range enumSource(s) {
		value := toString(v)
		optLabel := value
		names := s.EnumNames
		if s.Items != nil && len(s.Enum) == 0 {
			names = s.Items.EnumNames
		}
		if i < len(names) {
			optLabel = model.Localize(names[i], p.opts.Lang)
		}
		f.Options = append(f.Options, schema.Option{Value: value, Label: optLabel})
	}
	return f
}

// resolve picks the widget for a scalar node: an inline implementation, a
// registered name, or a default derived from the type.
func (p *planner) resolve(s *schema.Schema) (string, Widget) {
	if w, ok := s.Inline.(Widget); ok {
		return "inline", w
	}
	if s.Widget != "" {
		if _, ok := p.opts.Registry[s.Widget]; ok {
			return s.Widget, nil
		}
	}
	switch {
	case s.Type == "array":
		if len(enumSource(s)) > 0 {
			return "multiselect", nil
		}
		return "list", nil
	case len(s.Enum) > 0:
		return "select", nil
	case s.Type == "boolean":
		return "confirm", nil
	case s.Type == "number" || s.Type == "integer":
		return "number", nil
	}
	return "input", nil
}

func enumSource(s *schema.Schema) []any {
	if len(s.Enum) > 0 {
		return s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		return s.Items.Enum
	}
	return nil
}

func scalarItems(items *schema.Schema) bool {
	if len(items.Properties) > 0 || len(items.OneOf) > 0 || items.Items != nil || items.AdditionalProperties != nil {
		return false
	}
	switch items.Type {
	case "", "string", "number", "integer", "boolean":
		return true
	}
	return false
}

// matchAlternative returns the first alternative whose declared properties
// are all present in value, or 0.
func matchAlternative(alts []*schema.Schema, value any) int {
	obj, ok := value.(map[string]any)
	if !ok {
		return 0
	}
	for i, alt := range alts {
		if alt == nil || len(alt.Properties) == 0 {
			continue
		}
		all := true
		for k := range alt.Properties {
			if _, ok := obj[k]; !ok {
				all = false
				break
			}
		}
		if all {
			return i
		}
	}
	return 0
}

func mergeAlternative(dst, alt *schema.Schema) {
	if alt == nil {
		return
	}
	if dst.Type == "" {
		dst.Type = alt.Type
	}
	if alt.Properties != nil {
		if dst.Properties == nil {
			dst.Properties = map[string]*schema.Schema{}
		}
		for _, k := range alt.PropertyNames() {
			dst.Properties[k] = alt.Properties[k]
			dst.Order = append(dst.Order, k)
		}
	}
	dst.Required = append(dst.Required, alt.Required...)
	if dst.Items == nil {
		dst.Items = alt.Items
	}
	if dst.AdditionalProperties == nil {
		dst.AdditionalProperties = alt.AdditionalProperties
	}
	if len(dst.Enum) == 0 {
		dst.Enum = alt.Enum
		dst.EnumNames = alt.EnumNames
	}
	if dst.Widget == "" {
		dst.Widget = alt.Widget
	}
}
