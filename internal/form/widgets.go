package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// Widget builds the terminal control for one field. get returns the edited
// value once the form has been submitted.
type Widget interface {
	Build(f Field, current any) (field huh.Field, get func() any)
}

type WidgetFunc func(f Field, current any) (huh.Field, func() any)

func (fn WidgetFunc) Build(f Field, current any) (huh.Field, func() any) { return fn(f, current) }

// Registry resolves "ui:widget" names.
type Registry map[string]Widget

func DefaultRegistry() Registry {
	return Registry{
		"input":       WidgetFunc(inputWidget),
		"password":    WidgetFunc(passwordWidget),
		"textarea":    WidgetFunc(textareaWidget),
		"number":      WidgetFunc(numberWidget),
		"confirm":     WidgetFunc(confirmWidget),
		"select":      WidgetFunc(selectWidget),
		"multiselect": WidgetFunc(multiSelectWidget),
		"list":        WidgetFunc(listWidget),
	}
}

// With returns a copy of r with extra widgets registered.
func (r Registry) With(name string, w Widget) Registry {
	out := make(Registry, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[name] = w
	return out
}

func required(f Field) func(string) error {
	return func(s string) error {
		if f.Required && strings.TrimSpace(s) == "" {
			return errors.New(f.Label + " is required")
		}
		return nil
	}
}

func inputWidget(f Field, current any) (huh.Field, func() any) {
	s := toString(current)
	in := huh.NewInput().
		Title(f.Label).
		Description(f.Description).
		Placeholder(f.Placeholder).
		Value(&s).
		Validate(required(f))
	return in, func() any { return s }
}

func passwordWidget(f Field, current any) (huh.Field, func() any) {
	s := toString(current)
	in := huh.NewInput().
		Title(f.Label).
		Description(f.Description).
		EchoMode(huh.EchoModePassword).
		Value(&s).
		Validate(required(f))
	return in, func() any { return s }
}

func textareaWidget(f Field, current any) (huh.Field, func() any) {
	s := toString(current)
	t := huh.NewText().
		Title(f.Label).
		Description(f.Description).
		Placeholder(f.Placeholder).
		Value(&s).
		Validate(required(f))
	return t, func() any { return s }
}

func numberWidget(f Field, current any) (huh.Field, func() any) {
	s := toString(current)
	in := huh.NewInput().
		Title(f.Label).
		Description(f.Description).
		Placeholder(f.Placeholder).
		Value(&s).
		Validate(func(v string) error {
			if err := required(f)(v); err != nil {
				return err
			}
			if strings.TrimSpace(v) == "" {
				return nil
			}
			_, err := ParseNumber(v, f.Type)
			return err
		})
	return in, func() any {
		n, err := ParseNumber(s, f.Type)
		if err != nil {
			return nil
		}
		return n
	}
}

func confirmWidget(f Field, current any) (huh.Field, func() any) {
	b, _ := current.(bool)
	c := huh.NewConfirm().
		Title(f.Label).
		Description(f.Description).
		Value(&b)
	return c, func() any { return b }
}

func selectWidget(f Field, current any) (huh.Field, func() any) {
	s := toString(current)
	opts := make([]huh.Option[string], 0, len(f.Options))
	for _, o := range f.Options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}
	sel := huh.NewSelect[string]().
		Title(f.Label).
		Description(f.Description).
		Options(opts...).
		Value(&s)
	return sel, func() any { return enumValue(f, s) }
}

func multiSelectWidget(f Field, current any) (huh.Field, func() any) {
	var selected []string
	if list, ok := current.([]any); ok {
		for _, v := range list {
			selected = append(selected, toString(v))
		}
	}
	opts := make([]huh.Option[string], 0, len(f.Options))
	for _, o := range f.Options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}
	ms := huh.NewMultiSelect[string]().
		Title(f.Label).
		Description(f.Description).
		Options(opts...).
		Value(&selected)
	return ms, func() any {
		out := make([]any, 0, len(selected))
		for _, s := range selected {
			out = append(out, enumValue(f, s))
		}
		return out
	}
}

// listWidget edits an array of scalars as one item per line.
func listWidget(f Field, current any) (huh.Field, func() any) {
	var lines []string
	if list, ok := current.([]any); ok {
		for _, v := range list {
			lines = append(lines, toString(v))
		}
	}
	s := strings.Join(lines, "\n")
	t := huh.NewText().
		Title(f.Label).
		Description(strings.TrimSpace(f.Description + " (one item per line)")).
		Value(&s)
	itemType := ""
	if f.Node != nil && f.Node.Items != nil {
		itemType = f.Node.Items.Type
	}
	return t, func() any { return SplitList(s, itemType) }
}

// SplitList parses one item per line, converting numbers and booleans when
// the item type asks for it.
func SplitList(s, itemType string) []any {
	out := []any{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch itemType {
		case "number", "integer":
			if n, err := ParseNumber(line, itemType); err == nil {
				out = append(out, n)
				continue
			}
		case "boolean":
			if b, err := strconv.ParseBool(line); err == nil {
				out = append(out, b)
				continue
			}
		}
		out = append(out, line)
	}
	return out
}

func ParseNumber(s, typ string) (any, error) {
	s = strings.TrimSpace(s)
	if typ == "integer" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}

// enumValue maps an option string back to the original enum value so
// numeric and boolean enums keep their type.
func enumValue(f Field, s string) any {
	if f.Node != nil {
		for _, v := range enumSource(f.Node) {
			if toString(v) == s {
				return v
			}
		}
	}
	return s
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func itoa(i int) string { return strconv.Itoa(i) }
