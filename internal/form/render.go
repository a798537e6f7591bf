package form

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/prismeai/prisme-cli/internal/model"
	"github.com/prismeai/prisme-cli/internal/schema"
)

type Options struct {
	PlanOptions

	// OnChange is called for every field after submission, in field order.
	OnChange func(pointer string, value any)
	OnSubmit func(value any)

	Input  io.Reader
	Output io.Writer
	// Accessible forces line-based prompts; nil means "when stdout is not a
	// terminal".
	Accessible *bool
}

// Render runs an interactive form for s, starting from value, and returns
// the edited copy. oneOf alternatives are asked first, then every field of
// the resulting plan in one group.
func Render(ctx context.Context, s *schema.Schema, value any, opts Options) (any, error) {
	value = schema.CopyValue(value)
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Choices == nil {
		opts.Choices = map[string]int{}
	}

	// Each answered choice can reveal nested ones; bound the rounds by the
	// number of oneOf nodes in the tree.
	for round := 0; round < countOneOf(s)+1; round++ {
		_, choices := Plan(s, value, opts.PlanOptions)
		pending := pendingChoices(choices, opts.Choices)
		if len(pending) == 0 {
			break
		}
		if err := askChoices(ctx, pending, opts); err != nil {
			return nil, err
		}
	}

	fields, _ := Plan(s, value, opts.PlanOptions)
	if len(fields) == 0 {
		if opts.OnSubmit != nil {
			opts.OnSubmit(value)
		}
		return value, nil
	}

	huhFields := make([]huh.Field, 0, len(fields))
	getters := make([]func() any, 0, len(fields))
	for _, f := range fields {
		current, _ := Get(value, f.Pointer)
		if f.Lang != "" {
			current = localizedCurrent(current, f.Lang, opts.Lang)
		}
		w := f.Inline
		if w == nil {
			w = opts.Registry[f.Widget]
		}
		if w == nil {
			w = opts.Registry["input"]
		}
		hf, get := w.Build(f, current)
		huhFields = append(huhFields, hf)
		getters = append(getters, get)
	}

	if err := run(ctx, huh.NewForm(huh.NewGroup(huhFields...)), opts); err != nil {
		return nil, err
	}

	var err error
	for i, f := range fields {
		v := getters[i]()
		if f.Lang != "" {
			current, _ := Get(value, f.Pointer)
			v = mergeLocalized(current, f.Lang, v, len(opts.Languages) > 1)
		}
		value, err = Apply(value, f.Pointer, v)
		if err != nil {
			return nil, err
		}
		if opts.OnChange != nil {
			opts.OnChange(f.Pointer, v)
		}
	}
	if opts.OnSubmit != nil {
		opts.OnSubmit(value)
	}
	return value, nil
}

func askChoices(ctx context.Context, pending []Choice, opts Options) error {
	answers := make([]string, len(pending))
	fields := make([]huh.Field, 0, len(pending))
	for i, c := range pending {
		opts := make([]huh.Option[string], 0, len(c.Options))
		for _, o := range c.Options {
			opts = append(opts, huh.NewOption(o.Label, o.Value))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title(c.Label).
			Options(opts...).
			Value(&answers[i]))
	}
	if err := run(ctx, huh.NewForm(huh.NewGroup(fields...)), opts); err != nil {
		return err
	}
	for i, c := range pending {
		n, err := strconv.Atoi(answers[i])
		if err != nil {
			n = 0
		}
		opts.Choices[c.Pointer] = n
	}
	return nil
}

func run(ctx context.Context, f *huh.Form, opts Options) error {
	accessible := !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
	if opts.Accessible != nil {
		accessible = *opts.Accessible
	}
	f = f.WithAccessible(accessible)
	if opts.Input != nil {
		f = f.WithInput(opts.Input)
	}
	if opts.Output != nil {
		f = f.WithOutput(opts.Output)
	}
	return f.RunWithContext(ctx)
}

func pendingChoices(choices []Choice, answered map[string]int) []Choice {
	var out []Choice
	for _, c := range choices {
		if _, ok := answered[c.Pointer]; !ok && len(c.Options) > 1 {
			out = append(out, c)
		}
	}
	return out
}

func countOneOf(s *schema.Schema) int {
	n := 0
	schema.Walk(s, func(_ string, node *schema.Schema) bool {
		if len(node.OneOf) > 0 {
			n++
		}
		return true
	})
	return n
}

func localizedCurrent(current any, lang, displayLang string) string {
	switch t := current.(type) {
	case string:
		if lang == displayLang {
			return t
		}
		return ""
	case map[string]any:
		s, _ := t[lang].(string)
		return s
	}
	return ""
}

// mergeLocalized writes one language of a localized value. A plain string
// stays a string while a single language is edited.
func mergeLocalized(current any, lang string, v any, multi bool) any {
	text, _ := v.(string)
	switch t := current.(type) {
	case map[string]any:
		t[lang] = text
		return t
	case string, nil:
		if !multi {
			return text
		}
		out := map[string]any{lang: text}
		if s, ok := t.(string); ok && s != "" && lang != "en" {
			out["en"] = s
		}
		return out
	}
	return model.Text(text).Value()
}
