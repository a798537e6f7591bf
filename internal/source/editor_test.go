package source

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newEditor(t *testing.T, kind Kind, original any) *Editor {
	t.Helper()
	w := NewWorker()
	t.Cleanup(w.Close)
	e, err := NewEditor(context.Background(), kind, original, w, NewValidator())
	require.NoError(t, err)
	return e
}

func TestEditor_BadIndentationYieldsOneAnnotation(t *testing.T) {
	e := newEditor(t, KindAutomation, map[string]any{"name": "hello"})
	text := "name: hello\ndo:\n  - emit:\n      event: a\n   bad: indent\n"

	var parsed any
	yerr := yaml.Unmarshal([]byte(text), &parsed)
	require.Error(t, yerr)
	m := regexp.MustCompile(`line (\d+)`).FindStringSubmatch(yerr.Error())
	require.NotNil(t, m)
	wantRow, _ := strconv.Atoi(m[1])

	res, err := e.Update(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, res.Annotations, 1)
	assert.Equal(t, wantRow, res.Annotations[0].Row)
	lines := strings.Split(text, "\n")
	wantCol := len(lines[wantRow-1]) - len(strings.TrimLeft(lines[wantRow-1], " "))
	assert.Equal(t, wantCol, res.Annotations[0].Column)
	assert.Equal(t, AnnotationError, res.Annotations[0].Type)
	assert.True(t, e.Invalid())
	assert.Equal(t, text, e.Text())

	saved := false
	err = e.Save(context.Background(), func(context.Context, any) error {
		saved = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, saved)
}

func TestEditor_ValidationErrorsPointAtLines(t *testing.T) {
	e := newEditor(t, KindAutomation, map[string]any{"name": "hello"})
	assert.False(t, e.Invalid())
	assert.Empty(t, e.Annotations())

	text := "name: hello\nwhen:\n  events:\n    - started\nprivate: sometimes\n"
	res, err := e.Update(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, res.Annotations)
	assert.True(t, res.Invalid)
	assert.Equal(t, 5, res.Annotations[0].Row)
	assert.Contains(t, res.Annotations[0].Text, "/private")
}

func TestEditor_SaveHandsParsedDocument(t *testing.T) {
	e := newEditor(t, KindPage, map[string]any{"name": "Home", "blocks": []any{}})

	_, err := e.Update(context.Background(), "name: Home\nblocks:\n  - slug: RichText\n    config:\n      content: hi\n")
	require.NoError(t, err)
	require.False(t, e.Invalid())

	var got any
	require.NoError(t, e.Save(context.Background(), func(_ context.Context, doc any) error {
		got = doc
		return nil
	}))
	assert.Equal(t, map[string]any{
		"name": "Home",
		"blocks": []any{map[string]any{
			"slug":   "RichText",
			"config": map[string]any{"content": "hi"},
		}},
	}, got)

	boom := errors.New("offline")
	assert.ErrorIs(t, e.Save(context.Background(), func(context.Context, any) error { return boom }), boom)
}

func TestValidator_AcceptsValidAutomation(t *testing.T) {
	v := NewValidator()
	errs, err := v.Validate(KindAutomation, map[string]any{
		"name": map[string]any{"en": "Hello", "fr": "Bonjour"},
		"when": map[string]any{"events": []any{"started"}, "endpoint": true},
		"do":   []any{map[string]any{"emit": map[string]any{"event": "done"}}},
	})
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = v.Validate(Kind("nope"), map[string]any{})
	assert.Error(t, err)
}

func TestWorker_RoundTripAndClose(t *testing.T) {
	w := NewWorker()
	ctx := context.Background()

	text, err := w.ToYAML(ctx, map[string]any{"a": map[string]any{"b": 1}})
	require.NoError(t, err)
	assert.Equal(t, "a:\n  b: 1\n", text)

	v, err := w.FromYAML(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": float64(1)}}, v)

	w.Close()
	_, err = w.FromYAML(ctx, text)
	assert.ErrorIs(t, err, ErrWorkerClosed)
}

func TestSyntaxAnnotation_ColumnOfOffendingLine(t *testing.T) {
	src := "name: hello\ndo:\n    - emit: a\n  x: [\n"
	a := SyntaxAnnotation(src, errors.New("yaml: line 3: did not find expected key"))
	assert.Equal(t, 3, a.Row)
	assert.Equal(t, 4, a.Column)
	assert.Equal(t, "did not find expected key", a.Text)

	a = SyntaxAnnotation(src, errors.New("yaml: line 40: mapping values are not allowed"))
	assert.Equal(t, 40, a.Row)
	assert.Equal(t, 0, a.Column)
}
