package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var ErrInvalid = errors.New("document has errors; fix them before saving")

const AnnotationError = "error"

// Annotation marks a problem at a 1-based row of the YAML text. Column is
// 0 when the parser does not report one.
type Annotation struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Text   string `json:"text"`
	Type   string `json:"type"`
}

type Result struct {
	Value       any          `json:"value,omitempty"`
	Annotations []Annotation `json:"annotations"`
	Invalid     bool         `json:"invalid"`
}

// Saver persists a parsed document, usually through the owner's update call.
type Saver func(ctx context.Context, doc any) error

// Editor holds the YAML text of one document together with its last parse
// result.
type Editor struct {
	kind      Kind
	worker    *Worker
	validator *Validator

	mu     sync.Mutex
	text   string
	result Result
}

// NewEditor renders original as YAML and validates it.
func NewEditor(ctx context.Context, kind Kind, original any, worker *Worker, validator *Validator) (*Editor, error) {
	text, err := worker.ToYAML(ctx, original)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	e := &Editor{kind: kind, worker: worker, validator: validator}
	if _, err := e.Update(ctx, text); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Editor) Kind() Kind { return e.kind }

func (e *Editor) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *Editor) Invalid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.Invalid
}

func (e *Editor) Annotations() []Annotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Annotation(nil), e.result.Annotations...)
}

// Value returns the last successfully parsed document.
func (e *Editor) Value() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result.Value
}

// Update replaces the text and re-parses it. A syntax error yields a single
// annotation at the reported line; otherwise every schema violation is
// annotated at the line of its instance path. The returned error is only
// set when the worker itself fails.
func (e *Editor) Update(ctx context.Context, text string) (Result, error) {
	res := Result{Annotations: []Annotation{}}

	value, err := e.worker.FromYAML(ctx, text)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrWorkerClosed):
		return Result{}, err
	case err != nil:
		res.Invalid = true
		res.Annotations = append(res.Annotations, SyntaxAnnotation(text, err))
	default:
		res.Value = value
		if e.validator != nil {
			violations, verr := e.validator.Validate(e.kind, value)
			if verr != nil {
				return Result{}, verr
			}
			for _, v := range violations {
				res.Annotations = append(res.Annotations, Annotation{
					Row:  GetLineNumber(text, v.InstancePath),
					Text: v.Error(),
					Type: AnnotationError,
				})
			}
			res.Invalid = len(violations) > 0
		}
	}

	e.mu.Lock()
	e.text = text
	if res.Value == nil && !res.Invalid {
		res.Value = map[string]any{}
	}
	if res.Invalid && res.Value == nil {
		// Keep the previous document so a later fix can still be compared.
		res.Value = e.result.Value
	}
	e.result = res
	e.mu.Unlock()
	return res, nil
}

// Save hands the parsed document to save unless the text has errors.
func (e *Editor) Save(ctx context.Context, save Saver) error {
	e.mu.Lock()
	res := e.result
	e.mu.Unlock()
	if res.Invalid {
		return ErrInvalid
	}
	return save(ctx, res.Value)
}

var lineRe = regexp.MustCompile(`line (\d+)`)

// SyntaxAnnotation turns a YAML parse error into an annotation. yaml.v3
// reports "yaml: line N: message" with a 1-based line but no column, so the
// column is where the first token of that line starts.
func SyntaxAnnotation(src string, err error) Annotation {
	msg := err.Error()
	row := 1
	if m := lineRe.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			row = n
		}
	}
	text := strings.TrimPrefix(msg, "yaml: ")
	if i := strings.Index(text, ": "); i >= 0 && strings.HasPrefix(text, "line ") {
		text = text[i+2:]
	}
	return Annotation{Row: row, Column: tokenColumn(src, row), Text: text, Type: AnnotationError}
}

// tokenColumn is the 0-based column of the first non-blank rune on row.
func tokenColumn(text string, row int) int {
	lines := strings.Split(text, "\n")
	if row < 1 || row > len(lines) {
		return 0
	}
	line := []rune(lines[row-1])
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return 0
}
