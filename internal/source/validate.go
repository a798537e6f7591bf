package source

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	"cuelang.org/go/encoding/jsonschema"

	"github.com/prismeai/prisme-cli/internal/schema"
)

type Kind string

const (
	KindWorkspace  Kind = "workspace"
	KindAutomation Kind = "automation"
	KindPage       Kind = "page"
	KindBlock      Kind = "block"
)

func (k Kind) Valid() bool {
	switch k {
	case KindWorkspace, KindAutomation, KindPage, KindBlock:
		return true
	}
	return false
}

//go:embed schemas/*.json
var schemaFiles embed.FS

type ValidationError struct {
	InstancePath string `json:"instancePath"`
	Message      string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.InstancePath == "" {
		return e.Message
	}
	return e.InstancePath + ": " + e.Message
}

// Validator checks documents against the embedded JSON schemas. Schemas are
// compiled once on first use.
type Validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[Kind]cue.Value
}

func NewValidator() *Validator {
	return &Validator{ctx: cuecontext.New(), schemas: map[Kind]cue.Value{}}
}

func (v *Validator) compiled(kind Kind) (cue.Value, error) {
	if s, ok := v.schemas[kind]; ok {
		return s, nil
	}
	if !kind.Valid() {
		return cue.Value{}, fmt.Errorf("unknown document kind %q", kind)
	}
	name := "schemas/" + string(kind) + ".json"
	raw, err := schemaFiles.ReadFile(name)
	if err != nil {
		return cue.Value{}, err
	}
	expr, err := cuejson.Extract(name, raw)
	if err != nil {
		return cue.Value{}, fmt.Errorf("parse %s: %w", name, err)
	}
	file, err := jsonschema.Extract(v.ctx.BuildExpr(expr), &jsonschema.Config{})
	if err != nil {
		return cue.Value{}, fmt.Errorf("compile %s: %w", name, err)
	}
	s := v.ctx.BuildFile(file)
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("build %s: %w", name, err)
	}
	v.schemas[kind] = s
	return s, nil
}

// Validate returns the schema violations of doc, sorted by instance path.
func (v *Validator) Validate(kind Kind, doc any) ([]ValidationError, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.compiled(kind)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	expr, err := cuejson.Extract("document", raw)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	err = s.Unify(v.ctx.BuildExpr(expr)).Validate(cue.Concrete(true))
	if err == nil {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			InstancePath: instancePath(e.Path()),
			Message:      fmt.Sprintf(format, args...),
		}
		if seen[ve.Error()] {
			continue
		}
		seen[ve.Error()] = true
		out = append(out, ve)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InstancePath < out[j].InstancePath })
	return out, nil
}

func instancePath(labels []string) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.HasPrefix(l, "\"") {
			if unq, err := strconv.Unquote(l); err == nil {
				l = unq
			}
		}
		parts = append(parts, l)
	}
	if len(parts) == 0 {
		return ""
	}
	return schema.JoinPointer(parts...)
}
