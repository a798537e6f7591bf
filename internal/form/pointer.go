package form

import (
	"fmt"

	"github.com/prismeai/prisme-cli/internal/schema"
)

// Get reads the value at a JSON pointer.
func Get(value any, pointer string) (any, bool) {
	cur := value
	for _, seg := range schema.SplitPointer(pointer) {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, ok := schema.Index(seg)
			if !ok || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Apply sets v at pointer inside value and returns the updated root.
// Missing containers are created: numeric segments create arrays, anything
// else creates objects. Arrays grow as needed.
func Apply(value any, pointer string, v any) (any, error) {
	return apply(value, schema.SplitPointer(pointer), v)
}

func apply(cur any, segs []string, v any) (any, error) {
	if len(segs) == 0 {
		return v, nil
	}
	seg, rest := segs[0], segs[1:]
	if cur == nil {
		if _, isIndex := schema.Index(seg); isIndex {
			cur = []any{}
		} else {
			cur = map[string]any{}
		}
	}
	switch t := cur.(type) {
	case map[string]any:
		next, err := apply(t[seg], rest, v)
		if err != nil {
			return nil, err
		}
		t[seg] = next
		return t, nil
	case []any:
		i, ok := schema.Index(seg)
		if !ok {
			return nil, fmt.Errorf("segment %q is not an array index", seg)
		}
		for len(t) <= i {
			t = append(t, nil)
		}
		next, err := apply(t[i], rest, v)
		if err != nil {
			return nil, err
		}
		t[i] = next
		return t, nil
	}
	return nil, fmt.Errorf("cannot set %q inside %T", seg, cur)
}
