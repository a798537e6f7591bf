package schema

import (
	"strconv"
	"strings"
)

// Visitor is called for every node. Returning false skips the node's children.
type Visitor func(pointer string, s *Schema) bool

// Walk visits s and its descendants depth first through properties, items,
// oneOf and additionalProperties. pointer is the JSON pointer of the value
// described by the node; oneOf alternatives share their parent's pointer and
// additionalProperties use the "*" segment.
func Walk(s *Schema, fn Visitor) {
	walk("", s, fn)
}

func walk(pointer string, s *Schema, fn Visitor) {
	if s == nil {
		return
	}
	if !fn(pointer, s) {
		return
	}
	for _, name := range s.PropertyNames() {
		walk(pointer+"/"+EscapePointer(name), s.Properties[name], fn)
	}
	if s.Items != nil {
		walk(pointer+"/*", s.Items, fn)
	}
	for _, alt := range s.OneOf {
		walk(pointer, alt, fn)
	}
	if s.AdditionalProperties != nil {
		walk(pointer+"/*", s.AdditionalProperties, fn)
	}
}

// EscapePointer escapes one JSON pointer segment (RFC 6901).
func EscapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}

func UnescapePointer(seg string) string {
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

// SplitPointer splits "/a/b~1c/0" into ["a", "b/c", "0"].
func SplitPointer(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "#")
	if pointer == "" || pointer == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		parts[i] = UnescapePointer(p)
	}
	return parts
}

func JoinPointer(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(EscapePointer(p))
	}
	return b.String()
}

// Index parses a pointer segment as an array index.
func Index(seg string) (int, bool) {
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
