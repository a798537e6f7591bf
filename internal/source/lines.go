package source

import (
	"strconv"
	"strings"

	"github.com/prismeai/prisme-cli/internal/schema"
)

type entry struct {
	line   int
	indent int
	dash   bool
	text   string
}

// entries splits block YAML into one entry per key or sequence dash. A
// line "  - name: x" yields a dash entry at indent 2 and a key entry at
// indent 4 on the same line.
func entries(text string) []entry {
	var out []entry
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(raw, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || trimmed == "---" {
			continue
		}
		indent := len(raw) - len(trimmed)
		for trimmed == "-" || strings.HasPrefix(trimmed, "- ") {
			out = append(out, entry{line: i + 1, indent: indent, dash: true})
			rest := strings.TrimLeft(trimmed[1:], " ")
			indent += len(trimmed) - len(rest)
			trimmed = rest
		}
		if trimmed != "" {
			out = append(out, entry{line: i + 1, indent: indent, text: trimmed})
		}
	}
	return out
}

// keyOf returns the mapping key of a "key: value" line, unquoting quoted
// keys.
func keyOf(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	switch text[0] {
	case '"':
		for i := 1; i < len(text); i++ {
			if text[i] == '\\' {
				i++
				continue
			}
			if text[i] == '"' {
				key, err := strconv.Unquote(text[:i+1])
				return key, err == nil
			}
		}
		return "", false
	case '\'':
		for i := 1; i < len(text); i++ {
			if text[i] != '\'' {
				continue
			}
			if i+1 < len(text) && text[i+1] == '\'' {
				i++
				continue
			}
			return strings.ReplaceAll(text[1:i], "''", "'"), true
		}
		return "", false
	}
	if i := strings.Index(text, ": "); i >= 0 {
		return text[:i], true
	}
	if strings.HasSuffix(text, ":") {
		return text[:len(text)-1], true
	}
	return "", false
}

// GetLineNumber returns the 1-based line of the key chain designated by a
// JSON pointer in block-style YAML text. When the chain cannot be followed
// to the end, the line of the deepest matched key is returned (1 for the
// document root).
func GetLineNumber(text, pointer string) int {
	list := entries(text)
	line := 1
	pos, parent := 0, -1
	for _, seg := range schema.SplitPointer(pointer) {
		idx, isIndex := schema.Index(seg)
		child, count := -1, -1
		found := -1
		for j := pos; j < len(list); j++ {
			e := list[j]
			// Sequences may sit at the same indentation as their key.
			if e.indent < parent || (e.indent == parent && !(isIndex && e.dash)) {
				break
			}
			if child == -1 {
				child = e.indent
			}
			if e.indent != child {
				continue
			}
			if isIndex && e.dash {
				count++
				if count == idx {
					found = j
					break
				}
				continue
			}
			if k, ok := keyOf(e.text); ok && !e.dash && k == seg {
				found = j
				break
			}
		}
		if found < 0 {
			return line
		}
		line = list[found].line
		parent = list[found].indent
		pos = found + 1
	}
	return line
}
