// Package names generates unique display names for new workspace entities.
package names

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultTemplate renders "foo (1)", "foo (2)", ...
const DefaultTemplate = "{{name}} ({{n}})"

// IncrementName returns name if it is not taken, otherwise the first
// template rendering of name with n = 1, 2, ... that is free. A suffix
// already matching template is stripped from name first, so "foo (3)"
// restarts numbering from "foo".
func IncrementName(name string, taken []string, template string) string {
	if template == "" {
		template = DefaultTemplate
	}
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}

	base := stripSuffix(name, template)
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := render(template, base, n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

func render(template, name string, n int) string {
	out := strings.ReplaceAll(template, "{{name}}", name)
	return strings.ReplaceAll(out, "{{n}}", strconv.Itoa(n))
}

func stripSuffix(name, template string) string {
	re, err := templatePattern(template)
	if err != nil {
		return name
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	return m[re.SubexpIndex("name")]
}

func templatePattern(template string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	rest := template
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "{{name}}"):
			b.WriteString("(?P<name>.+?)")
			rest = rest[len("{{name}}"):]
		case strings.HasPrefix(rest, "{{n}}"):
			b.WriteString(`\d+`)
			rest = rest[len("{{n}}"):]
		default:
			next := len(rest)
			if i := strings.Index(rest, "{{"); i > 0 {
				next = i
			} else if i == 0 {
				next = 2
			}
			b.WriteString(regexp.QuoteMeta(rest[:next]))
			rest = rest[next:]
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
