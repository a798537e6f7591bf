package schema

import "strings"

// Keys starting with "template" are free-form expressions that may contain
// dots, which clash with path-based editors. RemoveTemplateDots escapes them
// ("_" -> "_u", "." -> "_d") and GetBackTemplateDots reverses the escape.

const templatePrefix = "template"

func RemoveTemplateDots(v any) any {
	return rewriteKeys(v, escapeTemplateKey)
}

func GetBackTemplateDots(v any) any {
	return rewriteKeys(v, unescapeTemplateKey)
}

func rewriteKeys(v any, fn func(string) string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			if strings.HasPrefix(k, templatePrefix) {
				k = fn(k)
			}
			out[k] = rewriteKeys(x, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = rewriteKeys(x, fn)
		}
		return out
	}
	return v
}

func escapeTemplateKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '_':
			b.WriteString("_u")
		case '.':
			b.WriteString("_d")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapeTemplateKey(k string) string {
	var b strings.Builder
	for i := 0; i < len(k); i++ {
		if k[i] == '_' && i+1 < len(k) {
			switch k[i+1] {
			case 'u':
				b.WriteByte('_')
				i++
				continue
			case 'd':
				b.WriteByte('.')
				i++
				continue
			}
		}
		b.WriteByte(k[i])
	}
	return b.String()
}
