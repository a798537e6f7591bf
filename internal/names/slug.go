package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SlugTemplate renders "foo-1", "foo-2", ... for IncrementName.
const SlugTemplate = "{{name}}-{{n}}"

// Slugify lowercases s, drops accents and joins the remaining ASCII letters
// and digits with single dashes. "Été à Paris!" becomes "ete-a-paris".
func Slugify(s string) string {
	t, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		t = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(t) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// UniqueSlug slugifies name (or fallback when nothing is left) and makes it
// unique among taken.
func UniqueSlug(name, fallback string, taken []string) string {
	slug := Slugify(name)
	if slug == "" {
		slug = fallback
	}
	for _, t := range taken {
		if t == slug {
			return IncrementName(slug, taken, SlugTemplate)
		}
	}
	return slug
}
