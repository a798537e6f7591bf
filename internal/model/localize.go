package model

import (
	"strings"

	"golang.org/x/text/language"
)

// Localize picks the best text for lang. Regional tags fall back to their
// base language ("fr-CA" matches "fr"), then to "en", then to the first
// translation in sorted order.
func Localize(t LocalizedText, lang string) string {
	if len(t.Translations) == 0 {
		return t.Text
	}
	if v, ok := t.Translations[lang]; ok {
		return v
	}
	langs := t.Languages()
	if tag, err := language.Parse(strings.TrimSpace(lang)); err == nil {
		base, _ := tag.Base()
		for _, l := range langs {
			candidate, err := language.Parse(l)
			if err != nil {
				continue
			}
			if b, _ := candidate.Base(); b == base {
				return t.Translations[l]
			}
		}
	}
	if v, ok := t.Translations["en"]; ok {
		return v
	}
	return t.Translations[langs[0]]
}

// IsLanguageMap reports whether every key of m is a language tag and every
// value a string, which is how localized texts appear in untyped documents.
func IsLanguageMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k, v := range m {
		if _, ok := v.(string); !ok {
			return false
		}
		if len(k) < 2 || (len(k) > 3 && !strings.Contains(k, "-")) {
			return false
		}
		if _, err := language.Parse(k); err != nil {
			return false
		}
	}
	return true
}

// LocalizeAny localizes a string or language map found in untyped data.
func LocalizeAny(v any, lang string) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case map[string]any:
		if !IsLanguageMap(t) {
			return "", false
		}
		tr := make(map[string]string, len(t))
		for k, s := range t {
			tr[k] = s.(string)
		}
		return Localize(LocalizedText{Translations: tr}, lang), true
	case map[string]string:
		return Localize(LocalizedText{Translations: t}, lang), true
	}
	return "", false
}
