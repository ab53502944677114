package i18n

import (
	"sort"

	"golang.org/x/text/language"
)

// String is a localized string literal: a map of BCP 47 language tags to
// translations. It is accepted by the spec builders wherever operation
// summaries and descriptions can vary by language.
//
//	summary := i18n.String{
//	    "en": "Create a pet",
//	    "zh": "创建宠物",
//	}
type String map[string]string

// In returns the best translation for the requested language. Exact tag
// string hits win; otherwise the translations' own languages are matched
// against the request. An empty String resolves to "".
func (s String) In(tag language.Tag) string {
	if len(s) == 0 {
		return ""
	}
	if v, ok := s[tag.String()]; ok {
		return v
	}

	// Sorted keys keep matcher fallback deterministic.
	sorted := make([]string, 0, len(s))
	for k := range s {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	keys := make([]string, 0, len(sorted))
	tags := make([]language.Tag, 0, len(sorted))
	for _, k := range sorted {
		parsed, err := language.Parse(k)
		if err != nil {
			continue
		}
		keys = append(keys, k)
		tags = append(tags, parsed)
	}
	if len(tags) == 0 {
		return ""
	}

	_, idx, _ := language.NewMatcher(tags).Match(tag)
	if idx < 0 || idx >= len(keys) {
		idx = 0
	}
	return s[keys[idx]]
}

// Resolve returns the translation for the process default language.
func (s String) Resolve() string {
	return s.In(Default())
}
