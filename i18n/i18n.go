// Package i18n provides the language register used to produce localized
// strings inside generated OpenAPI documents.
//
// A process-wide default language can be changed with SetDefault. The
// per-request language travels in the request context (see WithLanguage and
// the middleware package). Message catalogs are registered per language and
// looked up with T, falling back across registered languages using BCP 47
// matching.
//
//	i18n.Register(language.English, map[string]string{
//	    "pet.name": "The display name of the pet",
//	})
//	i18n.Register(language.SimplifiedChinese, map[string]string{
//	    "pet.name": "宠物的显示名称",
//	})
//
//	i18n.T(language.English, "pet.name") // "The display name of the pet"
package i18n

import (
	"context"
	"sync"

	"golang.org/x/text/language"
)

// register holds the process-wide language state: the default language,
// the message catalogs and a matcher over registered languages.
// Reads vastly outnumber writes; registration normally happens once at
// startup.
var register = struct {
	mu      sync.RWMutex
	def     language.Tag
	catalog map[language.Tag]map[string]string
	tags    []language.Tag
	matcher language.Matcher
}{
	def:     language.English,
	catalog: make(map[language.Tag]map[string]string),
}

// Default returns the process-wide default language.
func Default() language.Tag {
	register.mu.RLock()
	defer register.mu.RUnlock()
	return register.def
}

// SetDefault changes the process-wide default language. It is used when a
// request carries no language information and as the matcher fallback.
func SetDefault(tag language.Tag) {
	register.mu.Lock()
	defer register.mu.Unlock()
	register.def = tag
	rebuildMatcher()
}

// Register merges messages into the catalog for the given language and
// makes the language available for matching. Existing keys are overwritten.
func Register(tag language.Tag, messages map[string]string) {
	register.mu.Lock()
	defer register.mu.Unlock()

	existing, ok := register.catalog[tag]
	if !ok {
		existing = make(map[string]string, len(messages))
		register.catalog[tag] = existing
	}
	for k, v := range messages {
		existing[k] = v
	}
	rebuildMatcher()
}

// Languages returns the registered catalog languages. The default language
// is always first, making it the matcher fallback.
func Languages() []language.Tag {
	register.mu.RLock()
	defer register.mu.RUnlock()
	out := make([]language.Tag, len(register.tags))
	copy(out, register.tags)
	return out
}

// Reset clears all registered catalogs and restores the default language
// to English. Intended for tests.
func Reset() {
	register.mu.Lock()
	defer register.mu.Unlock()
	register.def = language.English
	register.catalog = make(map[language.Tag]map[string]string)
	register.tags = nil
	register.matcher = nil
}

// rebuildMatcher recomputes the ordered language list and matcher.
// Callers must hold the write lock.
func rebuildMatcher() {
	tags := make([]language.Tag, 0, len(register.catalog)+1)
	tags = append(tags, register.def)
	for tag := range register.catalog {
		if tag != register.def {
			tags = append(tags, tag)
		}
	}
	register.tags = tags
	register.matcher = language.NewMatcher(tags)
}

// T returns the message for key in the requested language. Lookup order:
// exact catalog hit, best matching registered language, then the key itself
// so missing translations remain visible instead of producing empty strings.
func T(tag language.Tag, key string) string {
	register.mu.RLock()
	defer register.mu.RUnlock()

	if msgs, ok := register.catalog[tag]; ok {
		if v, ok := msgs[key]; ok {
			return v
		}
	}

	if register.matcher != nil {
		_, idx, _ := register.matcher.Match(tag)
		if idx >= 0 && idx < len(register.tags) {
			if msgs, ok := register.catalog[register.tags[idx]]; ok {
				if v, ok := msgs[key]; ok {
					return v
				}
			}
		}
	}

	return key
}

// Match returns the best registered language for the given preferences,
// falling back to the default language when nothing matches or no catalog
// has been registered.
func Match(prefs ...language.Tag) language.Tag {
	register.mu.RLock()
	defer register.mu.RUnlock()

	if register.matcher == nil || len(register.tags) == 0 {
		return register.def
	}
	_, idx, _ := register.matcher.Match(prefs...)
	if idx < 0 || idx >= len(register.tags) {
		return register.def
	}
	return register.tags[idx]
}

// MatchAcceptLanguage parses an Accept-Language header value (RFC 9110
// Section 12.5.4) and returns the best registered language. Malformed or
// empty headers fall back to the default language.
func MatchAcceptLanguage(header string) language.Tag {
	if header == "" {
		return Default()
	}
	prefs, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(prefs) == 0 {
		return Default()
	}
	return Match(prefs...)
}

// langContextKey is an unexported type for the context key.
type langContextKey struct{}

// WithLanguage returns a context carrying the given request language.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, langContextKey{}, tag)
}

// FromContext returns the language stored in the context, or the
// process-wide default when none is set.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(langContextKey{}).(language.Tag); ok {
		return tag
	}
	return Default()
}
