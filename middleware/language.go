package middleware

import (
	"net/http"

	"golang.org/x/text/language"

	"github.com/StrayDragon/flask-x-openapi-schema-sub001/i18n"
	"github.com/StrayDragon/flask-x-openapi-schema-sub001/router"
)

// LanguageConfig configures the Language middleware behaviour.
type LanguageConfig struct {
	// QueryParam is the query parameter checked for an explicit language
	// override. Defaults to "lang" when empty. Set to "-" to disable the
	// query override.
	QueryParam string
}

// Language returns a middleware that resolves the request language and
// stores it in the request context. An explicit query parameter wins over
// the Accept-Language header; both are matched against the registered
// message catalog languages, falling back to the process-wide default.
// Downstream handlers read the result with i18n.FromContext.
func Language(cfg LanguageConfig) router.MiddlewareFunc {
	queryParam := cfg.QueryParam
	if queryParam == "" {
		queryParam = "lang"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := i18n.Default()

			switch {
			case queryParam != "-" && r.URL.Query().Get(queryParam) != "":
				if tag, err := language.Parse(r.URL.Query().Get(queryParam)); err == nil {
					lang = i18n.Match(tag)
				}
			case r.Header.Get("Accept-Language") != "":
				lang = i18n.MatchAcceptLanguage(r.Header.Get("Accept-Language"))
			}

			next.ServeHTTP(w, r.WithContext(i18n.WithLanguage(r.Context(), lang)))
		})
	}
}
