// Package locale implements locale detection and path handling for the
// storefront's locale-prefixed URL scheme (/en/products, /de/account, ...).
package locale

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Codes is the closed set of locales the storefront ships translations for.
// The order matters: it is the preference order used when negotiating
// Accept-Language, with the default locale first.
var Codes = []string{"en", "de", "fr", "es", "ja", "zh", "vi", "ar", "th", "pl", "hi"}

// Default is the locale used when nothing else matches.
const Default = "en"

// CookieName is the cookie the front end uses to pin a locale choice.
const CookieName = "NEXT_LOCALE"

// Set resolves locales for incoming requests.
type Set struct {
	codes   map[string]struct{}
	matcher language.Matcher
}

// NewSet builds a Set over the supported locale codes.
func NewSet() *Set {
	codes := make(map[string]struct{}, len(Codes))
	tags := make([]language.Tag, 0, len(Codes))
	for _, c := range Codes {
		codes[c] = struct{}{}
		tags = append(tags, language.MustParse(c))
	}
	return &Set{
		codes:   codes,
		matcher: language.NewMatcher(tags),
	}
}

// Contains reports whether code is a supported locale.
func (s *Set) Contains(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// Split strips a leading locale segment from path and returns the locale
// and the remainder. The prefix only counts when it is a complete path
// segment: "/en/page" splits into ("en", "/page") but "/english/page" is
// not locale "en" followed by "/glish/page". When no locale prefix is
// present the locale is empty and the path is returned unchanged.
func (s *Set) Split(path string) (code, rest string) {
	if len(path) < 2 || path[0] != '/' {
		return "", path
	}
	seg := path[1:]
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if !s.Contains(seg) {
		return "", path
	}
	rest = path[1+len(seg):]
	return seg, rest
}

// Detect picks the locale for a request: the path prefix wins, then the
// locale cookie, then Accept-Language negotiation, then the default.
func (s *Set) Detect(r *http.Request) string {
	if code, _ := s.Split(r.URL.Path); code != "" {
		return code
	}
	if c, err := r.Cookie(CookieName); err == nil && s.Contains(c.Value) {
		return c.Value
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			if _, idx, conf := s.matcher.Match(tags...); conf > language.No {
				return Codes[idx]
			}
		}
	}
	return Default
}
