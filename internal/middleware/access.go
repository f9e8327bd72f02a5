// Package middleware implements the gateway's access policy: auth-gated
// route matching, locale redirects, and CDN cache headers for public pages.
package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/meridian-labs/storegate/internal/locale"
)

// AuthCookie is the cookie carrying the upstream-issued JWT. The policy
// only checks presence; token validation happens at the CMS.
const AuthCookie = "auth_token"

// CacheControl is the CDN policy attached to public static pages.
const CacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"

// protectedRoutes require an auth cookie, matched after stripping the
// locale prefix. Sub-paths are protected too.
var protectedRoutes = []string{
	"/account",
	"/account/profile",
	"/account/orders",
	"/account/favorites",
	"/account/quotes",
	"/account/settings",
}

// adminRoutes are gated the same way as protected routes.
var adminRoutes = []string{
	"/admin",
	"/admin/chat-analytics",
}

// publicSections are the top-level site sections eligible for CDN caching.
var publicSections = []string{
	"/products",
	"/company",
	"/support",
	"/resources",
}

// assetExtensions are served by the CDN directly; the policy never touches
// them.
var assetExtensions = map[string]struct{}{
	".html": {}, ".htm": {}, ".css": {}, ".js": {}, ".mjs": {},
	".jpg": {}, ".jpeg": {}, ".webp": {}, ".png": {}, ".gif": {}, ".svg": {},
	".ttf": {}, ".woff": {}, ".woff2": {}, ".ico": {},
	".csv": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".zip": {}, ".webmanifest": {},
}

// Policy decides, per request, whether to redirect (auth, locale) and which
// cache headers to emit. It holds no per-request state: the decision is a
// pure function of (path, cookies, method).
type Policy struct {
	locales *locale.Set
	logger  *slog.Logger
}

// NewPolicy builds the access policy over the supported locale set.
func NewPolicy(locales *locale.Set, logger *slog.Logger) *Policy {
	return &Policy{locales: locales, logger: logger}
}

// Handler wraps next with the access policy.
func (p *Policy) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqPath := r.URL.Path

		if p.bypass(reqPath) {
			next.ServeHTTP(w, r)
			return
		}

		code, rest := p.locales.Split(reqPath)
		isProtected := matchesAny(rest, protectedRoutes)
		isAdmin := matchesAny(rest, adminRoutes)
		hasToken := hasAuthCookie(r)
		loc := code
		if loc == "" {
			loc = p.locales.Detect(r)
		}

		// 1. Protected area without a token: send to sign-in, preserving
		// the destination.
		if (isProtected || isAdmin) && !hasToken {
			target := "/" + loc + "/sign-in?" + url.Values{"redirect": {reqPath}}.Encode()
			p.logger.Debug("redirecting unauthenticated request",
				"path", reqPath, "locale", loc)
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		// 2. Sign-in page with a token: the user already has a session.
		if isSignIn(rest) && hasToken {
			http.Redirect(w, r, "/"+loc+"/account", http.StatusFound)
			return
		}

		// 4 (evaluated before the base response is produced so the headers
		// apply to redirects as well as rendered pages). Cache headers are
		// only safe on public, non-personalized GETs.
		if r.Method == http.MethodGet && !isProtected && !isAdmin && !hasToken &&
			p.isPublicStatic(reqPath, code, rest) {
			w.Header().Set("Cache-Control", CacheControl)
			w.Header().Set("Vary", "Accept-Language, Cookie")
		}

		// 3. Locale detection: locale-less page paths redirect to their
		// locale-qualified form.
		if code == "" {
			target := "/" + loc
			if reqPath != "/" {
				target += reqPath
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bypass reports whether the path is outside the policy: API routes and
// static assets.
func (p *Policy) bypass(reqPath string) bool {
	if strings.HasPrefix(reqPath, "/api/") || reqPath == "/api" {
		return true
	}
	if ext := path.Ext(reqPath); ext != "" {
		if _, ok := assetExtensions[strings.ToLower(ext)]; ok {
			return true
		}
	}
	return false
}

// isPublicStatic reports whether the request path is on the fixed
// allow-list of cacheable pages: the homepage, locale homepages, and the
// public site sections (locale-prefixed or bare).
func (p *Policy) isPublicStatic(reqPath, code, rest string) bool {
	if reqPath == "/" {
		return true
	}
	if code != "" && (rest == "" || rest == "/") {
		return true
	}
	return matchesAny(rest, publicSections)
}

// matchesAny reports whether rest equals a route or is a sub-path of it.
// Matching is anchored on whole segments.
func matchesAny(rest string, routes []string) bool {
	for _, route := range routes {
		if rest == route || strings.HasPrefix(rest, route+"/") {
			return true
		}
	}
	return false
}

func isSignIn(rest string) bool {
	return rest == "/sign-in" || strings.HasPrefix(rest, "/sign-in/")
}

func hasAuthCookie(r *http.Request) bool {
	c, err := r.Cookie(AuthCookie)
	return err == nil && c.Value != ""
}
