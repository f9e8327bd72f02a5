package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/storegate/internal/locale"
	"github.com/meridian-labs/storegate/internal/testutil"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	return NewPolicy(locale.NewSet(), testutil.NewTestLogger(t))
}

// serve runs a request through the policy in front of a trivial handler
// and returns the recorder.
func serve(t *testing.T, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	h := newTestPolicy(t).Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func withAuth(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: AuthCookie, Value: "jwt-token"})
	return r
}

func TestProtectedRouteRedirectsToSignIn(t *testing.T) {
	for _, loc := range locale.Codes {
		for _, suffix := range []string{"/account", "/account/orders", "/account/orders/42"} {
			path := "/" + loc + suffix
			t.Run(path, func(t *testing.T) {
				w := serve(t, httptest.NewRequest(http.MethodGet, path, nil))

				require.Equal(t, http.StatusFound, w.Code)
				u, err := url.Parse(w.Header().Get("Location"))
				require.NoError(t, err)
				assert.Equal(t, "/"+loc+"/sign-in", u.Path)
				assert.Equal(t, path, u.Query().Get("redirect"))
			})
		}
	}
}

func TestAdminRouteRedirectsToSignIn(t *testing.T) {
	w := serve(t, httptest.NewRequest(http.MethodGet, "/en/admin/chat-analytics", nil))

	require.Equal(t, http.StatusFound, w.Code)
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/en/sign-in", u.Path)
}

func TestProtectedRouteWithTokenPassesThrough(t *testing.T) {
	w := serve(t, withAuth(httptest.NewRequest(http.MethodGet, "/en/account", nil)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestLocaleLikePrefixIsNotALocale(t *testing.T) {
	// "/english/page" must not parse as locale "en" + "/glish/page": it is
	// a locale-less path and gets a locale redirect, never a sign-in one.
	w := serve(t, httptest.NewRequest(http.MethodGet, "/english/page", nil))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/en/english/page", w.Header().Get("Location"))
}

func TestSignInWithTokenRedirectsToAccount(t *testing.T) {
	w := serve(t, withAuth(httptest.NewRequest(http.MethodGet, "/de/sign-in", nil)))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/de/account", w.Header().Get("Location"))
}

func TestSignInWithoutTokenPassesThrough(t *testing.T) {
	w := serve(t, httptest.NewRequest(http.MethodGet, "/de/sign-in", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLocaleRedirect(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		cookie string
		want   string
	}{
		{"root default", "/", "", "", "/en"},
		{"root accept-language", "/", "ja-JP,ja;q=0.9", "", "/ja"},
		{"root cookie", "/", "fr", "pl", "/pl"},
		{"section", "/products", "de", "", "/de/products"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: locale.CookieName, Value: tt.cookie})
			}

			w := serve(t, r)
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestCacheHeadersOnPublicStaticRoutes(t *testing.T) {
	for _, path := range []string{"/", "/en", "/en/products", "/de/company/about", "/fr/support", "/pl/resources"} {
		t.Run(path, func(t *testing.T) {
			w := serve(t, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, CacheControl, w.Header().Get("Cache-Control"))
			assert.Contains(t, w.Header().Get("Vary"), "Accept-Language")
		})
	}
}

func TestNoCacheHeaders(t *testing.T) {
	t.Run("protected route without token", func(t *testing.T) {
		w := serve(t, httptest.NewRequest(http.MethodGet, "/en/account", nil))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("public route with auth cookie", func(t *testing.T) {
		w := serve(t, withAuth(httptest.NewRequest(http.MethodGet, "/en/products", nil)))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("POST to public route", func(t *testing.T) {
		w := serve(t, httptest.NewRequest(http.MethodPost, "/en/products", nil))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("non-section page", func(t *testing.T) {
		w := serve(t, httptest.NewRequest(http.MethodGet, "/en/checkout", nil))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})
}

func TestBypass(t *testing.T) {
	t.Run("api routes skip the policy", func(t *testing.T) {
		w := serve(t, httptest.NewRequest(http.MethodGet, "/api/exchange-rates", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Cache-Control"))
	})

	t.Run("static assets skip the policy", func(t *testing.T) {
		w := serve(t, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
