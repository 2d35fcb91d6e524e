package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeadersApplied(t *testing.T) {
	h := Headers{Enable: true}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHeadersHSTS(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 3600, HSTSIncludeSubdomains: true}.
		Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://pos.foodgrid.app/", nil))

	hsts := rec.Header().Get("Strict-Transport-Security")
	require.Contains(t, hsts, "max-age=3600")
	require.Contains(t, hsts, "includeSubDomains")
}

func TestHeadersDisabled(t *testing.T) {
	h := Headers{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Empty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimitRejectsOversize(t *testing.T) {
	h := BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	big := strings.NewReader(strings.Repeat("x", 64))
	req := httptest.NewRequest(http.MethodPost, "/cart/items", big)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitAllowsSmallBody(t *testing.T) {
	h := BodyLimit{Max: 1024}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"quantity":1}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
