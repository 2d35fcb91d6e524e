package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithAndFrom(t *testing.T) {
	ctx := With(context.Background(), "brand-a")
	got, ok := From(ctx)
	require.True(t, ok)
	require.Equal(t, "brand-a", got)

	_, ok = From(context.Background())
	require.False(t, ok)

	_, ok = From(With(context.Background(), "   "))
	require.False(t, ok)
}

func TestPrefixKey(t *testing.T) {
	require.Equal(t, "brand-a:foodgrid-cart:s1", PrefixKey("brand-a", "foodgrid-cart:s1"))
	require.Equal(t, "foodgrid-cart:s1", PrefixKey("", "foodgrid-cart:s1"))
}

func TestKeyFromContext(t *testing.T) {
	ctx := With(context.Background(), "brand-a")
	require.Equal(t, "brand-a:menu:list:o1", KeyFromContext(ctx, "menu:list:o1"))
	require.Equal(t, "menu:list:o1", KeyFromContext(context.Background(), "menu:list:o1"))
}

func tenantSeen(r *Resolver, req *http.Request) string {
	var got string
	h := r.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		got, _ = From(req.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestResolveFromHeader(t *testing.T) {
	r := NewResolver("X-Tenant-ID", "foodgrid.app", "default")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "spice-route")
	require.Equal(t, "spice-route", tenantSeen(r, req))
}

func TestResolveFromSubdomain(t *testing.T) {
	r := NewResolver("", "foodgrid.app", "default")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "dosa-house.foodgrid.app:443"
	require.Equal(t, "dosa-house", tenantSeen(r, req))
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r := NewResolver("", "foodgrid.app", "default")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "foodgrid.app"
	require.Equal(t, "default", tenantSeen(r, req))
}
