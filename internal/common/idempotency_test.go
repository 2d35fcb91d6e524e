package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodgrid/backend-pos/internal/tenant"
)

func newIdem(t *testing.T) (Idem, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}, mr
}

func hit(i Idem, key string) *httptest.ResponseRecorder {
	h := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyFirstRequestPasses(t *testing.T) {
	i, _ := newIdem(t)
	rec := hit(i, "key-1")
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestIdempotencyReplayRejected(t *testing.T) {
	i, _ := newIdem(t)
	require.Equal(t, http.StatusCreated, hit(i, "key-1").Code)

	rec := hit(i, "key-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")
}

func TestIdempotencyDistinctKeysPass(t *testing.T) {
	i, _ := newIdem(t)
	require.Equal(t, http.StatusCreated, hit(i, "key-1").Code)
	require.Equal(t, http.StatusCreated, hit(i, "key-2").Code)
}

func TestIdempotencyNoHeaderSkipsCheck(t *testing.T) {
	i, _ := newIdem(t)
	require.Equal(t, http.StatusCreated, hit(i, "").Code)
	require.Equal(t, http.StatusCreated, hit(i, "").Code)
}

func TestIdempotencyKeysScopedByTenant(t *testing.T) {
	i, _ := newIdem(t)
	h := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	as := func(tenantID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set("Idempotency-Key", "key-1")
		req = req.WithContext(tenant.With(req.Context(), tenantID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, as("brand-a").Code)
	require.Equal(t, http.StatusCreated, as("brand-b").Code)
	require.Equal(t, http.StatusConflict, as("brand-a").Code)
}

func TestIdempotencyKeyExpires(t *testing.T) {
	i, mr := newIdem(t)
	require.Equal(t, http.StatusCreated, hit(i, "key-1").Code)

	mr.FastForward(2 * time.Minute)
	require.Equal(t, http.StatusCreated, hit(i, "key-1").Code)
}
