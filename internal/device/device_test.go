package device

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foodgrid/backend-pos/internal/app"
)

type fakeRepo struct {
	hashes map[string]string
}

func (f *fakeRepo) StaffPINHash(_ context.Context, outletID string) (string, error) {
	hash, ok := f.hashes[outletID]
	if !ok {
		return "", ErrOutletNotFound
	}
	return hash, nil
}

func testSigner() app.DeviceTokenSigner {
	return app.DeviceTokenSigner{Secret: []byte("test-secret"), Issuer: "foodgrid", TTL: time.Hour}
}

func register(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, "/devices/register", &buf)
	rec := httptest.NewRecorder()
	h.Register(rec, req)
	return rec
}

func TestRegisterIssuesToken(t *testing.T) {
	hash, err := app.HashStaffPIN("4321")
	require.NoError(t, err)
	h := NewHandler(&fakeRepo{hashes: map[string]string{"outlet-1": hash}}, testSigner())

	rec := register(t, h, map[string]any{
		"outletId":   "outlet-1",
		"deviceName": "Counter 1",
		"staffPin":   "4321",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var env struct {
		Data struct {
			DeviceID string `json:"deviceId"`
			Token    string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data.Token)

	deviceID, outletID, err := testSigner().Verify(env.Data.Token)
	require.NoError(t, err)
	require.Equal(t, env.Data.DeviceID, deviceID)
	require.Equal(t, "outlet-1", outletID)
}

func TestRegisterWrongPIN(t *testing.T) {
	hash, err := app.HashStaffPIN("4321")
	require.NoError(t, err)
	h := NewHandler(&fakeRepo{hashes: map[string]string{"outlet-1": hash}}, testSigner())

	rec := register(t, h, map[string]any{
		"outletId":   "outlet-1",
		"deviceName": "Counter 1",
		"staffPin":   "9999",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterUnknownOutlet(t *testing.T) {
	h := NewHandler(&fakeRepo{hashes: map[string]string{}}, testSigner())
	rec := register(t, h, map[string]any{
		"outletId":   "outlet-404",
		"deviceName": "Counter 1",
		"staffPin":   "4321",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireTokenMiddleware(t *testing.T) {
	signer := testSigner()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := RequireToken(signer)(next)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := signer.Sign("dev-1", "outlet-1")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
