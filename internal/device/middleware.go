package device

import (
	"net/http"
	"strings"

	"github.com/foodgrid/backend-pos/internal/app"
	"github.com/foodgrid/backend-pos/internal/common"
)

// RequireToken guards admin endpoints behind a valid device token.
func RequireToken(signer app.DeviceTokenSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "device token required", nil)
				return
			}
			if _, _, err := signer.Verify(raw); err != nil {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "device token invalid or expired", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
