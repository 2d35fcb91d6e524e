package cart

import (
	"net/http"
	"strings"

	"github.com/foodgrid/backend-pos/internal/common"
)

// SessionHeader carries the opaque cart session id issued by
// POST /cart/session.
const SessionHeader = "X-Cart-Session"

// SessionMiddleware lifts the cart session id from the request header
// into the context so handlers and logging can reach it.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
			r = r.WithContext(common.WithSessionID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests that did not present a session id.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.SessionID(r.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "SESSION_REQUIRED", "missing "+SessionHeader+" header", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
