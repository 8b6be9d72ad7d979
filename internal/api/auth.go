package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth rejects any request whose Authorization header does not carry
// the expected bearer token. The comparison is constant-time.
func BearerAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "missing bearer token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), expected) != 1 {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
