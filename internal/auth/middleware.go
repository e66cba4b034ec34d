package auth

import "net/http"

// RequireSession lets a request through only when it carries a valid
// credential. Otherwise onDenied handles it; every failure cause is treated
// the same.
func RequireSession(gate *Gate, onDenied http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.Verify(TokenFromRequest(r)) {
				onDenied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
