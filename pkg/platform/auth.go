package platform

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the shared secret checked by APIKey.
const APIKeyHeader = "X-API-Key"

// APIKey returns middleware that rejects requests whose X-API-Key header
// does not match key. An empty key disables the check.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
