/**
 * @description
 * Authentication middleware for the fund-release engine's internal endpoints.
 */
package api

import (
	"net/http"
)

// InternalAuthMiddleware guards internal endpoints with a shared API key.
// An empty configured key disables the check (local development).
func InternalAuthMiddleware(requiredKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Internal-API-Key")
			if provided == "" || provided != requiredKey {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
