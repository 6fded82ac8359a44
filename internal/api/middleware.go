// Package api implements the Taproom REST API using chi.
package api

import (
	"net/http"

	"github.com/starford/taproom/internal/auth"
)

// ActorMiddleware resolves the caller from the Authorization header and puts
// it in the request context. Unauthenticated callers pass through as
// anonymous; handlers and services decide what they may do.
func ActorMiddleware(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := authn.Resolve(r.Context(), r.Header.Get("Authorization"))
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := auth.RequireAdmin(auth.FromContext(r.Context())); err != nil {
			writeError(w, r, "authorize", err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
