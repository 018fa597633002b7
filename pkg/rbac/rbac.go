// Package rbac gates routes on the caller's role memberships.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/pkg/middleware"
	"github.com/shashiranjanraj/meetup/pkg/response"
)

const permissionDenied = "You do not have permission to perform this action."

// HasRole admits callers holding at least one of roles. It must run after
// middleware.Auth.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := middleware.IdentityFromCtx(r.Context())
			if !ok {
				response.Unauthorized(w, "")
				return
			}
			for _, role := range roles {
				if id.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, permissionDenied)
		})
	}
}
