package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/response"
)

// Identity is the authenticated principal attached to a request.
type Identity interface {
	IdentityID() string
	HasRole(role string) bool
}

// Authenticator resolves a bearer token to an active identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

type AuthenticatorFunc func(ctx context.Context, token string) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id != nil
}

const missingCredentials = "Authentication credentials were not provided."

// Auth requires an "Authorization: Bearer <token>" header.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return authenticate(a, false)
}

// AuthQuery also accepts ?token=, for clients such as browsers opening a
// WebSocket that cannot set headers.
func AuthQuery(a Authenticator) func(http.Handler) http.Handler {
	return authenticate(a, true)
}

func authenticate(a Authenticator, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				response.Unauthorized(w, missingCredentials)
				return
			}

			id, err := a.Authenticate(r.Context(), token)
			if err != nil {
				e := apperr.From(err)
				if e.Kind == apperr.KindInternal {
					logger.WithCtx(r.Context()).Error("authenticate", "error", err)
				}
				response.Error(w, e.Status(), e.Message)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", id.IdentityID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
