// Package middleware provides HTTP middleware for the KohakuHub API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kohakuhub/kohakuhub/pkg/hub/auth"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// Context key type for storing the authenticated principal.
type contextKey string

const userContextKey contextKey = "user"

// UserFromContext retrieves the authenticated user from the request
// context. Returns nil for anonymous requests.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithUser returns a context carrying the principal. Exposed for
// handler tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Authenticator resolves request credentials into principals.
type Authenticator struct {
	resolver *auth.Resolver
}

// NewAuthenticator creates the auth middleware.
func NewAuthenticator(resolver *auth.Resolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Optional authenticates the request when credentials are present and
// lets anonymous requests through. Presented-but-invalid credentials
// are rejected rather than downgraded to anonymous.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := a.resolve(r)
		if err != nil {
			unauthorized(w, r)
			return
		}
		if ok {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without an authenticated principal. It
// assumes Optional already ran.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolve tries Bearer first, then HTTP Basic as used by git clients
// (username + API token). ok is false when no credential was presented.
func (a *Authenticator) resolve(r *http.Request) (user *models.User, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false, nil
	}

	if credential, found := strings.CutPrefix(header, "Bearer "); found {
		user, err := a.resolver.ResolveBearer(r.Context(), credential)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	}

	if username, password, found := r.BasicAuth(); found {
		user, err := a.resolver.ResolveBasic(r.Context(), username, password)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	}

	return nil, false, auth.ErrAuthRequired
}

// unauthorized writes a 401 in the hub error shape, challenging git
// clients with Basic auth.
func unauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, ".git/") {
		w.Header().Set("WWW-Authenticate", `Basic realm="kohakuhub"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", "auth-required")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
