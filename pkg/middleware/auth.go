package middleware

import (
	"net/http"

	"github.com/rackforge/dashgate/pkg/contextkeys"
	"github.com/rackforge/dashgate/pkg/httputil"
	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/session"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "session_token"

// AuthGuard gates protected routes on a live session cookie
type AuthGuard struct {
	store *session.Store
}

// NewAuthGuard creates an auth guard over the session store
func NewAuthGuard(store *session.Store) *AuthGuard {
	return &AuthGuard{store: store}
}

// RequireSession rejects requests without a valid session and injects the
// resolved identity into the request context. Missing cookie, unknown token,
// and expired session are indistinguishable to the caller.
func (g *AuthGuard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		sess, ok := g.store.Lookup(cookie.Value)
		if !ok {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), &sess.Identity)
		ctx = contextkeys.WithSessionToken(ctx, sess.Token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole layers a role check on top of RequireSession. Admin satisfies
// every role requirement.
func (g *AuthGuard) RequireRole(role identity.Role, next http.Handler) http.Handler {
	return g.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromRequest(r)
		if id == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if id.Role != role && id.Role != identity.RoleAdmin {
			httputil.WriteForbidden(w, "insufficient role")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// IdentityFromRequest returns the identity injected by RequireSession, or
// nil on an unguarded route
func IdentityFromRequest(r *http.Request) *identity.Identity {
	if id, ok := r.Context().Value(contextkeys.IdentityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}
