package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/session"
)

func guardFixture(t *testing.T, role identity.Role) (*AuthGuard, *session.Session, *session.Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	store := session.NewStore(8*time.Hour, clock, nil)
	guard := NewAuthGuard(store)

	sess, err := store.Issue(&identity.Identity{
		ID:    "a@x.com",
		Email: "a@x.com",
		Role:  role,
	})
	require.NoError(t, err)
	return guard, sess, store, clock
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

func TestAuthGuard_RequireSession(t *testing.T) {
	guard, sess, _, clock := guardFixture(t, identity.RoleOperator)

	var seen *identity.Identity
	handler := guard.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromRequest(r)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication required")
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(sessionCookie("dash_never-issued"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid session", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(sessionCookie(sess.Token))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "a@x.com", seen.Email)
		assert.Equal(t, identity.RoleOperator, seen.Role)
	})

	t.Run("expired session", func(t *testing.T) {
		clock.Advance(9 * time.Hour)

		req := httptest.NewRequest("GET", "/me", nil)
		req.AddCookie(sessionCookie(sess.Token))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthGuard_RequireRole(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("matching role passes", func(t *testing.T) {
		guard, sess, _, _ := guardFixture(t, identity.RoleOperator)
		handler := guard.RequireRole(identity.RoleOperator, okHandler)

		req := httptest.NewRequest("POST", "/api/assign", nil)
		req.AddCookie(sessionCookie(sess.Token))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("admin satisfies any role", func(t *testing.T) {
		guard, sess, _, _ := guardFixture(t, identity.RoleAdmin)
		handler := guard.RequireRole(identity.RoleOperator, okHandler)

		req := httptest.NewRequest("POST", "/api/assign", nil)
		req.AddCookie(sessionCookie(sess.Token))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("plain user is forbidden", func(t *testing.T) {
		guard, sess, _, _ := guardFixture(t, identity.RoleUser)
		handler := guard.RequireRole(identity.RoleOperator, okHandler)

		req := httptest.NewRequest("POST", "/api/assign", nil)
		req.AddCookie(sessionCookie(sess.Token))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("no session is unauthorized, not forbidden", func(t *testing.T) {
		guard, _, _, _ := guardFixture(t, identity.RoleUser)
		handler := guard.RequireRole(identity.RoleOperator, okHandler)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/assign", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentityFromRequest_Unguarded(t *testing.T) {
	assert.Nil(t, IdentityFromRequest(httptest.NewRequest("GET", "/health", nil)))
}
