package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rackforge/dashgate/pkg/contextkeys"
	"github.com/rackforge/dashgate/pkg/httputil"
	"github.com/rackforge/dashgate/pkg/middleware"
	"github.com/rackforge/dashgate/pkg/observability"
	"github.com/rackforge/dashgate/pkg/session"
	"github.com/rackforge/dashgate/pkg/sso"
)

// AuthHandlers handles the SAML login flow and session lifecycle routes.
type AuthHandlers struct {
	config        Config
	authenticator Authenticator
	sessions      *session.Store
	guard         *middleware.AuthGuard
	logger        *observability.Logger
	metrics       *observability.Metrics
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(config Config, authenticator Authenticator, sessions *session.Store, guard *middleware.AuthGuard, logger *observability.Logger, metrics *observability.Metrics) *AuthHandlers {
	return &AuthHandlers{
		config:        config,
		authenticator: authenticator,
		sessions:      sessions,
		guard:         guard,
		logger:        logger,
		metrics:       metrics,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/saml/login", h.samlLogin).Methods("GET")
	router.HandleFunc("/saml/metadata", h.samlMetadata).Methods("GET")
	router.HandleFunc("/auth/callback", h.samlCallback).Methods("POST")

	router.Handle("/me", h.guard.RequireSession(http.HandlerFunc(h.me))).Methods("GET")
	router.Handle("/logout", h.guard.RequireSession(http.HandlerFunc(h.logout))).Methods("POST")
}

// samlLogin handles GET /saml/login
//
// Redirects the browser to the IdP with a fresh AuthnRequest. The optional
// redirect query parameter rides along as RelayState.
func (h *AuthHandlers) samlLogin(w http.ResponseWriter, r *http.Request) {
	relayState := r.URL.Query().Get("redirect")

	authURL, err := h.authenticator.BeginLogin(r, relayState)
	if err != nil {
		h.logger.WithError(err).Error("failed to build SAML auth request")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login unavailable")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// samlCallback handles POST /auth/callback
//
// Validates the IdP response, issues a session, sets the session cookie,
// and redirects to the frontend. No cookie is set on any failure path.
func (h *AuthHandlers) samlCallback(w http.ResponseWriter, r *http.Request) {
	samlResponse := r.FormValue("SAMLResponse")
	if samlResponse == "" {
		httputil.WriteBadRequest(w, "SAMLResponse is required")
		return
	}

	id, err := h.authenticator.CompleteLogin(r.Context(), samlResponse)
	if err != nil {
		var authErr *sso.AuthError
		if errors.As(err, &authErr) {
			h.logger.WithError(err).WithField("reason", authErr.Reason).Warn("SAML login rejected")
			if h.metrics != nil {
				h.metrics.LoginFailureTotal.WithLabelValues(authErr.Reason).Inc()
			}
			httputil.WriteUnauthorized(w, "authentication failed")
			return
		}

		h.logger.WithError(err).Error("SAML login failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login unavailable")
		return
	}

	sess, err := h.sessions.Issue(id)
	if err != nil {
		h.logger.WithError(err).Error("failed to issue session")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "login unavailable")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if h.metrics != nil {
		h.metrics.LoginSuccessTotal.WithLabelValues(string(id.Role)).Inc()
	}
	h.logger.WithFields(map[string]interface{}{
		"email": id.Email,
		"role":  string(id.Role),
	}).Info("login succeeded")

	http.Redirect(w, r, h.config.FrontendURL+"/auth/callback", http.StatusFound)
}

// samlMetadata handles GET /saml/metadata
func (h *AuthHandlers) samlMetadata(w http.ResponseWriter, r *http.Request) {
	metadata, err := h.authenticator.Metadata()
	if err != nil {
		h.logger.WithError(err).Error("failed to render SP metadata")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "metadata unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/samlmetadata+xml")
	w.Write(metadata)
}

// me handles GET /me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromRequest(r)
	if id == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteSuccess(w, id)
}

// logout handles POST /logout
//
// Revoke is idempotent, so replaying a logout with a dead token still
// succeeds.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	if token := contextkeys.GetSessionToken(r.Context()); token != "" {
		h.sessions.Revoke(token)
	}

	// Expire the cookie client-side as well
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.WriteSuccess(w, map[string]string{
		"status":  "success",
		"message": "logged out",
	})
}
