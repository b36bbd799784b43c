// Package contextkeys provides centralized context key definitions
//
// All context keys used across the gateway are defined here. This prevents
// typos, documents which middleware sets what, and makes key usage
// discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *identity.Identity
	// Set by: middleware.AuthGuard (pkg/middleware/auth.go)
	// Required by: all protected API endpoints
	IdentityKey Key = "identity"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: audit middleware (pkg/middleware/audit.go)
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"

	// SessionTokenKey contains the raw session token string
	// Set by: middleware.AuthGuard
	// Used by: the logout handler to revoke the caller's own session
	SessionTokenKey Key = "session_token"
)

// WithIdentity adds the authenticated identity to the context
func WithIdentity(ctx context.Context, id interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithSessionToken adds the raw session token to the context
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetSessionToken retrieves the raw session token from context
func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}
