// Package sso implements the SAML 2.0 service-provider side of dashboard login.
//
// # Overview
//
// The Orchestrator builds outbound authentication requests (browser redirect
// to the identity provider) and validates the signed assertion the browser
// posts back. Trust in the identity provider comes from its metadata XML:
// the signing certificates and SSO endpoint are extracted at startup and are
// immutable for the process lifetime.
//
// # Flow
//
//	GET /saml/login     -> BeginLogin    -> 302 to IdP
//	POST /auth/callback -> CompleteLogin -> Identity (or AuthError)
//
// The orchestrator is stateless per call; session issuance belongs to
// pkg/session and is performed by the HTTP layer after CompleteLogin
// succeeds.
//
// # Errors
//
// ProtocolConfigError is fatal: the trust configuration cannot produce a
// valid request and the SSO routes must not be served. AuthError is the
// per-request outcome for any invalid assertion; its Reason is a short code
// safe to log and to echo as a generic 401, while the wrapped cause stays
// server-side.
//
// # Related Packages
//
//   - pkg/identity: attribute-to-identity mapping invoked on success
//   - pkg/session: stores the identity under an opaque session token
package sso
