package sso

import "fmt"

// ProtocolConfigError indicates the provider trust configuration cannot
// produce a valid SAML exchange. It is raised at startup or on BeginLogin and
// is fatal: the service must not serve SSO routes with broken trust config.
type ProtocolConfigError struct {
	Op  string
	Err error
}

func (e *ProtocolConfigError) Error() string {
	return fmt.Sprintf("saml config error during %s: %v", e.Op, e.Err)
}

func (e *ProtocolConfigError) Unwrap() error {
	return e.Err
}

// Assertion rejection reason codes. These are the only detail exposed to
// callers; the wrapped cause is for server-side logs.
const (
	ReasonMalformedResponse = "malformed_response"
	ReasonInvalidAssertion  = "invalid_assertion"
	ReasonStaleAssertion    = "stale_assertion"
	ReasonAudienceMismatch  = "audience_mismatch"
	ReasonUnmappable        = "unmappable_attributes"
)

// AuthError is a failed login attempt: the assertion was missing, invalid,
// expired, or could not be mapped to an identity. Callers surface it as a
// generic 401.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authErr(reason string, err error) *AuthError {
	return &AuthError{Reason: reason, Err: err}
}
