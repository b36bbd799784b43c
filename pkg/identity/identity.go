package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the access level derived from group membership
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleUser     Role = "user"
)

// ErrMissingAttribute indicates a required assertion attribute was absent
var ErrMissingAttribute = errors.New("missing required attribute")

// Identity is the canonical representation of an authenticated user.
// It is immutable once constructed and rebuilt fresh on every SSO login.
type Identity struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name,omitempty"`
	Role   Role     `json:"role"`
	Groups []string `json:"groups"`
}

// Attributes holds assertion attributes as name -> values. Single values
// arrive as one-element slices.
type Attributes map[string][]string

// Mapper resolves assertion attributes into an Identity
type Mapper struct {
	cfg *MappingConfig
}

// NewMapper creates a mapper; a nil config uses the compiled-in defaults
func NewMapper(cfg *MappingConfig) *Mapper {
	if cfg == nil {
		cfg = DefaultMappingConfig()
	}
	return &Mapper{cfg: cfg}
}

// Map builds an Identity from the provider-supplied subject identifier and
// attribute set. The subject takes precedence for email resolution; if no
// email can be resolved at all the mapping fails with ErrMissingAttribute.
func (m *Mapper) Map(subject string, attrs Attributes) (*Identity, error) {
	email := subject
	if email == "" {
		email = getAttribute(attrs, m.cfg.Aliases.Email...)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email", ErrMissingAttribute)
	}

	givenName := getAttribute(attrs, m.cfg.Aliases.GivenName...)
	surname := getAttribute(attrs, m.cfg.Aliases.Surname...)

	var nameParts []string
	if givenName != "" {
		nameParts = append(nameParts, givenName)
	}
	if surname != "" {
		nameParts = append(nameParts, surname)
	}

	groups := getAttributeValues(attrs, m.cfg.Aliases.Groups...)

	return &Identity{
		ID:     email,
		Email:  email,
		Name:   strings.Join(nameParts, " "),
		Role:   m.DeriveRole(groups),
		Groups: groups,
	}, nil
}

// DeriveRole scans groups against the admin markers, then the operator
// markers. Matching is substring-contains; an admin match anywhere wins over
// any operator match.
func (m *Mapper) DeriveRole(groups []string) Role {
	for _, group := range groups {
		for _, marker := range m.cfg.AdminGroups {
			if strings.Contains(group, marker) {
				return RoleAdmin
			}
		}
	}
	for _, group := range groups {
		for _, marker := range m.cfg.OperatorGroups {
			if strings.Contains(group, marker) {
				return RoleOperator
			}
		}
	}
	return RoleUser
}

// getAttribute tries each key in order and returns the first non-empty value.
// List values are unwrapped to their first element.
func getAttribute(attrs Attributes, keys ...string) string {
	for _, key := range keys {
		if values, ok := attrs[key]; ok && len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return ""
}

// getAttributeValues tries each key in order and returns all values of the
// first key present, preserving the order they appear in the assertion.
func getAttributeValues(attrs Attributes, keys ...string) []string {
	for _, key := range keys {
		if values, ok := attrs[key]; ok && len(values) > 0 {
			out := make([]string, 0, len(values))
			for _, v := range values {
				if v != "" {
					out = append(out, v)
				}
			}
			return out
		}
	}
	return nil
}
