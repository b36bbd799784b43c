// Package identity maps SAML assertion attributes to dashboard identities.
//
// # Overview
//
// This package turns the raw attribute set from a validated assertion into a
// canonical Identity with a derived role. Attribute names vary by identity
// provider (Microsoft IdPs send long-form URI claim names, others send short
// names), so every field resolves through an ordered alias list.
//
// # Role Derivation
//
// Roles are a pure function of group membership. Group names are matched by
// substring against two ordered marker sets, admin markers before operator
// markers:
//
//	admin:    Dashboard-Admins, IT-Admins
//	operator: Dashboard-Operators, IT-Operators
//
// A group named "Dashboard-Admins-EU" matches the "Dashboard-Admins" marker.
// Anyone with an admin match is an admin regardless of other groups; with no
// match at all the role is RoleUser.
//
// # Usage Example
//
//	mapper := identity.NewMapper(identity.DefaultMappingConfig())
//	id, err := mapper.Map(nameID, attrs)
//	if err != nil {
//		// errors.Is(err, identity.ErrMissingAttribute)
//	}
//
// Marker sets and attribute aliases can be overridden from a YAML file via
// LoadMappingConfig.
//
// # Related Packages
//
//   - pkg/sso: extracts attributes from validated assertions and calls Map
//   - pkg/session: stores the resulting Identity keyed by session token
package identity
