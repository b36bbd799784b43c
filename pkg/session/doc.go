// Package session stores authenticated identities behind opaque bearer
// tokens held in a browser cookie.
//
// # Overview
//
// Issue binds an identity to a fresh random token with a fixed time-to-live.
// Lookup returns the live session for a token, evicting it on the spot when
// the deadline has passed, so an expired session is never visible to callers
// even before the background sweep runs. Revoke deletes a session and is
// idempotent.
//
// The store is sharded by token hash; each shard carries its own lock so
// concurrent lookups do not serialize on a single mutex. Time comes from an
// injectable clock, which keeps expiry behavior testable without sleeping.
//
// # Usage Example
//
//	store := session.NewStore(8*time.Hour, nil, metrics)
//	go store.StartSweep(ctx, 5*time.Minute)
//
//	sess, err := store.Issue(id)
//	// set sess.Token as the session cookie value
//
// # Related Packages
//
//   - pkg/middleware: the auth guard resolves cookies through Lookup
//   - pkg/api: issues sessions on login and revokes them on logout
package session
