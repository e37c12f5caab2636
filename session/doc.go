// Package session holds the client-side session: the bearer token, the
// current user profile, and the authorization predicates derived from it.
//
// # Token-driven authentication
//
// IsAuthenticated is recomputed from token presence on every token change.
// The user profile may lag the token during startup (token restored, profile
// not yet fetched); IsAuthenticated does not wait for it.
//
// # Persistence
//
// Only the token is persisted, through a [TokenStorage]. The record shape is
// {"state":{"token":"..."},"version":0} under a fixed key. The profile and its
// permissions are never persisted and are refetched on every start.
//
// # What this package must NOT do
//
//   - Talk to the remote API (the Client runs the startup protocol).
//   - Let callers mutate [State] in place; every read returns a copy.
package session
