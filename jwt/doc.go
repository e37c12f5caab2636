// Package jwt reads bearer tokens on the client side and issues them for
// local fake backends.
//
// [Inspect] decodes claims without verifying the signature. The result is
// for display and diagnostics only (expiry countdowns, "logged in as"); the
// server remains the only authority on whether a token is valid.
//
// [Manager] signs and verifies tokens with HS256 or Ed25519 keys. Clients
// never hold the signing key; the manager exists for test backends and
// local tooling that stand in for the real server.
package jwt
