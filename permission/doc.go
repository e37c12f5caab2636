// Package permission implements the permission gate: pure predicates over a
// user's permission list, the closed set of permission names known to this
// client, and a registry-backed [Set] for repeated checks.
//
// # Advisory only
//
// Every result of this package controls presentation (hide a button, redirect
// a route). It is never an authorization decision: the remote API re-checks
// each request independently. Do not use gate results as a security boundary.
//
// # Known and unknown names
//
// Names listed in [Known] get a stable bit in the [DefaultRegistry] and are
// checked against a bitmask. Names the server adds later still work: a [Set]
// keeps them in a string-keyed fallback.
//
// # What this package must NOT do
//
//   - Access the session store, the network, or any global mutable state.
//   - Compare permissions by ID.
package permission
