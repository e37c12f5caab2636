// Package guard exposes net/http middleware that gates routes on the client
// session: [Protected] for signed-in pages, [Guest] for login and register
// pages, [Admin] for role administration, and [RequirePermissions] for
// finer-grained checks.
//
// # Loading
//
// Until the startup protocol settles the session, every guard answers
// 503 "session loading" instead of guessing. Callers that render pages
// usually retry after the session store notifies a change.
//
// # Advisory only
//
// Guards decide what to show, not what the caller may do. The remote API
// re-checks each request independently.
//
// # What this package must NOT do
//
//   - Mutate the session (only [Session] reads).
//   - Call the network.
//   - Parse tokens.
package guard
