// Package goTeam is the client core of a team workspace: session, cached
// server data, and mutations for users, tasks and chats.
//
// A [Client] is assembled by [Builder.Build] and is safe for concurrent use.
// It owns three collaborators and wires them together:
//
//   - a session store (package session) holding the bearer token and the
//     loaded profile, persisted through a TokenStorage;
//   - a remote data cache (package cache) with per-resource freshness,
//     de-duplicated fetches, polling and optimistic transactions;
//   - the HTTP pipeline (package api) that attaches the token, clears the
//     session on 401 and classifies every failure.
//
// # Startup
//
// [Client.Init] restores the persisted token and, when one exists, asks the
// server who it belongs to. Only a 401 clears the token. Any other failure
// leaves the user signed in so that a flaky network does not bounce them to
// the login page.
//
// # Mutations
//
// Reads are retried once; mutations never are. A successful mutation
// invalidates the list entries of its resource and overwrites the detail
// entry with the server's copy when one exists. [Client.UpdateTaskStatus]
// writes the new status into the cache before the request and restores the
// previous values if the request fails.
//
// Permission checks on the client are for presentation only. The server
// re-checks every request.
package goTeam
