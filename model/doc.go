// Package model holds the records exchanged with the remote API and kept in the
// session and query cache.
//
// JSON tags mirror the backend's wire casing, which differs between services:
// user-service records use PascalCase keys (ID, Name, Role), task and chat
// records use camelCase keys.
//
// # What this package must NOT do
//
//   - Perform I/O or hold mutable shared state.
//   - Import any other goTeam package.
package model
