// Package api is the HTTP pipeline to the team REST backend and its typed
// endpoint wrappers.
//
// Every call goes through one [Client]: the bearer token comes from an
// injected [TokenSource], each request carries an X-Request-ID and a client
// span, and responses are classified into [Kind]s. The pipeline itself only
// reacts to two statuses. A 401 runs OnUnauthorized and redirects to the
// login path unless the [Navigator] is already there. A 429 is logged. Every
// other failure is returned to the caller as an [*Error] untouched.
//
// Nothing in this package retries. Read retries belong to the cache layer
// and mutations are never retried.
package api
