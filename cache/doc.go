// Package cache holds server data fetched by the client, keyed by a
// structured [Key].
//
// # Reads
//
// [Cache.Query] returns fresh data without touching the network and otherwise
// runs the fetcher. Concurrent queries for the same key share one fetch.
// [Cache.Read] serves whatever is cached and revalidates in the background.
// [Cache.Watch] keeps an entry alive, reports every change to a callback and
// polls when the [Policy] asks for a refetch interval.
//
// # Ordering
//
// Every write to an entry (Set, Update, Invalidate, Cancel, an optimistic
// patch) moves the entry to a new generation. A fetch started under an older
// generation still returns its result to the callers that were waiting on it,
// but never writes it into the cache.
//
// # Optimistic writes
//
// [Cache.Begin] cancels in-flight fetches for the patched prefixes, snapshots
// every entry it changes and applies the patches. The returned [Tx] either
// commits (the touched prefixes are invalidated) or rolls back (every touched
// entry is restored to its snapshot).
//
// Fetchers run on a context owned by the cache, not the caller's: a caller
// that stops waiting does not abort a fetch other consumers may need.
package cache
