package cache

// EventKind classifies a cache [Event].
type EventKind uint8

const (
	EventHit EventKind = iota
	EventMiss
	EventFetch
	EventFetchError
	EventRetry
	EventDiscard
	EventCancel
	EventInvalidate
	EventEvict
	EventOptimistic
	EventCommit
	EventRollback
)

var eventNames = [...]string{
	EventHit:        "hit",
	EventMiss:       "miss",
	EventFetch:      "fetch",
	EventFetchError: "fetch_error",
	EventRetry:      "retry",
	EventDiscard:    "discard",
	EventCancel:     "cancel",
	EventInvalidate: "invalidate",
	EventEvict:      "evict",
	EventOptimistic: "optimistic",
	EventCommit:     "commit",
	EventRollback:   "rollback",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Event reports something the cache did to a key or prefix.
type Event struct {
	Kind EventKind
	Key  Key
}
