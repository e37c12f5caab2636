package cache

import (
	"context"
	"time"
)

type watcher struct {
	ch chan struct{}
}

func (c *Cache) notifyLocked(e *entry) {
	for w := range e.watchers {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
}

// Watch keeps key alive and calls fn with the entry after every change,
// starting with its current state. A missing or stale entry is fetched right
// away, and a positive policy.RefetchInterval polls fetch on that interval.
// Callbacks run on one goroutine, in order, and coalesce bursts of changes.
// Watching ends when ctx is done, stop is called, or the cache closes.
func (c *Cache) Watch(ctx context.Context, key Key, policy Policy, fetch Fetcher, fn func(Entry)) (stop func()) {
	if len(key) == 0 || fn == nil {
		return func() {}
	}

	w := &watcher{ch: make(chan struct{}, 1)}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	e := c.entryLocked(key)
	e.watchers[w] = struct{}{}
	now := c.opts.Now()
	e.usedAt = now
	if fetch != nil {
		e.fetch, e.policy = fetch, policy
		if !e.freshLocked(policy.StaleTime, now) {
			c.startFetchLocked(e)
		}
	}
	c.wg.Add(1)
	c.mu.Unlock()

	w.ch <- struct{}{}
	ctx, cancel := context.WithCancel(ctx)
	go c.watchLoop(ctx, key, policy, w, fn)
	return cancel
}

func (c *Cache) watchLoop(ctx context.Context, key Key, policy Policy, w *watcher, fn func(Entry)) {
	defer c.wg.Done()
	defer c.unwatch(key, w)

	var tick <-chan time.Time
	if policy.RefetchInterval > 0 {
		t := time.NewTicker(policy.RefetchInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.root.Done():
			return
		case <-w.ch:
			if view, ok := c.Inspect(key); ok {
				fn(view)
			}
		case <-tick:
			c.refetch(key)
		}
	}
}

func (c *Cache) refetch(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	e, ok := c.entries[key.id()]
	if !ok || e.fetch == nil {
		return
	}
	c.startFetchLocked(e)
}

func (c *Cache) unwatch(key Key, w *watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key.id()]; ok {
		delete(e.watchers, w)
		e.usedAt = c.opts.Now()
	}
}
