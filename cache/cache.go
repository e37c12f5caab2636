package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEmptyKey     = errors.New("cache: empty key")
	ErrNoFetcher    = errors.New("cache: no fetcher")
	ErrClosed       = errors.New("cache: closed")
	ErrCancelled    = errors.New("cache: fetch cancelled")
	ErrTypeMismatch = errors.New("cache: unexpected data type")
)

// Fetcher loads the data for one key.
type Fetcher func(ctx context.Context) (any, error)

// Policy controls freshness and retries for a resource class.
type Policy struct {
	// StaleTime is how long fetched data counts as fresh. Zero means data is
	// stale as soon as it lands.
	StaleTime time.Duration
	// RefetchInterval makes watched entries poll. Zero disables polling.
	RefetchInterval time.Duration
	// Retry is the number of extra attempts after a failed fetch.
	Retry int
}

// Options configures a [Cache].
type Options struct {
	// GCTime is how long an unwatched entry survives after its last use.
	GCTime time.Duration
	// GCInterval runs [Cache.GC] periodically when positive.
	GCInterval time.Duration
	// RetryDelay is the pause between fetch attempts.
	RetryDelay time.Duration
	// ShouldRetry filters retryable errors. Nil retries every error except
	// cancellation.
	ShouldRetry func(error) bool
	// OnEvent receives cache events. It must not block and must not call
	// back into the cache synchronously.
	OnEvent func(Event)
	Logger  *zerolog.Logger
	Now     func() time.Time
}

const (
	DefaultGCTime     = 5 * time.Minute
	DefaultRetryDelay = time.Second
)

// Entry is a point-in-time view of one cache entry.
type Entry struct {
	Key         Key
	Data        any
	HasData     bool
	Err         error
	UpdatedAt   time.Time
	Invalidated bool
	Fetching    bool
}

// Fresh reports whether the entry holds valid data younger than staleTime.
func (e Entry) Fresh(staleTime time.Duration, now time.Time) bool {
	return e.HasData && !e.Invalidated && now.Sub(e.UpdatedAt) < staleTime
}

type entry struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	usedAt    time.Time
	invalid   bool
	gen       uint64

	fetch    Fetcher
	policy   Policy
	fetches  map[uint64]context.CancelFunc
	watchers map[*watcher]struct{}
}

func (e *entry) freshLocked(staleTime time.Duration, now time.Time) bool {
	return e.hasData && !e.invalid && now.Sub(e.updatedAt) < staleTime
}

func (e *entry) viewLocked() Entry {
	return Entry{
		Key:         e.key.clone(),
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalid,
		Fetching:    len(e.fetches) > 0,
	}
}

// Cache stores fetched server data. It is safe for concurrent use.
type Cache struct {
	opts    Options
	log     zerolog.Logger
	root    context.Context
	stop    context.CancelFunc
	flights singleflight.Group

	mu       sync.Mutex
	entries  map[string]*entry
	gen      uint64
	fetchSeq uint64
	closed   bool
	wg       sync.WaitGroup
}

// New creates a [Cache]. Zero option fields take their defaults.
func New(opts Options) *Cache {
	if opts.GCTime <= 0 {
		opts.GCTime = DefaultGCTime
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	root, stop := context.WithCancel(context.Background())
	c := &Cache{
		opts:    opts,
		log:     logger.With().Str("component", "cache").Logger(),
		root:    root,
		stop:    stop,
		entries: make(map[string]*entry),
	}
	if opts.GCInterval > 0 {
		c.wg.Add(1)
		go c.janitor(opts.GCInterval)
	}
	return c
}

// Close cancels every in-flight fetch, stops watchers and the janitor, and
// waits for them to exit.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}

// Query returns the data for key. Fresh data is returned as is; otherwise
// fetch runs, shared with any concurrent query for the same key and
// generation. Returning early because ctx ended does not abort the fetch.
func (c *Cache) Query(ctx context.Context, key Key, policy Policy, fetch Fetcher) (any, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if fetch == nil {
		return nil, ErrNoFetcher
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	e := c.entryLocked(key)
	now := c.opts.Now()
	e.usedAt = now
	e.fetch, e.policy = fetch, policy
	if e.freshLocked(policy.StaleTime, now) {
		data := e.data
		c.mu.Unlock()
		c.emit(EventHit, key)
		return data, nil
	}
	ch := c.startFetchLocked(e)
	c.mu.Unlock()
	c.emit(EventMiss, key)

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Read returns the cached view of key without waiting. When the entry is
// missing or stale and fetch is non-nil, a background fetch starts.
func (c *Cache) Read(key Key, policy Policy, fetch Fetcher) (Entry, bool) {
	if len(key) == 0 {
		return Entry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Entry{}, false
	}
	e := c.entryLocked(key)
	now := c.opts.Now()
	e.usedAt = now
	if fetch != nil {
		e.fetch, e.policy = fetch, policy
		if !e.freshLocked(policy.StaleTime, now) {
			c.startFetchLocked(e)
		}
	}
	return e.viewLocked(), e.hasData
}

// Inspect returns the current view of key without side effects.
func (c *Cache) Inspect(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok {
		return Entry{}, false
	}
	return e.viewLocked(), true
}

// Get returns the cached data for key.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// Set stores data under key as freshly fetched. Fetches started before the
// call cannot overwrite it.
func (c *Cache) Set(key Key, data any) {
	if len(key) == 0 {
		return
	}
	c.mu.Lock()
	e := c.entryLocked(key)
	c.writeLocked(e, data)
	c.mu.Unlock()
}

// Update replaces the data under key with fn's result. fn runs under the
// cache lock and must return a new value rather than modify old in place.
// Missing entries are left alone. Update reports whether fn changed the entry.
func (c *Cache) Update(key Key, fn func(old any) (any, bool)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || !e.hasData {
		return false
	}
	next, changed := fn(e.data)
	if !changed {
		return false
	}
	c.writeLocked(e, next)
	return true
}

// Invalidate marks every entry under prefix stale. Watched entries refetch
// immediately; the rest refetch on their next read. It returns the number
// of entries marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	matched := c.matchLocked(prefix)
	for _, e := range matched {
		e.invalid = true
		e.gen = c.nextGenLocked()
		c.notifyLocked(e)
		if len(e.watchers) > 0 && e.fetch != nil && !c.closed {
			c.startFetchLocked(e)
		}
	}
	c.mu.Unlock()

	if len(matched) > 0 {
		c.emit(EventInvalidate, prefix)
	}
	return len(matched)
}

// Cancel aborts in-flight fetches under prefix. Their results are discarded
// even when the fetcher ignores cancellation. It returns the number of
// fetches cancelled.
func (c *Cache) Cancel(prefix Key) int {
	c.mu.Lock()
	n := 0
	for _, e := range c.matchLocked(prefix) {
		n += c.cancelFetchesLocked(e)
	}
	c.mu.Unlock()

	if n > 0 {
		c.emit(EventCancel, prefix)
		c.log.Debug().Str("prefix", prefix.String()).Int("fetches", n).Msg("fetches cancelled")
	}
	return n
}

// Remove drops entries under prefix. Watched entries are emptied instead and
// refetched. It returns the number of entries affected.
func (c *Cache) Remove(prefix Key) int {
	c.mu.Lock()
	matched := c.matchLocked(prefix)
	for _, e := range matched {
		c.cancelFetchesLocked(e)
		if len(e.watchers) == 0 {
			delete(c.entries, e.key.id())
			continue
		}
		e.data, e.hasData, e.err = nil, false, nil
		e.invalid = false
		e.updatedAt = time.Time{}
		c.notifyLocked(e)
		if e.fetch != nil && !c.closed {
			c.startFetchLocked(e)
		}
	}
	c.mu.Unlock()
	return len(matched)
}

// GC evicts entries that have no watchers, no fetch in flight, and have not
// been used for GCTime. It returns the number evicted.
func (c *Cache) GC() int {
	c.mu.Lock()
	now := c.opts.Now()
	var evicted []Key
	for id, e := range c.entries {
		if len(e.watchers) > 0 || len(e.fetches) > 0 {
			continue
		}
		if now.Sub(e.usedAt) < c.opts.GCTime {
			continue
		}
		delete(c.entries, id)
		evicted = append(evicted, e.key)
	}
	c.mu.Unlock()

	for _, k := range evicted {
		c.emit(EventEvict, k)
	}
	return len(evicted)
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns every key in lexical order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.key.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (c *Cache) janitor(interval time.Duration) {
	defer c.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-c.root.Done():
			return
		case <-t.C:
			if n := c.GC(); n > 0 {
				c.log.Debug().Int("evicted", n).Msg("cache gc")
			}
		}
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.id()
	if e, ok := c.entries[id]; ok {
		return e
	}
	e := &entry{
		key:      key.clone(),
		gen:      c.nextGenLocked(),
		usedAt:   c.opts.Now(),
		fetches:  make(map[uint64]context.CancelFunc),
		watchers: make(map[*watcher]struct{}),
	}
	c.entries[id] = e
	return e
}

// matchLocked returns the entries under prefix in key order.
func (c *Cache) matchLocked(prefix Key) []*entry {
	var out []*entry
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key.String() < out[j].key.String() })
	return out
}

func (c *Cache) nextGenLocked() uint64 {
	c.gen++
	return c.gen
}

func (c *Cache) writeLocked(e *entry, data any) {
	e.data = data
	e.hasData = true
	e.err = nil
	e.invalid = false
	e.updatedAt = c.opts.Now()
	e.usedAt = e.updatedAt
	e.gen = c.nextGenLocked()
	c.notifyLocked(e)
}

func (c *Cache) cancelFetchesLocked(e *entry) int {
	n := len(e.fetches)
	for id, cancel := range e.fetches {
		cancel()
		delete(e.fetches, id)
	}
	e.gen = c.nextGenLocked()
	if n > 0 {
		c.notifyLocked(e)
	}
	return n
}

func (c *Cache) startFetchLocked(e *entry) <-chan singleflight.Result {
	key, gen := e.key, e.gen
	fetch, policy := e.fetch, e.policy
	flight := key.id() + "#" + strconv.FormatUint(gen, 10)
	return c.flights.DoChan(flight, func() (any, error) {
		return c.runFetch(key, gen, policy, fetch)
	})
}

func (c *Cache) runFetch(key Key, gen uint64, policy Policy, fetch Fetcher) (any, error) {
	ctx, cancel := context.WithCancel(c.root)
	defer cancel()

	c.mu.Lock()
	c.fetchSeq++
	fetchID := c.fetchSeq
	if e, ok := c.entries[key.id()]; ok && e.gen == gen {
		e.fetches[fetchID] = cancel
		c.notifyLocked(e)
	} else {
		cancel()
	}
	c.mu.Unlock()

	c.emit(EventFetch, key)
	data, err := c.attempt(ctx, key, policy.Retry, fetch)
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	c.mu.Lock()
	e, ok := c.entries[key.id()]
	current := ok && e.gen == gen
	if ok {
		delete(e.fetches, fetchID)
	}
	if current {
		if err == nil {
			e.data = data
			e.hasData = true
			e.err = nil
			e.invalid = false
			e.updatedAt = c.opts.Now()
		} else {
			e.err = err
		}
	}
	if ok {
		c.notifyLocked(e)
	}
	c.mu.Unlock()

	switch {
	case !current:
		c.emit(EventDiscard, key)
		c.log.Debug().Str("key", key.String()).Msg("superseded response discarded")
	case err != nil:
		c.emit(EventFetchError, key)
		c.log.Debug().Err(err).Str("key", key.String()).Msg("fetch failed")
	}
	return data, err
}

func (c *Cache) attempt(ctx context.Context, key Key, retries int, fetch Fetcher) (any, error) {
	var lastErr error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			c.emit(EventRetry, key)
			t := time.NewTimer(c.opts.RetryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil || !c.opts.ShouldRetry(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Cache) emit(kind EventKind, key Key) {
	if c.opts.OnEvent == nil {
		return
	}
	c.opts.OnEvent(Event{Kind: kind, Key: key})
}
