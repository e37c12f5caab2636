package cache

import (
	"sync"
	"time"
)

// Patch rewrites entries under Prefix. Apply receives each entry's current
// data and returns the replacement and whether anything changed. Apply must
// build a new value instead of modifying data in place, or rollback cannot
// restore the original. Apply runs under the cache lock.
type Patch struct {
	Prefix Key
	Apply  func(key Key, data any) (any, bool)
}

type snapshot struct {
	key       Key
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	invalid   bool
}

// Tx is an optimistic write in progress. Exactly one of Commit or Rollback
// takes effect; later calls are no-ops.
type Tx struct {
	c        *Cache
	prefixes []Key
	snaps    []snapshot

	once sync.Once
}

// Begin starts an optimistic write: fetches under each patch prefix are
// cancelled, every entry a patch changes is snapshotted, and the patches are
// applied in order. Entries a patch does not change are left untouched, so a
// patch that finds nothing to change is a no-op.
func (c *Cache) Begin(patches ...Patch) *Tx {
	for _, p := range patches {
		c.Cancel(p.Prefix)
	}

	tx := &Tx{c: c}
	c.mu.Lock()
	for _, p := range patches {
		tx.prefixes = append(tx.prefixes, p.Prefix.clone())
		if p.Apply == nil {
			continue
		}
		for _, e := range c.matchLocked(p.Prefix) {
			if !e.hasData {
				continue
			}
			next, changed := p.Apply(e.key.clone(), e.data)
			if !changed {
				continue
			}
			tx.snapshotLocked(e)
			e.data = next
			e.gen = c.nextGenLocked()
			c.notifyLocked(e)
		}
	}
	c.mu.Unlock()

	c.emit(EventOptimistic, commonPrefix(tx.prefixes))
	return tx
}

func (tx *Tx) snapshotLocked(e *entry) {
	for _, s := range tx.snaps {
		if s.key.Equal(e.key) {
			return
		}
	}
	tx.snaps = append(tx.snaps, snapshot{
		key:       e.key.clone(),
		data:      e.data,
		hasData:   e.hasData,
		err:       e.err,
		updatedAt: e.updatedAt,
		invalid:   e.invalid,
	})
}

// Touched returns the keys the transaction changed.
func (tx *Tx) Touched() []Key {
	out := make([]Key, 0, len(tx.snaps))
	for _, s := range tx.snaps {
		out = append(out, s.key.clone())
	}
	return out
}

// Commit drops the snapshots and invalidates every patched prefix so the next
// read reconciles with the server.
func (tx *Tx) Commit() {
	tx.once.Do(func() {
		tx.snaps = nil
		for _, p := range tx.prefixes {
			tx.c.Invalidate(p)
		}
		tx.c.emit(EventCommit, commonPrefix(tx.prefixes))
	})
}

// Rollback restores every touched entry to its snapshot. Entries removed in
// the meantime are recreated.
func (tx *Tx) Rollback() {
	tx.once.Do(func() {
		c := tx.c
		c.mu.Lock()
		for _, s := range tx.snaps {
			e := c.entryLocked(s.key)
			c.cancelFetchesLocked(e)
			e.data = s.data
			e.hasData = s.hasData
			e.err = s.err
			e.updatedAt = s.updatedAt
			e.invalid = s.invalid
			e.gen = c.nextGenLocked()
			c.notifyLocked(e)
		}
		c.mu.Unlock()
		tx.snaps = nil
		c.emit(EventRollback, commonPrefix(tx.prefixes))
	})
}

func commonPrefix(keys []Key) Key {
	if len(keys) == 0 {
		return nil
	}
	out := keys[0].clone()
	for _, k := range keys[1:] {
		n := 0
		for n < len(out) && n < len(k) && out[n] == k[n] {
			n++
		}
		out = out[:n]
	}
	return out
}
