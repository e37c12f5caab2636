// Package debounce delays a value until its producer has been quiet for a
// fixed interval. Each new value restarts the interval; only the last one is
// delivered.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay applies when New is given a non-positive delay.
const DefaultDelay = 500 * time.Millisecond

// Debouncer delivers the latest pushed value to fn once delay has passed
// without another push. fn runs on a timer goroutine.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
	seq     uint64
	stopped bool
}

func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Push records v and restarts the quiet interval.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	d.armed = true
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Flush delivers the pending value now, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.mu.Unlock()
	d.fire(seq)
}

// Stop drops the pending value. Later pushes are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if !d.armed || d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.mu.Unlock()

	if d.fn != nil {
		d.fn(v)
	}
}
