package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Notify discard instead of wait when the queue is full.
	DropIfFull bool
	// CollapseWindow suppresses a notification identical in level, op and
	// message to the last delivered one within the window. Zero disables it.
	CollapseWindow time.Duration
}

// Dispatcher delivers notifications to a sink on its own goroutine so a
// slow sink never stalls a mutation.
type Dispatcher struct {
	sink     Sink
	queue    chan Notification
	stop     chan struct{}
	finished chan struct{}
	dropFull bool
	collapse time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopped  atomic.Bool

	sent      atomic.Uint64
	dropped   atomic.Uint64
	collapsed atomic.Uint64
}

// NewDispatcher starts a dispatcher. It returns nil when cfg is disabled; a
// nil *Dispatcher accepts and discards every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan Notification, max(cfg.BufferSize, 1)),
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
		dropFull: cfg.DropIfFull,
		collapse: cfg.CollapseWindow,
		now:      time.Now,
	}
	go d.loop()
	return d
}

type collapseKey struct {
	level   Level
	op      string
	message string
}

func (d *Dispatcher) loop() {
	defer close(d.finished)

	var (
		last   collapseKey
		lastAt time.Time
	)
	deliver := func(n Notification) {
		key := collapseKey{n.Level, n.Op, n.Message}
		if d.collapse > 0 && key == last && n.Time.Sub(lastAt) < d.collapse {
			d.collapsed.Add(1)
			return
		}
		last, lastAt = key, n.Time
		d.sink.Notify(context.Background(), n)
		d.sent.Add(1)
	}

	for {
		select {
		case n := <-d.queue:
			deliver(n)
		case <-d.stop:
			for {
				select {
				case n := <-d.queue:
					deliver(n)
				default:
					return
				}
			}
		}
	}
}

// Notify queues n, stamping a zero Time. With DropIfFull a full queue drops
// n; otherwise Notify waits for room until ctx is done.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if d == nil || d.stopped.Load() {
		return
	}
	if n.Time.IsZero() {
		n.Time = d.now()
	}

	var wait <-chan struct{}
	if !d.dropFull && ctx != nil {
		wait = ctx.Done()
	}
	select {
	case d.queue <- n:
		return
	case <-d.stop:
		return
	default:
	}
	if d.dropFull {
		d.dropped.Add(1)
		return
	}
	select {
	case d.queue <- n:
	case <-d.stop:
	case <-wait:
		d.dropped.Add(1)
	}
}

// Close stops accepting notifications and delivers what is already queued.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
	})
	<-d.finished
}

func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *Dispatcher) Sent() uint64 {
	if d == nil {
		return 0
	}
	return d.sent.Load()
}

// Collapsed counts notifications folded into an identical predecessor.
func (d *Dispatcher) Collapsed() uint64 {
	if d == nil {
		return 0
	}
	return d.collapsed.Load()
}
