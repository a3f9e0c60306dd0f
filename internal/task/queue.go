package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// PanicHandler receives panics raised by continuations.
type PanicHandler func(recovered any, stack []byte)

// Option configures a Queue.
type Option func(*Queue)

// WithPanicHandler recovers continuation panics and reports them to h.
// Without it panics propagate to the goroutine draining the queue.
func WithPanicHandler(h PanicHandler) Option {
	return func(q *Queue) {
		q.panicHandler = h
	}
}

// Queue is a FIFO of continuations. Post, Go and Pending are safe from any
// goroutine. Drain, RunOne and Run are called by the owner.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	signal  chan struct{}

	panicHandler PanicHandler

	// Stats
	posted   atomic.Uint64
	executed atomic.Uint64
	panicked atomic.Uint64
	running  atomic.Int64
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{signal: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Post appends fn to the queue.
func (q *Queue) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.posted.Add(1)
	q.wake()
	return nil
}

func (q *Queue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Go runs work on a new goroutine and posts the continuation it returns.
// A nil continuation posts nothing.
func (q *Queue) Go(work func() func()) {
	q.running.Add(1)
	go func() {
		defer q.wake()
		defer q.running.Add(-1)
		if next := work(); next != nil {
			_ = q.Post(next)
		}
	}()
}

// Pending returns the number of queued continuations.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight returns the number of goroutines started by Go that have not
// finished.
func (q *Queue) InFlight() int {
	return int(q.running.Load())
}

func (q *Queue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	fn := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return fn, true
}

// Drain runs queued continuations until the queue is empty, including
// continuations posted while draining. It returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		fn, ok := q.pop()
		if !ok {
			return n
		}
		q.exec(fn)
		n++
	}
}

// RunOne waits for a continuation and runs it.
func (q *Queue) RunOne(ctx context.Context) error {
	for {
		if fn, ok := q.pop(); ok {
			q.exec(fn)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}

// Run executes continuations as they arrive until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		if err := q.RunOne(ctx); err != nil {
			return err
		}
	}
}

// Settle runs continuations until no goroutine started by Go is running
// and the queue is empty, or ctx is done. Work started by a continuation
// is waited for too.
func (q *Queue) Settle(ctx context.Context) error {
	for {
		q.Drain()
		if q.running.Load() == 0 && q.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}

// Close stops the queue from accepting tasks. Queued tasks can still be
// drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *Queue) exec(fn func()) {
	q.executed.Add(1)
	if q.panicHandler == nil {
		fn()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			q.panicHandler(r, debug.Stack())
		}
	}()
	fn()
}

// Stats holds queue counters.
type Stats struct {
	Posted   uint64
	Executed uint64
	Panicked uint64
	Pending  int
	InFlight int
}

// Stats returns the current counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Posted:   q.posted.Load(),
		Executed: q.executed.Load(),
		Panicked: q.panicked.Load(),
		Pending:  q.Pending(),
		InFlight: q.InFlight(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("posted=%d executed=%d panicked=%d pending=%d inflight=%d",
		s.Posted, s.Executed, s.Panicked, s.Pending, s.InFlight)
}
