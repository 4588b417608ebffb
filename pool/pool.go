// Package pool implements a fixed-size worker pool: a FIFO queue of work
// items drained by a bounded set of goroutines, with idle detection so a
// caller can be told when every submitted item (and everything it
// transitively enqueued) has finished.
//
// The worker loop itself is the teacher's pattern from
// internal/executor/worker.go — goroutines draining a shared channel under a
// sync.WaitGroup — generalized here into something reusable that doesn't
// know about nodes, graphs, or resources: just WorkItems.
package pool

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// discardLogger is the default when no Option supplies one: the core stays
// silent unless a caller explicitly opts into logging.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WorkItem is a unit of work submitted to a Pool. Implementations run on
// whichever worker goroutine dequeues them; the pool does not recover
// panics, so a WorkItem that panics crashes the process, as an unrecovered
// panic in any other goroutine would.
type WorkItem func()

// Pool is a fixed-size worker pool with a FIFO pending queue. Workers are
// started once by Start and run until Close. Submit enqueues work for any
// idle worker to pick up; WaitIdle blocks until the active-item count and
// the pending queue both reach zero.
type Pool struct {
	workerCount int

	queueMu sync.Mutex
	queue   []WorkItem
	closed  bool

	workMu   sync.Mutex
	workCond *sync.Cond

	idleMu   sync.Mutex
	idleCond *sync.Cond
	active   atomic.Int64

	onIdle func()

	started atomic.Bool
	wg      sync.WaitGroup

	logger *slog.Logger
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLogger attaches logger for lifecycle events (start, submit,
// clear_pending, shutdown) at Debug level. Without it, the pool logs
// nothing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) { p.logger = logger }
}

// WithOnIdle sets the idle callback as a construction-time Option, an
// alternative to passing onIdle positionally to New for callers (like
// x/observer) that otherwise only need Options.
func WithOnIdle(fn func()) Option {
	return func(p *Pool) { p.onIdle = fn }
}

// New constructs a Pool with workerCount worker goroutines, none of which
// are started until Start is called. onIdle, if non-nil, is invoked exactly
// once per transition from at least one active-or-pending item to zero.
func New(workerCount int, onIdle func(), opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{workerCount: workerCount, onIdle: onIdle, logger: discardLogger}
	for _, opt := range opts {
		opt(p)
	}
	p.workCond = sync.NewCond(&p.workMu)
	p.idleCond = sync.NewCond(&p.idleMu)
	return p
}

// Start spawns the worker goroutines. Calling Start more than once on the
// same Pool is a no-op: workers are started exactly once regardless of how
// many times Start is called.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.logger.Debug("pool starting", "workers", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// WorkerCount returns the number of worker goroutines this Pool starts.
func (p *Pool) WorkerCount() int { return p.workerCount }

// Submit enqueues item for execution, returning false if the Pool has been
// Closed. A nil item is rejected without entering the queue.
func (p *Pool) Submit(item WorkItem) bool {
	if item == nil {
		return false
	}

	p.queueMu.Lock()
	if p.closed {
		p.queueMu.Unlock()
		return false
	}
	p.active.Add(1)
	p.queue = append(p.queue, item)
	p.queueMu.Unlock()
	p.logger.Debug("pool submit")

	p.workMu.Lock()
	p.workCond.Signal()
	p.workMu.Unlock()
	return true
}

// ClearPending discards every item still waiting in the queue without
// running it. Items already dequeued by a worker run to completion; this
// does not interrupt them. Each discarded item still counts as finished for
// WaitIdle's purposes.
func (p *Pool) ClearPending() {
	p.queueMu.Lock()
	dropped := len(p.queue)
	p.queue = nil
	p.queueMu.Unlock()

	p.logger.Debug("pool clear_pending", "dropped", dropped)
	for i := 0; i < dropped; i++ {
		p.finishOne()
	}
}

// PendingCount returns the number of items waiting in the queue.
func (p *Pool) PendingCount() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return len(p.queue)
}

// ActiveCount returns the number of items either queued or currently
// executing on a worker.
func (p *Pool) ActiveCount() int {
	return int(p.active.Load())
}

// Empty reports whether the pending queue is empty. It says nothing about
// items currently executing; use IsIdle for that.
func (p *Pool) Empty() bool {
	return p.PendingCount() == 0
}

// IsIdle reports whether there is no pending or executing work.
func (p *Pool) IsIdle() bool {
	return p.ActiveCount() == 0
}

// SnapshotPending returns a copy of the items currently waiting in the
// queue, in FIFO order, without removing them.
func (p *Pool) SnapshotPending() []WorkItem {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	out := make([]WorkItem, len(p.queue))
	copy(out, p.queue)
	return out
}

// WaitIdle blocks until ActiveCount reaches zero. If the pool is already
// idle, it returns immediately.
func (p *Pool) WaitIdle() {
	p.idleMu.Lock()
	defer p.idleMu.Unlock()
	for p.active.Load() != 0 {
		p.idleCond.Wait()
	}
}

// Close discards any pending work, wakes every worker so it can observe
// closure, and blocks until all worker goroutines have exited. After Close,
// Submit always returns false.
func (p *Pool) Close() {
	p.queueMu.Lock()
	p.closed = true
	p.queueMu.Unlock()

	p.ClearPending()

	p.workMu.Lock()
	p.workCond.Broadcast()
	p.workMu.Unlock()

	p.wg.Wait()
	p.logger.Debug("pool shutdown complete")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		item, ok := p.dequeue()
		if !ok {
			return
		}
		item()
		p.finishOne()
	}
}

// dequeue blocks until an item is available or the pool is closed with an
// empty queue, in which case it reports ok=false so the worker can exit.
func (p *Pool) dequeue() (WorkItem, bool) {
	for {
		p.queueMu.Lock()
		if len(p.queue) > 0 {
			item := p.queue[0]
			p.queue = p.queue[1:]
			p.queueMu.Unlock()
			return item, true
		}
		closed := p.closed
		p.queueMu.Unlock()

		if closed {
			return nil, false
		}

		p.workMu.Lock()
		p.queueMu.Lock()
		empty := len(p.queue) == 0 && !p.closed
		p.queueMu.Unlock()
		if empty {
			p.workCond.Wait()
		}
		p.workMu.Unlock()
	}
}

// finishOne accounts for one item leaving the active set, whether it ran or
// was dropped by ClearPending, firing onIdle exactly once per transition to
// zero: only the decrement that brings the count to zero fires it.
func (p *Pool) finishOne() {
	if p.active.Add(-1) != 0 {
		return
	}

	p.idleMu.Lock()
	p.idleCond.Broadcast()
	p.idleMu.Unlock()

	if p.onIdle != nil {
		p.onIdle()
	}
}
