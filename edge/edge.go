// Package edge implements the one-shot, broadcast synchronization primitive
// that carries a single typed value from one producer task to any number of
// consumer tasks.
package edge

import (
	"sync"
	"sync/atomic"
)

// Unit models the absence of a payload. An Edge[Unit] still participates in
// synchronization — its retrievable flag flips when the producer finishes —
// it simply carries no observable value.
type Unit struct{}

// Owner is the minimal view of a graph vertex that the reachability walker
// and an edge's back-reference need. Node implements it; edge deliberately
// has no import-time dependency on the node package so the two can refer to
// each other without a cycle.
type Owner interface {
	// InputEdges returns the owner's positional input slots. Unbound slots
	// are a nil Retriever.
	InputEdges() []Retriever
	// Reachability returns the cached critical-path depth assigned by the
	// graph helper.
	Reachability() int
	// SetReachability stores the critical-path depth computed by the graph
	// helper. Called at most once per Executor run, before any task starts.
	SetReachability(int)
}

// Retriever is the type-erased view of an Edge[T] used by Node and the graph
// helper, neither of which knows or cares about T.
type Retriever interface {
	Owner() Owner
	IsRetrievable() bool
}

// Edge carries a single value of type T from its owning producer to any
// number of consumers. It exists in exactly one state sequence: Empty, then
// Set — once retrievable, the payload is immutable and visible to any
// consumer without further synchronization.
type Edge[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ready atomic.Bool
	value T
	owner Owner
}

// New creates an edge owned by owner. owner is never nil and is never
// reassigned for the lifetime of the edge.
func New[T any](owner Owner) *Edge[T] {
	e := &Edge[T]{owner: owner}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Owner returns the edge's back-reference to the node that produces it.
func (e *Edge[T]) Owner() Owner {
	return e.owner
}

// IsRetrievable reports whether Set has been called. The result may be
// stale the moment it returns; it is an acquire-load fast path for callers
// that want to avoid blocking in Await.
func (e *Edge[T]) IsRetrievable() bool {
	return e.ready.Load()
}

// Set stores value and marks the edge retrievable, then wakes every
// consumer blocked in Await. Set must be called at most once per Executor
// run; a second call overwrites the payload without error, which is a
// contract violation by the caller, not a condition this type detects.
func (e *Edge[T]) Set(value T) {
	e.mu.Lock()
	e.value = value
	e.ready.Store(true)
	e.mu.Unlock()

	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Await blocks until the edge becomes retrievable. It is safe to call
// concurrently from any number of consumers.
func (e *Edge[T]) Await() {
	if e.ready.Load() {
		return
	}
	e.mu.Lock()
	for !e.ready.Load() {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

// Get returns the stored value by copy. It is undefined unless the edge is
// retrievable; callers must precede a Get with Await.
func (e *Edge[T]) Get() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}
