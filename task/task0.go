package task

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/node"
)

// Task0 is a task with no inputs: a graph root. Its callable has signature
// func() O, or func() when O is Unit.
type Task0[O any] struct {
	node *node.Node
	out  *edge.Edge[O]
	fn   reflect.Value

	state atomic.Int32
	result O

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask0 constructs an unconfigured, Incomplete root task.
func NewTask0[O any]() *Task0[O] {
	n := node.New(0)
	out := edge.New[O](n)
	n.AttachOutput(out)

	t := &Task0[O]{node: n, out: out}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SetCallable installs fn, which must be func() O (or func() if O is Unit).
// It must be called before the Executor runs this task.
func (t *Task0[O]) SetCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	if err := checkSignature(rv, nil, typeOf[O]()); err != nil {
		return err
	}
	t.fn = rv
	return nil
}

// AsNode returns the underlying graph vertex.
func (t *Task0[O]) AsNode() *node.Node { return t.node }

// OutputEdge returns the task's owned output edge.
func (t *Task0[O]) OutputEdge() *edge.Edge[O] { return t.out }

// Reachability returns the cached critical-path depth.
func (t *Task0[O]) Reachability() int { return t.node.Reachability() }

// Order reports whether t should be submitted before other.
func (t *Task0[O]) Order(other interface{ AsNode() *node.Node }) bool {
	return t.node.Order(other.AsNode())
}

// State returns an atomic snapshot of the task's lifecycle stage.
func (t *Task0[O]) State() State { return State(t.state.Load()) }

// Result returns the stored result. Defined only after Wait returns.
func (t *Task0[O]) Result() O { return t.result }

// Duration returns end-start. Defined only after Complete.
func (t *Task0[O]) Duration() time.Duration { return t.end.Sub(t.start) }

// StartedAt returns the time Run began executing the callable. Defined
// only once State is Running or later.
func (t *Task0[O]) StartedAt() time.Time { return t.start }

// FinishedAt returns the time Run finished. Defined only once State is
// Complete.
func (t *Task0[O]) FinishedAt() time.Time { return t.end }

// Wait blocks until the task's state is Complete.
func (t *Task0[O]) Wait() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	for State(t.state.Load()) != Complete {
		t.cond.Wait()
	}
	return Complete
}

// Run is the work-item body: await inputs (none, here), execute the
// callable, publish the output, and signal completion. A worker calls this
// exactly once per Executor run.
func (t *Task0[O]) Run() {
	t.start = time.Now()
	t.state.Store(int32(Running))

	results := t.fn.Call(nil)
	publish(t.out, &t.result, results)

	t.end = time.Now()
	t.mu.Lock()
	t.state.Store(int32(Complete))
	t.cond.Broadcast()
	t.mu.Unlock()
}

// publish writes the callable's sole result (if any) into result and the
// output edge; for a Unit output it publishes the zero Unit value so the
// edge's retrievable flag still flips.
func publish[O any](out *edge.Edge[O], result *O, results []reflect.Value) {
	if typeOf[O]() == unitType {
		out.Set(*result)
		return
	}
	v := results[0].Interface().(O)
	*result = v
	out.Set(v)
}
