package task

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/node"
)

// Task1 is a task with one input. Its callable has signature func(I1) O,
// with I1 dropped entirely when it is Unit.
type Task1[O, I1 any] struct {
	node *node.Node
	out  *edge.Edge[O]
	in1  *edge.Edge[I1]
	fn   reflect.Value

	state  atomic.Int32
	result O

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask1 constructs an unconfigured, Incomplete task with one input slot.
func NewTask1[O, I1 any]() *Task1[O, I1] {
	n := node.New(1)
	out := edge.New[O](n)
	n.AttachOutput(out)

	t := &Task1[O, I1]{node: n, out: out}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// BindInput1 wires slot 0 to e, replacing any previous reference.
func (t *Task1[O, I1]) BindInput1(e *edge.Edge[I1]) *Task1[O, I1] {
	t.in1 = e
	t.node.SetInputEdge(0, e)
	return t
}

// InputValue1 returns the producer's published value, or I1's zero value if
// slot 0 is unbound.
func (t *Task1[O, I1]) InputValue1() I1 { return inputValue(t.in1) }

// SetCallable installs fn, which must be func(I1) O with I1 dropped if it is
// Unit, and with the return value dropped if O is Unit.
func (t *Task1[O, I1]) SetCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	if err := checkSignature(rv, []reflect.Type{typeOf[I1]()}, typeOf[O]()); err != nil {
		return err
	}
	t.fn = rv
	return nil
}

func (t *Task1[O, I1]) AsNode() *node.Node { return t.node }
func (t *Task1[O, I1]) OutputEdge() *edge.Edge[O] { return t.out }
func (t *Task1[O, I1]) Reachability() int { return t.node.Reachability() }
func (t *Task1[O, I1]) Order(other interface{ AsNode() *node.Node }) bool {
	return t.node.Order(other.AsNode())
}
func (t *Task1[O, I1]) State() State           { return State(t.state.Load()) }
func (t *Task1[O, I1]) Result() O              { return t.result }
func (t *Task1[O, I1]) Duration() time.Duration { return t.end.Sub(t.start) }

// StartedAt returns the time Run began executing the callable. Defined
// only once State is Running or later.
func (t *Task1[O, I1]) StartedAt() time.Time { return t.start }

// FinishedAt returns the time Run finished. Defined only once State is
// Complete.
func (t *Task1[O, I1]) FinishedAt() time.Time { return t.end }

func (t *Task1[O, I1]) Wait() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	for State(t.state.Load()) != Complete {
		t.cond.Wait()
	}
	return Complete
}

func (t *Task1[O, I1]) Run() {
	if t.in1 != nil {
		t.in1.Await()
	}

	t.start = time.Now()
	t.state.Store(int32(Running))

	types := []reflect.Type{typeOf[I1]()}
	values := []reflect.Value{reflectValueOf(t.InputValue1())}
	results := t.fn.Call(buildUnitAwareArgs(types, values))
	publish(t.out, &t.result, results)

	t.end = time.Now()
	t.mu.Lock()
	t.state.Store(int32(Complete))
	t.cond.Broadcast()
	t.mu.Unlock()
}
