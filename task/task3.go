package task

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/node"
)

// Task3 is a task with three inputs. Its callable has signature
// func(I1, I2, I3) O, with any Unit position dropped.
type Task3[O, I1, I2, I3 any] struct {
	node *node.Node
	out  *edge.Edge[O]
	in1  *edge.Edge[I1]
	in2  *edge.Edge[I2]
	in3  *edge.Edge[I3]
	fn   reflect.Value

	state  atomic.Int32
	result O

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask3 constructs an unconfigured, Incomplete task with three input
// slots.
func NewTask3[O, I1, I2, I3 any]() *Task3[O, I1, I2, I3] {
	n := node.New(3)
	out := edge.New[O](n)
	n.AttachOutput(out)

	t := &Task3[O, I1, I2, I3]{node: n, out: out}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *Task3[O, I1, I2, I3]) BindInput1(e *edge.Edge[I1]) *Task3[O, I1, I2, I3] {
	t.in1 = e
	t.node.SetInputEdge(0, e)
	return t
}

func (t *Task3[O, I1, I2, I3]) BindInput2(e *edge.Edge[I2]) *Task3[O, I1, I2, I3] {
	t.in2 = e
	t.node.SetInputEdge(1, e)
	return t
}

func (t *Task3[O, I1, I2, I3]) BindInput3(e *edge.Edge[I3]) *Task3[O, I1, I2, I3] {
	t.in3 = e
	t.node.SetInputEdge(2, e)
	return t
}

// BindInputByType3 wires e into whichever of Task3's three input slots has
// type T, panicking at declaration time unless exactly one slot matches.
func BindInputByType3[O, I1, I2, I3, T any](t *Task3[O, I1, I2, I3], e *edge.Edge[T]) *Task3[O, I1, I2, I3] {
	matches := 0
	if typeOf[I1]() == typeOf[T]() {
		matches++
		t.BindInput1(any(e).(*edge.Edge[I1]))
	}
	if typeOf[I2]() == typeOf[T]() {
		matches++
		t.BindInput2(any(e).(*edge.Edge[I2]))
	}
	if typeOf[I3]() == typeOf[T]() {
		matches++
		t.BindInput3(any(e).(*edge.Edge[I3]))
	}
	if matches != 1 {
		panic(fmt.Sprintf("taskgrid: BindInputByType[%s] matched %d of 3 slots, want exactly 1", typeOf[T](), matches))
	}
	return t
}

func (t *Task3[O, I1, I2, I3]) InputValue1() I1 { return inputValue(t.in1) }
func (t *Task3[O, I1, I2, I3]) InputValue2() I2 { return inputValue(t.in2) }
func (t *Task3[O, I1, I2, I3]) InputValue3() I3 { return inputValue(t.in3) }

func (t *Task3[O, I1, I2, I3]) SetCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	inTypes := []reflect.Type{typeOf[I1](), typeOf[I2](), typeOf[I3]()}
	if err := checkSignature(rv, inTypes, typeOf[O]()); err != nil {
		return err
	}
	t.fn = rv
	return nil
}

func (t *Task3[O, I1, I2, I3]) AsNode() *node.Node        { return t.node }
func (t *Task3[O, I1, I2, I3]) OutputEdge() *edge.Edge[O] { return t.out }
func (t *Task3[O, I1, I2, I3]) Reachability() int         { return t.node.Reachability() }
func (t *Task3[O, I1, I2, I3]) Order(other interface{ AsNode() *node.Node }) bool {
	return t.node.Order(other.AsNode())
}
func (t *Task3[O, I1, I2, I3]) State() State            { return State(t.state.Load()) }
func (t *Task3[O, I1, I2, I3]) Result() O               { return t.result }
func (t *Task3[O, I1, I2, I3]) Duration() time.Duration { return t.end.Sub(t.start) }

// StartedAt returns the time Run began executing the callable. Defined
// only once State is Running or later.
func (t *Task3[O, I1, I2, I3]) StartedAt() time.Time { return t.start }

// FinishedAt returns the time Run finished. Defined only once State is
// Complete.
func (t *Task3[O, I1, I2, I3]) FinishedAt() time.Time { return t.end }

func (t *Task3[O, I1, I2, I3]) Wait() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	for State(t.state.Load()) != Complete {
		t.cond.Wait()
	}
	return Complete
}

func (t *Task3[O, I1, I2, I3]) Run() {
	if t.in1 != nil {
		t.in1.Await()
	}
	if t.in2 != nil {
		t.in2.Await()
	}
	if t.in3 != nil {
		t.in3.Await()
	}

	t.start = time.Now()
	t.state.Store(int32(Running))

	types := []reflect.Type{typeOf[I1](), typeOf[I2](), typeOf[I3]()}
	values := []reflect.Value{
		reflectValueOf(t.InputValue1()),
		reflectValueOf(t.InputValue2()),
		reflectValueOf(t.InputValue3()),
	}
	results := t.fn.Call(buildUnitAwareArgs(types, values))
	publish(t.out, &t.result, results)

	t.end = time.Now()
	t.mu.Lock()
	t.state.Store(int32(Complete))
	t.cond.Broadcast()
	t.mu.Unlock()
}
