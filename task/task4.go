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

// Task4 is a task with four inputs. Its callable has signature
// func(I1, I2, I3, I4) O, with any Unit position dropped.
type Task4[O, I1, I2, I3, I4 any] struct {
	node *node.Node
	out  *edge.Edge[O]
	in1  *edge.Edge[I1]
	in2  *edge.Edge[I2]
	in3  *edge.Edge[I3]
	in4  *edge.Edge[I4]
	fn   reflect.Value

	state  atomic.Int32
	result O

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask4 constructs an unconfigured, Incomplete task with four input
// slots.
func NewTask4[O, I1, I2, I3, I4 any]() *Task4[O, I1, I2, I3, I4] {
	n := node.New(4)
	out := edge.New[O](n)
	n.AttachOutput(out)

	t := &Task4[O, I1, I2, I3, I4]{node: n, out: out}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *Task4[O, I1, I2, I3, I4]) BindInput1(e *edge.Edge[I1]) *Task4[O, I1, I2, I3, I4] {
	t.in1 = e
	t.node.SetInputEdge(0, e)
	return t
}

func (t *Task4[O, I1, I2, I3, I4]) BindInput2(e *edge.Edge[I2]) *Task4[O, I1, I2, I3, I4] {
	t.in2 = e
	t.node.SetInputEdge(1, e)
	return t
}

func (t *Task4[O, I1, I2, I3, I4]) BindInput3(e *edge.Edge[I3]) *Task4[O, I1, I2, I3, I4] {
	t.in3 = e
	t.node.SetInputEdge(2, e)
	return t
}

func (t *Task4[O, I1, I2, I3, I4]) BindInput4(e *edge.Edge[I4]) *Task4[O, I1, I2, I3, I4] {
	t.in4 = e
	t.node.SetInputEdge(3, e)
	return t
}

// BindInputByType4 wires e into whichever of Task4's four input slots has
// type T, panicking at declaration time unless exactly one slot matches.
func BindInputByType4[O, I1, I2, I3, I4, T any](t *Task4[O, I1, I2, I3, I4], e *edge.Edge[T]) *Task4[O, I1, I2, I3, I4] {
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
	if typeOf[I4]() == typeOf[T]() {
		matches++
		t.BindInput4(any(e).(*edge.Edge[I4]))
	}
	if matches != 1 {
		panic(fmt.Sprintf("taskgrid: BindInputByType[%s] matched %d of 4 slots, want exactly 1", typeOf[T](), matches))
	}
	return t
}

func (t *Task4[O, I1, I2, I3, I4]) InputValue1() I1 { return inputValue(t.in1) }
func (t *Task4[O, I1, I2, I3, I4]) InputValue2() I2 { return inputValue(t.in2) }
func (t *Task4[O, I1, I2, I3, I4]) InputValue3() I3 { return inputValue(t.in3) }
func (t *Task4[O, I1, I2, I3, I4]) InputValue4() I4 { return inputValue(t.in4) }

func (t *Task4[O, I1, I2, I3, I4]) SetCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	inTypes := []reflect.Type{typeOf[I1](), typeOf[I2](), typeOf[I3](), typeOf[I4]()}
	if err := checkSignature(rv, inTypes, typeOf[O]()); err != nil {
		return err
	}
	t.fn = rv
	return nil
}

func (t *Task4[O, I1, I2, I3, I4]) AsNode() *node.Node        { return t.node }
func (t *Task4[O, I1, I2, I3, I4]) OutputEdge() *edge.Edge[O] { return t.out }
func (t *Task4[O, I1, I2, I3, I4]) Reachability() int         { return t.node.Reachability() }
func (t *Task4[O, I1, I2, I3, I4]) Order(other interface{ AsNode() *node.Node }) bool {
	return t.node.Order(other.AsNode())
}
func (t *Task4[O, I1, I2, I3, I4]) State() State            { return State(t.state.Load()) }
func (t *Task4[O, I1, I2, I3, I4]) Result() O               { return t.result }
func (t *Task4[O, I1, I2, I3, I4]) Duration() time.Duration { return t.end.Sub(t.start) }

// StartedAt returns the time Run began executing the callable. Defined
// only once State is Running or later.
func (t *Task4[O, I1, I2, I3, I4]) StartedAt() time.Time { return t.start }

// FinishedAt returns the time Run finished. Defined only once State is
// Complete.
func (t *Task4[O, I1, I2, I3, I4]) FinishedAt() time.Time { return t.end }

func (t *Task4[O, I1, I2, I3, I4]) Wait() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	for State(t.state.Load()) != Complete {
		t.cond.Wait()
	}
	return Complete
}

func (t *Task4[O, I1, I2, I3, I4]) Run() {
	if t.in1 != nil {
		t.in1.Await()
	}
	if t.in2 != nil {
		t.in2.Await()
	}
	if t.in3 != nil {
		t.in3.Await()
	}
	if t.in4 != nil {
		t.in4.Await()
	}

	t.start = time.Now()
	t.state.Store(int32(Running))

	types := []reflect.Type{typeOf[I1](), typeOf[I2](), typeOf[I3](), typeOf[I4]()}
	values := []reflect.Value{
		reflectValueOf(t.InputValue1()),
		reflectValueOf(t.InputValue2()),
		reflectValueOf(t.InputValue3()),
		reflectValueOf(t.InputValue4()),
	}
	results := t.fn.Call(buildUnitAwareArgs(types, values))
	publish(t.out, &t.result, results)

	t.end = time.Now()
	t.mu.Lock()
	t.state.Store(int32(Complete))
	t.cond.Broadcast()
	t.mu.Unlock()
}
