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

// Task2 is a task with two inputs. Its callable has signature
// func(I1, I2) O, with any position whose declared type is Unit dropped.
type Task2[O, I1, I2 any] struct {
	node *node.Node
	out  *edge.Edge[O]
	in1  *edge.Edge[I1]
	in2  *edge.Edge[I2]
	fn   reflect.Value

	state  atomic.Int32
	result O

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask2 constructs an unconfigured, Incomplete task with two input slots.
func NewTask2[O, I1, I2 any]() *Task2[O, I1, I2] {
	n := node.New(2)
	out := edge.New[O](n)
	n.AttachOutput(out)

	t := &Task2[O, I1, I2]{node: n, out: out}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// BindInput1 wires slot 0 to e.
func (t *Task2[O, I1, I2]) BindInput1(e *edge.Edge[I1]) *Task2[O, I1, I2] {
	t.in1 = e
	t.node.SetInputEdge(0, e)
	return t
}

// BindInput2 wires slot 1 to e.
func (t *Task2[O, I1, I2]) BindInput2(e *edge.Edge[I2]) *Task2[O, I1, I2] {
	t.in2 = e
	t.node.SetInputEdge(1, e)
	return t
}

// BindInputByType2 wires e into whichever of Task2's two input slots has
// type T, panicking at declaration time if neither slot or both slots
// match — binding by type is only admissible when the declared input types
// are pairwise distinct.
func BindInputByType2[O, I1, I2, T any](t *Task2[O, I1, I2], e *edge.Edge[T]) *Task2[O, I1, I2] {
	matches := 0
	if typeOf[I1]() == typeOf[T]() {
		matches++
		t.BindInput1(any(e).(*edge.Edge[I1]))
	}
	if typeOf[I2]() == typeOf[T]() {
		matches++
		t.BindInput2(any(e).(*edge.Edge[I2]))
	}
	if matches != 1 {
		panic(fmt.Sprintf("taskgrid: BindInputByType[%s] matched %d of 2 slots, want exactly 1", typeOf[T](), matches))
	}
	return t
}

func (t *Task2[O, I1, I2]) InputValue1() I1 { return inputValue(t.in1) }
func (t *Task2[O, I1, I2]) InputValue2() I2 { return inputValue(t.in2) }

// SetCallable installs fn, which must be func(I1, I2) O with Unit positions
// dropped and the return value dropped if O is Unit.
func (t *Task2[O, I1, I2]) SetCallable(fn any) error {
	rv := reflect.ValueOf(fn)
	inTypes := []reflect.Type{typeOf[I1](), typeOf[I2]()}
	if err := checkSignature(rv, inTypes, typeOf[O]()); err != nil {
		return err
	}
	t.fn = rv
	return nil
}

func (t *Task2[O, I1, I2]) AsNode() *node.Node        { return t.node }
func (t *Task2[O, I1, I2]) OutputEdge() *edge.Edge[O] { return t.out }
func (t *Task2[O, I1, I2]) Reachability() int         { return t.node.Reachability() }
func (t *Task2[O, I1, I2]) Order(other interface{ AsNode() *node.Node }) bool {
	return t.node.Order(other.AsNode())
}
func (t *Task2[O, I1, I2]) State() State            { return State(t.state.Load()) }
func (t *Task2[O, I1, I2]) Result() O               { return t.result }
func (t *Task2[O, I1, I2]) Duration() time.Duration { return t.end.Sub(t.start) }

// StartedAt returns the time Run began executing the callable. Defined
// only once State is Running or later.
func (t *Task2[O, I1, I2]) StartedAt() time.Time { return t.start }

// FinishedAt returns the time Run finished. Defined only once State is
// Complete.
func (t *Task2[O, I1, I2]) FinishedAt() time.Time { return t.end }

func (t *Task2[O, I1, I2]) Wait() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	for State(t.state.Load()) != Complete {
		t.cond.Wait()
	}
	return Complete
}

func (t *Task2[O, I1, I2]) Run() {
	if t.in1 != nil {
		t.in1.Await()
	}
	if t.in2 != nil {
		t.in2.Await()
	}

	t.start = time.Now()
	t.state.Store(int32(Running))

	types := []reflect.Type{typeOf[I1](), typeOf[I2]()}
	values := []reflect.Value{reflectValueOf(t.InputValue1()), reflectValueOf(t.InputValue2())}
	results := t.fn.Call(buildUnitAwareArgs(types, values))
	publish(t.out, &t.result, results)

	t.end = time.Now()
	t.mu.Lock()
	t.state.Store(int32(Complete))
	t.cond.Broadcast()
	t.mu.Unlock()
}
