// Package task implements the node+execution-semantics layer of the task
// graph: the Incomplete -> Running -> Complete state machine, declaration
// time callable-signature validation, and Unit-argument filtering.
//
// Go has no variadic generics, so the "Task<Output, Inputs...>" shape from
// the spec is expressed as a family of arity-specific generic types, Task0
// through Task4, one per input count. Each stores its callable as a
// reflect.Value rather than a statically typed func field: a statically
// typed field can't conditionally drop positions whose declared type is
// Unit, so validating and invoking through reflection is how this package
// gets Unit-filtering without a combinatorial explosion of generated types.
// This mirrors how the teacher's node_runner.go invokes registered handler
// functions — reflect.ValueOf(fn).Call(args) — for the same reason: the
// call target's exact signature isn't known until the handler is looked up.
package task

import (
	"fmt"
	"reflect"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/node"
)

// Handle is the minimal view of an arity-specific task that the executor
// and pool need: something runnable that carries a Node.
type Handle interface {
	Run()
	AsNode() *node.Node
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var unitType = typeOf[edge.Unit]()

// inputValue returns e's published value, or the zero value of T if e is
// nil (an unbound input slot never blocks and is not an error).
func inputValue[T any](e *edge.Edge[T]) T {
	if e == nil {
		var zero T
		return zero
	}
	return e.Get()
}

// reflectValueOf wraps v for use as a reflect.Call argument. reflect.ValueOf
// of a nil interface or nil pointer is the invalid zero Value, which Call
// rejects; reflect.Zero(typeOf[T]()) is the correct stand-in for those.
func reflectValueOf[T any](v T) reflect.Value {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Zero(typeOf[T]())
	}
	return rv
}

// checkSignature validates that fn is a function accepting exactly the
// non-Unit types in inTypes, in order, and returning exactly one value of
// outType unless outType is Unit, in which case it must return nothing.
func checkSignature(fn reflect.Value, inTypes []reflect.Type, outType reflect.Type) error {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return fmt.Errorf("taskgrid: callable must be a non-nil function")
	}

	var want []reflect.Type
	for _, it := range inTypes {
		if it != unitType {
			want = append(want, it)
		}
	}

	ft := fn.Type()
	if ft.NumIn() != len(want) {
		return fmt.Errorf("taskgrid: callable expects %d non-Unit argument(s), got %d", len(want), ft.NumIn())
	}
	for i, w := range want {
		if ft.In(i) != w {
			return fmt.Errorf("taskgrid: argument %d: expected %s, got %s", i, w, ft.In(i))
		}
	}

	wantOutput := outType != unitType
	switch {
	case wantOutput && (ft.NumOut() != 1 || ft.Out(0) != outType):
		return fmt.Errorf("taskgrid: callable must return exactly one %s value", outType)
	case !wantOutput && ft.NumOut() != 0:
		return fmt.Errorf("taskgrid: callable for a Unit-output task must return nothing")
	}
	return nil
}

// buildUnitAwareArgs filters out the positions whose declared type is Unit,
// in order, leaving the reflect.Values that Fn's validated signature
// actually expects.
func buildUnitAwareArgs(types []reflect.Type, values []reflect.Value) []reflect.Value {
	args := make([]reflect.Value, 0, len(values))
	for i, t := range types {
		if t != unitType {
			args = append(args, values[i])
		}
	}
	return args
}
