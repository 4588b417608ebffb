package hclgraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/node"
	"github.com/vk/taskgrid/task"
)

// step is a task.Handle whose arity is only known once its HCL block has
// been parsed — a grid step can depend on any number of prior steps by
// name, not just zero through four. Task0..Task4 can't express that, so
// step builds its own node.Node directly, the same way the generated
// Task* family does, instead of wrapping one of them.
type step struct {
	ctx      context.Context
	name     string
	handler  Handler
	argsBody hcl.Body
	depNames []string

	node     *node.Node
	out      *edge.Edge[cty.Value]
	depEdges []*edge.Edge[cty.Value]

	state  atomic.Int32
	result cty.Value
	err    error

	start, end time.Time

	mu   sync.Mutex
	cond *sync.Cond
}

func newStep(ctx context.Context, name string, handler Handler, argsBody hcl.Body, depNames []string) *step {
	n := node.New(len(depNames))
	out := edge.New[cty.Value](n)
	n.AttachOutput(out)

	s := &step{
		ctx:      ctx,
		name:     name,
		handler:  handler,
		argsBody: argsBody,
		depNames: depNames,
		node:     n,
		out:      out,
		depEdges: make([]*edge.Edge[cty.Value], len(depNames)),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Step is the public view of a loaded grid step, for callers (the example
// CLI, x/observer, tests) that need more than task.Handle's bare Run/AsNode
// contract — the step's name and its post-completion state, result, error,
// and timing. Every value LoadFile returns satisfies it.
type Step interface {
	task.Handle
	Name() string
	State() task.State
	Result() cty.Value
	Err() error
	Duration() time.Duration
}

func (s *step) bindDependency(i int, producer *step) {
	s.depEdges[i] = producer.out
	s.node.SetInputEdge(i, producer.out)
}

// Name returns the step's declared block label.
func (s *step) Name() string { return s.name }

// AsNode satisfies task.Handle.
func (s *step) AsNode() *node.Node { return s.node }

// OutputEdge exposes the step's published cty.Value for anything wiring
// further graphs on top of hclgraph (x/observer, tests).
func (s *step) OutputEdge() *edge.Edge[cty.Value] { return s.out }

// State returns the step's lifecycle stage using the same enum task.Task*
// types use, so callers can treat hclgraph steps and core tasks uniformly.
func (s *step) State() task.State { return task.State(s.state.Load()) }

// Result returns the step's published cty.Value. Defined only once State
// is Complete.
func (s *step) Result() cty.Value { return s.result }

// Err returns the error a failed handler or argument decode produced, or
// nil. Defined only once State is Complete.
func (s *step) Err() error { return s.err }

// Duration returns end-start. Defined only after Complete.
func (s *step) Duration() time.Duration { return s.end.Sub(s.start) }

// Wait blocks until the step's state is Complete.
func (s *step) Wait() task.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for task.State(s.state.Load()) != task.Complete {
		s.cond.Wait()
	}
	return task.Complete
}

// Run awaits every dependency's output, builds an EvalContext exposing them
// under step.<name>, decodes the argument body into the handler's input
// struct, and invokes the handler — the same decode-then-call shape as
// node_runner.go's executeStepNode, minus the resource/asset fork hclgraph
// doesn't need.
func (s *step) Run() {
	logger := ctxlog.FromContext(s.ctx)
	logger.Debug("step awaiting dependencies", "step", s.name, "depends_on", s.depNames)

	values := make(map[string]cty.Value, len(s.depNames))
	for i, depName := range s.depNames {
		if s.depEdges[i] == nil {
			continue
		}
		s.depEdges[i].Await()
		values[depName] = s.depEdges[i].Get()
	}

	s.start = time.Now()
	s.state.Store(int32(task.Running))
	logger.Debug("step running", "step", s.name, "uses", s.handler)

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"step": cty.ObjectVal(values)},
	}

	input := s.handler.NewInput()
	if input != nil && s.argsBody != nil {
		if diags := gohcl.DecodeBody(s.argsBody, evalCtx, input); diags.HasErrors() {
			err := fmt.Errorf("step %q: decoding arguments: %w", s.name, diags)
			logger.Error("step argument decode failed", "step", s.name, "err", err)
			s.finish(cty.NilVal, err)
			return
		}
	}

	result, err := s.handler.Run(s.ctx, evalCtx, input)
	if err != nil {
		err = fmt.Errorf("step %q: %w", s.name, err)
		logger.Error("step failed", "step", s.name, "err", err)
		s.finish(cty.NilVal, err)
		return
	}
	logger.Debug("step complete", "step", s.name, "duration", time.Since(s.start))
	s.finish(result, nil)
}

func (s *step) finish(result cty.Value, err error) {
	s.result = result
	s.err = err
	s.out.Set(result)

	s.end = time.Now()
	s.mu.Lock()
	s.state.Store(int32(task.Complete))
	s.cond.Broadcast()
	s.mu.Unlock()
}
