package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Handler is a registered step implementation. NewInput returns a pointer
// to a fresh, zero-valued input struct whose fields carry `hcl` tags;
// gohcl.DecodeBody fills it in against the step's argument body and an
// EvalContext exposing prior steps' outputs. Run receives that same
// EvalContext so handlers whose input isn't fully captured by static struct
// fields (const's literal expression, for instance) can evaluate
// expressions themselves.
type Handler interface {
	NewInput() any
	Run(ctx context.Context, evalCtx *hcl.EvalContext, input any) (cty.Value, error)
}

// Registry maps a step's `uses` name to its Handler, mirroring the
// teacher's handlers.Handlers / registry.Registry split between handler
// lookup and definition lookup — here collapsed into one, since hclgraph
// has no separate manifest format to validate against.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs h under name, panicking if name is already registered —
// a duplicate registration is a programming error discovered at init time,
// exactly as the teacher's Handlers.RegisterHandler panics for the same
// reason.
func (r *Registry) Register(name string, h Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("hclgraph: handler %q already registered", name))
	}
	r.handlers[name] = h
}

func (r *Registry) lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
