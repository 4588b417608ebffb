// Package hclgraph loads a declarative `.tg.hcl` grid file into a set of
// task.Handle values ready to hand to executor.Executor.Add, the way
// internal/model and internal/config load the teacher's `.hcl` grid files
// into its own execution graph — scoped down to this library's domain:
// named steps, a handler name, and an argument body.
package hclgraph

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/task"
)

// hclFile is the top-level decode target for one grid file.
type hclFile struct {
	Steps []*hclStep `hcl:"step,block"`
}

// hclStep is a single `step "name" { ... }` block. Remain captures every
// attribute gohcl doesn't already know about — depends_on aside, the rest
// of the body is the handler's own argument set, decoded later against the
// handler's typed input struct.
type hclStep struct {
	Name      string   `hcl:"name,label"`
	Uses      string   `hcl:"uses"`
	DependsOn []string `hcl:"depends_on,optional"`
	Remain    hcl.Body `hcl:",remain"`
}

// LoadFile parses path and wires its step blocks into a graph of
// task.Handle values, resolving each step's `uses` against registry and
// each entry in depends_on against another step declared in the same file.
// Steps may be declared in any order; dependencies are resolved in a second
// pass once every step's output edge exists. ctx is retained by every step
// and passed through to its Handler.Run; a logger attached via
// ctxlog.WithLogger is used for per-step lifecycle tracing.
func LoadFile(ctx context.Context, path string, registry *Registry) ([]task.Handle, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclgraph: parsing %s: %w", path, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("hclgraph: decoding %s: %w", path, diags)
	}
	logger.Debug("hclgraph loaded file", "path", path, "steps", len(parsed.Steps))

	steps := make(map[string]*step, len(parsed.Steps))
	order := make([]*step, 0, len(parsed.Steps))
	for _, b := range parsed.Steps {
		if _, dup := steps[b.Name]; dup {
			return nil, fmt.Errorf("hclgraph: %s: step %q declared more than once", path, b.Name)
		}
		handler, ok := registry.lookup(b.Uses)
		if !ok {
			return nil, fmt.Errorf("hclgraph: %s: step %q uses unregistered handler %q", path, b.Name, b.Uses)
		}
		s := newStep(ctx, b.Name, handler, b.Remain, b.DependsOn)
		steps[b.Name] = s
		order = append(order, s)
	}

	for i, b := range parsed.Steps {
		s := order[i]
		for depIdx, depName := range b.DependsOn {
			producer, ok := steps[depName]
			if !ok {
				return nil, fmt.Errorf("hclgraph: %s: step %q depends on undeclared step %q", path, b.Name, depName)
			}
			s.bindDependency(depIdx, producer)
		}
	}

	handles := make([]task.Handle, len(order))
	for i, s := range order {
		handles[i] = s
	}
	return handles, nil
}
