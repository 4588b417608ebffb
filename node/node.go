// Package node implements the type-erased graph vertex shared by every
// arity-specific Task. A Node knows nothing about the Go types flowing over
// its edges; that knowledge lives one layer up, in the task package, which
// keeps typed references alongside the ones stored here.
package node

import "github.com/vk/taskgrid/edge"

// Node is a vertex in the task graph: a fixed-arity array of positional
// input-edge references and exactly one owned output edge. Arity is fixed
// at construction; input edges are bound by the caller before submission and
// read-only thereafter.
type Node struct {
	inputs       []edge.Retriever
	output       edge.Retriever
	reachability int
}

// New creates an empty Node with the given fixed input arity. The output
// edge is attached separately via AttachOutput once the caller has
// constructed it with this Node as its owner.
func New(arity int) *Node {
	return &Node{inputs: make([]edge.Retriever, arity)}
}

// AttachOutput sets the node's owned output edge. It is called exactly once,
// by the task package, immediately after constructing both the Node and its
// output Edge[O]. The output edge is never nil after this call and is never
// reassigned.
func (n *Node) AttachOutput(e edge.Retriever) {
	n.output = e
}

// InputEdges returns the node's positional input-edge references. Entries
// may be nil for unbound slots.
func (n *Node) InputEdges() []edge.Retriever {
	return n.inputs
}

// InputEdgeCount returns the node's declared arity.
func (n *Node) InputEdgeCount() int {
	return len(n.inputs)
}

// SetInputEdge binds slot i to e, replacing any previous reference. i must
// be within [0, InputEdgeCount()); callers (the arity-specific Task wrappers)
// guarantee this since their Bind methods are generated per valid index.
func (n *Node) SetInputEdge(i int, e edge.Retriever) {
	n.inputs[i] = e
}

// OutputEdge returns the node's owned output edge.
func (n *Node) OutputEdge() edge.Retriever {
	return n.output
}

// Reachability returns the cached critical-path depth.
func (n *Node) Reachability() int {
	return n.reachability
}

// SetReachability stores the critical-path depth computed by the graph
// helper. It is called at most once per Executor run, before any task in
// the run starts executing.
func (n *Node) SetReachability(v int) {
	n.reachability = v
}

// Order reports whether n's reachability is strictly less than other's,
// i.e. whether n should be submitted to the worker pool first.
func (n *Node) Order(other *Node) bool {
	return n.reachability < other.reachability
}
