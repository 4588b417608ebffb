// Package graph provides the free function that assigns critical-path
// reachability to a collection of task-graph nodes, shared by the executor's
// submission-order sort and by anything that wants to inspect a graph's
// shape ahead of a run.
package graph

import "github.com/vk/taskgrid/edge"

// ComputeReachability assigns reachability to every node reachable from
// owners, using a single shared visit marker across the whole collection.
// Owners are visited in the order given; the assignment is independent of
// that order except for how cycles degrade (see below).
//
// Per-node rule: a node with zero input slots is a leaf and gets
// reachability 0. Otherwise reachability is 1 + the maximum reachability of
// its non-nil input edges' owners (a nil slot contributes 0), which is why a
// node with inputs that are all nil still gets reachability 1.
//
// The graph is required to be acyclic by contract. A cycle causes the
// recursion to observe a node already in the marker before its value is
// assigned; ComputeReachability returns that node's current (possibly
// zero-valued) reachability rather than detecting the cycle.
func ComputeReachability(owners []edge.Owner) {
	marker := make(map[edge.Owner]bool, len(owners))
	for _, o := range owners {
		assign(o, marker)
	}
}

func assign(o edge.Owner, marker map[edge.Owner]bool) int {
	if marker[o] {
		return o.Reachability()
	}
	marker[o] = true

	inputs := o.InputEdges()
	if len(inputs) == 0 {
		o.SetReachability(0)
		return 0
	}

	max := 0
	for _, in := range inputs {
		if in == nil {
			continue
		}
		if r := assign(in.Owner(), marker); r > max {
			max = r
		}
	}

	result := max + 1
	o.SetReachability(result)
	return result
}
