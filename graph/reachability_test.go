package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/graph"
	"github.com/vk/taskgrid/node"
)

func link(consumer *node.Node, slot int, producer *node.Node) *edge.Edge[int] {
	e := edge.New[int](producer)
	producer.AttachOutput(e)
	consumer.SetInputEdge(slot, e)
	return e
}

func TestComputeReachability_Leaf(t *testing.T) {
	leaf := node.New(0)
	leaf.AttachOutput(edge.New[int](leaf))

	graph.ComputeReachability([]edge.Owner{leaf})
	assert.Equal(t, 0, leaf.Reachability())
}

func TestComputeReachability_AllInputsNilIsOne(t *testing.T) {
	n := node.New(2) // arity 2, both slots left unbound
	n.AttachOutput(edge.New[int](n))

	graph.ComputeReachability([]edge.Owner{n})
	assert.Equal(t, 1, n.Reachability())
}

func TestComputeReachability_LinearChain(t *testing.T) {
	const depth = 50
	nodes := make([]*node.Node, depth)
	for i := range nodes {
		nodes[i] = node.New(1)
		nodes[i].AttachOutput(edge.New[int](nodes[i]))
	}
	owners := make([]edge.Owner, depth)
	for i, n := range nodes {
		owners[i] = n
		if i > 0 {
			link(n, 0, nodes[i-1])
		}
	}

	graph.ComputeReachability(owners)
	// nodes[0] has one unbound input slot, so it gets reachability 1 (not 0)
	// and each later node adds one more.
	for i, n := range nodes {
		assert.Equal(t, i+1, n.Reachability())
	}
}

func TestComputeReachability_Diamond(t *testing.T) {
	top := node.New(0)
	left := node.New(1)
	right := node.New(1)
	bottom := node.New(2)

	top.AttachOutput(edge.New[int](top))
	left.AttachOutput(edge.New[int](left))
	right.AttachOutput(edge.New[int](right))
	bottom.AttachOutput(edge.New[int](bottom))

	link(left, 0, top)
	link(right, 0, top)
	link(bottom, 0, left)
	link(bottom, 1, right)

	graph.ComputeReachability([]edge.Owner{top, left, right, bottom})

	assert.Equal(t, 0, top.Reachability())
	assert.Equal(t, 1, left.Reachability())
	assert.Equal(t, 1, right.Reachability())
	assert.Equal(t, 2, bottom.Reachability())
}

func TestComputeReachability_PredecessorNotInSubmittedSetStillAssigned(t *testing.T) {
	upstream := node.New(0)
	upstream.AttachOutput(edge.New[int](upstream))
	downstream := node.New(1)
	downstream.AttachOutput(edge.New[int](downstream))
	link(downstream, 0, upstream)

	// Only downstream is in the submitted set; the helper still recurses
	// through upstream's edge to assign its reachability too.
	graph.ComputeReachability([]edge.Owner{downstream})

	assert.Equal(t, 0, upstream.Reachability())
	assert.Equal(t, 1, downstream.Reachability())
}

func TestComputeReachability_OrderIndependent(t *testing.T) {
	top := node.New(0)
	left := node.New(1)
	right := node.New(1)
	top.AttachOutput(edge.New[int](top))
	left.AttachOutput(edge.New[int](left))
	right.AttachOutput(edge.New[int](right))
	link(left, 0, top)
	link(right, 0, top)

	graph.ComputeReachability([]edge.Owner{right, left, top})

	assert.Equal(t, 0, top.Reachability())
	assert.Equal(t, 1, left.Reachability())
	assert.Equal(t, 1, right.Reachability())
}
