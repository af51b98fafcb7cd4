package engine

import (
	"context"
	"fmt"
)

// NodeID names a stage inside a dataflow graph.
type NodeID string

// Node is one stage of a dataflow graph. Run receives the outputs of the
// nodes listed in Needs and must be side-effect free so the executor can
// re-run it after a transient failure.
type Node struct {
	ID    NodeID
	Needs []NodeID
	Run   func(ctx context.Context, in Results) (any, error)
}

// Results maps a node ID to the value its Run returned.
type Results map[NodeID]any

// Graph is a dataflow plan represented as data: typed stages connected
// by edges, built once per run and validated before execution.
type Graph struct {
	nodes []*Node
	byID  map[NodeID]*Node
}

func NewGraph() *Graph {
	return &Graph{byID: make(map[NodeID]*Node)}
}

// Add registers a node. Node IDs must be unique within the graph.
func (g *Graph) Add(n *Node) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("node must have an id")
	}
	if n.Run == nil {
		return fmt.Errorf("node %s has no run function", n.ID)
	}
	if _, dup := g.byID[n.ID]; dup {
		return fmt.Errorf("duplicate node id %s", n.ID)
	}
	g.nodes = append(g.nodes, n)
	g.byID[n.ID] = n
	return nil
}

// MustAdd is Add for statically constructed graphs.
func (g *Graph) MustAdd(n *Node) {
	if err := g.Add(n); err != nil {
		panic(err)
	}
}

// Validate checks that every edge points at a known node and that the
// graph is acyclic.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		for _, dep := range n.Needs {
			if _, ok := g.byID[dep]; !ok {
				return fmt.Errorf("node %s needs unknown node %s", n.ID, dep)
			}
		}
	}
	_, err := g.topoOrder()
	return err
}

// topoOrder returns the nodes in dependency order via Kahn's algorithm.
func (g *Graph) topoOrder() ([]*Node, error) {
	indeg := make(map[NodeID]int, len(g.nodes))
	for _, n := range g.nodes {
		indeg[n.ID] = len(n.Needs)
	}
	dependents := make(map[NodeID][]*Node)
	for _, n := range g.nodes {
		for _, dep := range n.Needs {
			dependents[dep] = append(dependents[dep], n)
		}
	}

	var ready []*Node
	for _, n := range g.nodes {
		if indeg[n.ID] == 0 {
			ready = append(ready, n)
		}
	}
	order := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, next := range dependents[n.ID] {
			indeg[next.ID]--
			if indeg[next.ID] == 0 {
				ready = append(ready, next)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph has a cycle")
	}
	return order, nil
}
