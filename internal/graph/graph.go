package graph

import (
	"github.com/cogfab/cog/internal/registry"
)

// Graph is the dependency graph over a set of component descriptors. An
// edge runs from a dependency to its dependent: the dependency must be
// built first. The graph is built once per resolution pass and is not
// safe for concurrent mutation; bootstrap is single-threaded by contract.
type Graph struct {
	nodes map[registry.Identity]*Node
	order []registry.Identity // insertion order, mirrors registry order
}

// Node is a single component in the graph.
type Node struct {
	ID         registry.Identity
	Desc       *registry.Descriptor
	Deps       []registry.Identity // identities this node depends on
	Dependents []registry.Identity // identities depending on this node
	InDegree   int
}

// Build constructs the graph for the given descriptors. Every declared
// dependency must itself be described; the caller validates that before
// building, so an unknown dependency here is a programming error reported
// as ComponentNotFoundError.
func Build(descs []*registry.Descriptor) (*Graph, error) {
	g := &Graph{
		nodes: make(map[registry.Identity]*Node, len(descs)),
	}

	for _, d := range descs {
		g.nodes[d.Identity] = &Node{
			ID:   d.Identity,
			Desc: d,
			Deps: d.Dependencies,
		}
		g.order = append(g.order, d.Identity)
	}

	for _, n := range g.nodes {
		for _, dep := range n.Deps {
			depNode, ok := g.nodes[dep]
			if !ok {
				return nil, registry.ComponentNotFoundError{Identity: n.ID, Missing: dep}
			}
			depNode.Dependents = append(depNode.Dependents, n.ID)
			n.InDegree++
		}
	}

	return g, nil
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Node returns the node for an identity.
func (g *Graph) Node(id registry.Identity) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// DetectCycles runs a depth-first traversal with a visiting stack and
// fails with CircularDependencyError naming the full cycle path when a
// node is re-entered while still on the stack.
func (g *Graph) DetectCycles() error {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[registry.Identity]int, len(g.nodes))
	stack := make([]registry.Identity, 0, len(g.nodes))

	var visit func(id registry.Identity) error
	visit = func(id registry.Identity) error {
		switch state[id] {
		case visited:
			return nil
		case visiting:
			return CircularDependencyError{Path: cyclePath(stack, id)}
		}

		state[id] = visiting
		stack = append(stack, id)

		for _, dep := range g.nodes[id].Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = visited
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// cyclePath extracts the portion of the visiting stack from the re-entered
// node onward, which is exactly the cycle.
func cyclePath(stack []registry.Identity, entry registry.Identity) []registry.Identity {
	for i, id := range stack {
		if id == entry {
			path := make([]registry.Identity, len(stack)-i)
			copy(path, stack[i:])
			return path
		}
	}
	return []registry.Identity{entry}
}

// TopologicalOrder returns a construction order via Kahn's algorithm.
// Among nodes whose dependencies are all satisfied, the one with the
// lowest Order wins; remaining ties fall back to registration sequence,
// making the result deterministic across runs with identical
// registrations. An incomplete result means a cycle survived DetectCycles
// and is reported the same way.
func (g *Graph) TopologicalOrder() ([]*registry.Descriptor, error) {
	inDegree := make(map[registry.Identity]int, len(g.nodes))
	for id, n := range g.nodes {
		inDegree[id] = n.InDegree
	}

	ready := make([]*Node, 0, len(g.nodes))
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, g.nodes[id])
		}
	}

	result := make([]*registry.Descriptor, 0, len(g.nodes))
	for len(ready) > 0 {
		// Linear scan for the minimum; registries are small enough that a
		// heap would be noise.
		best := 0
		for i := 1; i < len(ready); i++ {
			if less(ready[i], ready[best]) {
				best = i
			}
		}
		next := ready[best]
		ready = append(ready[:best], ready[best+1:]...)

		result = append(result, next.Desc)

		for _, dependent := range next.Dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, g.nodes[dependent])
			}
		}
	}

	if len(result) != len(g.nodes) {
		if err := g.DetectCycles(); err != nil {
			return nil, err
		}
		// Unreachable unless the graph was mutated mid-sort.
		return nil, CircularDependencyError{}
	}

	return result, nil
}

func less(a, b *Node) bool {
	if a.Desc.Order != b.Desc.Order {
		return a.Desc.Order < b.Desc.Order
	}
	return a.Desc.Sequence() < b.Desc.Sequence()
}
