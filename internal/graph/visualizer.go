package graph

import (
	"fmt"
	"io"
)

// WriteDOT writes the graph in Graphviz DOT format, edges pointing from
// dependency to dependent (build direction). Useful when diagnosing a
// surprising construction order.
func (g *Graph) WriteDOT(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph components {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box];")

	ids := make(map[string]string, len(g.nodes))
	for i, id := range g.order {
		name := fmt.Sprintf("n%d", i)
		ids[id.String()] = name
		n := g.nodes[id]
		fmt.Fprintf(w, "  %s [label=\"%s\\n%s order=%d\"];\n",
			name, id, n.Desc.Scope, n.Desc.Order)
	}

	for _, id := range g.order {
		n := g.nodes[id]
		for _, dep := range n.Deps {
			fmt.Fprintf(w, "  %s -> %s;\n", ids[dep.String()], ids[id.String()])
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}
