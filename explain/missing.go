package explain

import (
	"fmt"
	"sort"

	"github.com/crillab/gopherhg/hypergraph"
)

// MissingInputs returns the sorted labels of the inputs target depends on that have no value.
// An input is an ancestor of target that no edge generates, has no static value and is not in known.
// Ancestors are not searched beyond nodes that have a value.
// A nil result means every input target depends on is known; it does not guarantee a solve will succeed,
// since guards may still reject every derivation.
func MissingInputs(g *hypergraph.Hypergraph, target string, known map[string]any) ([]string, error) {
	if _, ok := g.Node(target); !ok {
		return nil, fmt.Errorf("%w: %q", hypergraph.ErrUnknownNode, target)
	}
	missing := make(map[string]bool)
	visited := make(map[string]bool)
	var visit func(label string)
	visit = func(label string) {
		if visited[label] {
			return
		}
		visited[label] = true
		n, ok := g.Node(label)
		if !ok || hasValue(n, known) {
			return
		}
		gens := n.GeneratingEdges()
		if len(gens) == 0 {
			missing[label] = true
			return
		}
		for _, el := range gens {
			e, _ := g.Edge(el)
			for _, slot := range e.Slots() {
				visit(slot)
			}
		}
	}
	visit(target)
	var res []string
	for l := range missing {
		res = append(res, l)
	}
	sort.Strings(res)
	return res, nil
}

func hasValue(n *hypergraph.Node, known map[string]any) bool {
	if v, ok := known[n.Label()]; ok && v != nil {
		return true
	}
	_, ok := n.Value()
	return ok
}
