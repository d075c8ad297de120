package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crillab/gopherhg/hypergraph"
)

// A pathNode is a node of the static hypertree of all the ways to derive a node.
type pathNode struct {
	label    string
	value    any
	hasValue bool
	cost     float64
	hasCost  bool
	status   joinStatus
	children []*pathNode
}

type step struct {
	node string
	edge string
}

// Paths returns the hypertree of every path leading to target.
// Each node is displayed with the lowest cost of its generating edges. Sources of an edge
// having several sources are drawn with join connectors, the last one being marked with a dot.
// An edge already traversed on the way from target is marked with [CYCLE] and not expanded.
func Paths(g *hypergraph.Hypergraph, target string) (string, error) {
	n, ok := g.Node(target)
	if !ok {
		return "", fmt.Errorf("%w: %q", hypergraph.ErrUnknownNode, target)
	}
	root := buildPaths(g, n, single, nil)
	var sb strings.Builder
	printPaths(&sb, root, "", true)
	return sb.String(), nil
}

func buildPaths(g *hypergraph.Hypergraph, n *hypergraph.Node, status joinStatus, trace []step) *pathNode {
	p := &pathNode{label: n.Label(), status: status}
	p.value, p.hasValue = n.Value()
	var branchCosts []float64
	for _, el := range n.GeneratingEdges() {
		e, _ := g.Edge(el)
		if inTrace(trace, el) {
			p.label += "[CYCLE]"
			p.hasCost = false
			return p
		}
		var srcs []string
		for _, s := range e.Sources() {
			if s.Kind != hypergraph.PseudoIndex {
				srcs = append(srcs, s.Node)
			}
		}
		childTrace := append(append([]step(nil), trace...), step{node: n.Label(), edge: el})
		cost := 0.0
		for i, src := range srcs {
			sn, ok := g.Node(src)
			if !ok {
				continue
			}
			child := buildPaths(g, sn, sourceStatus(i, len(srcs)), childTrace)
			if child.hasCost {
				cost += child.cost
			}
			p.children = append(p.children, child)
		}
		branchCosts = append(branchCosts, cost+e.Weight())
	}
	p.hasCost = true
	if len(branchCosts) > 0 {
		sort.Float64s(branchCosts)
		p.cost = branchCosts[0]
	}
	return p
}

func inTrace(trace []step, edge string) bool {
	for _, s := range trace {
		if s.edge == edge {
			return true
		}
	}
	return false
}

func sourceStatus(i, nb int) joinStatus {
	switch {
	case nb <= 1:
		return single
	case i == nb-1:
		return joinStop
	default:
		return join
	}
}

func printPaths(sb *strings.Builder, p *pathNode, header string, last bool) {
	sb.WriteString(header + connector(last, p.status) + p.label)
	if p.hasValue && p.value != nil {
		sb.WriteString("=" + formatValue(p.value))
	}
	if p.hasCost {
		sb.WriteString(fmt.Sprintf(", cost=%.4g", p.cost))
	}
	sb.WriteByte('\n')
	for i, c := range p.children {
		printPaths(sb, c, childHeader(header, last), i == len(p.children)-1)
	}
}
