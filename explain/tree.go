// Package explain provides facilities to display and understand hypergraph derivations.
package explain

import (
	"fmt"
	"strings"

	"github.com/crillab/gopherhg/hypergraph"
)

// Connectors used to draw trees.
const (
	elbow     = "└──"
	pipe      = "│  "
	tee       = "├──"
	blank     = "   "
	elbowJoin = "└◯─"
	teeJoin   = "├◯─"
	elbowStop = "└●─"
	teeStop   = "├●─"
)

// joinStatus tells whether a tree node is one of several sources of the same edge.
type joinStatus byte

const (
	single   = joinStatus(iota) // Only source of its edge.
	join                        // One of several sources, but not the last one.
	joinStop                    // Last of several sources.
)

func connector(last bool, status joinStatus) string {
	switch {
	case last && status == join:
		return elbowJoin
	case last && status == joinStop:
		return elbowStop
	case last:
		return elbow
	case status == join:
		return teeJoin
	case status == joinStop:
		return teeStop
	default:
		return tee
	}
}

// Tree returns a representation of the derivation rooted at t, one line per TNode.
// When an edge appears several times in the derivation, its subtree is only printed the first time;
// later occurrences are marked as "(derivative)".
func Tree(t *hypergraph.TNode) string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	printTNode(&sb, t, "", true, make(map[string]bool))
	return sb.String()
}

func printTNode(sb *strings.Builder, t *hypergraph.TNode, header string, last bool, checked map[string]bool) {
	sb.WriteString(header + connector(last, single) + t.String())
	edge := t.EdgeLabel()
	if checked[edge] {
		if !t.IsLeaf() {
			sb.WriteString(" (derivative)")
		}
		sb.WriteByte('\n')
		return
	}
	sb.WriteByte('\n')
	if edge != "" {
		checked[edge] = true
	}
	children := t.Children()
	for i, c := range children {
		printTNode(sb, c, childHeader(header, last), i == len(children)-1, checked)
	}
}

func childHeader(header string, last bool) string {
	if last {
		return header + blank
	}
	return header + pipe
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.4g", f)
	}
	return fmt.Sprint(v)
}
