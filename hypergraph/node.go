package hypergraph

import (
	"fmt"
	"sort"
)

// A Node is a variable of the hypergraph.
// Nodes describe the schema only: values found during a solve are never stored on them.
type Node struct {
	label       string
	value       any
	hasValue    bool // True iff the node has a static value, i.e it is a source in every solve.
	description string
	units       string
	indexOffset int
	superNodes  map[string]struct{}
	generating  map[string]struct{} // Labels of edges targeting the node.
	leading     map[string]struct{} // Labels of edges using the node as a source.
}

// A NodeOption configures a node when it is added to a hypergraph.
type NodeOption func(*Node)

// WithValue gives a static value to the node, making it a source for every solve.
func WithValue(v any) NodeOption {
	return func(n *Node) {
		n.value = v
		n.hasValue = v != nil
	}
}

// WithDescription sets a human readable description of the node.
func WithDescription(desc string) NodeOption {
	return func(n *Node) { n.description = desc }
}

// WithUnits sets the units the node's values are expressed in.
func WithUnits(units string) NodeOption {
	return func(n *Node) { n.units = units }
}

// WithIndexOffset sets the starting index of the node when it is a source.
func WithIndexOffset(offset int) NodeOption {
	return func(n *Node) { n.indexOffset = offset }
}

// WithSuperNodes declares the node as a specialization of the given nodes:
// searches reaching the node will also follow the leading edges of its super nodes.
func WithSuperNodes(labels ...string) NodeOption {
	return func(n *Node) {
		for _, l := range labels {
			n.superNodes[l] = struct{}{}
		}
	}
}

func newNode(label string) *Node {
	return &Node{
		label:      label,
		superNodes: make(map[string]struct{}),
		generating: make(map[string]struct{}),
		leading:    make(map[string]struct{}),
	}
}

// Label is the unique identifier of the node.
func (n *Node) Label() string { return n.label }

// Value returns the static value of the node, if any.
func (n *Node) Value() (v any, ok bool) { return n.value, n.hasValue }

// Description returns the node's description.
func (n *Node) Description() string { return n.description }

// Units returns the node's units.
func (n *Node) Units() string { return n.units }

// IndexOffset is the index given to the node when it is a search source.
func (n *Node) IndexOffset() int { return n.indexOffset }

// SuperNodes returns the sorted labels of the node's super nodes.
func (n *Node) SuperNodes() []string { return sortedKeys(n.superNodes) }

// GeneratingEdges returns the sorted labels of the edges targeting the node.
func (n *Node) GeneratingEdges() []string { return sortedKeys(n.generating) }

// LeadingEdges returns the sorted labels of the edges using the node as a source.
func (n *Node) LeadingEdges() []string { return sortedKeys(n.leading) }

func (n *Node) String() string {
	res := n.label
	if n.description != "" {
		res += ": " + n.description
	}
	if n.units != "" {
		res += fmt.Sprintf(" [%s]", n.units)
	}
	return res
}

// union merges o into n.
// The last non-nil static value wins, as do non-empty descriptions and units and non-zero offsets.
// Edge and super node sets are unioned.
func (n *Node) union(o *Node) {
	if o.hasValue {
		n.value = o.value
		n.hasValue = true
	}
	if o.description != "" {
		n.description = o.description
	}
	if o.units != "" {
		n.units = o.units
	}
	if o.indexOffset != 0 {
		n.indexOffset = o.indexOffset
	}
	for l := range o.superNodes {
		n.superNodes[l] = struct{}{}
	}
	for l := range o.generating {
		n.generating[l] = struct{}{}
	}
	for l := range o.leading {
		n.leading[l] = struct{}{}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
