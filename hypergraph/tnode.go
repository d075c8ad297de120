package hypergraph

import "fmt"

// A TNode is a node of a derivation tree: a value found for a node of the hypergraph,
// along with the derivations of the sources used to compute it.
// TNodes are immutable.
type TNode struct {
	id       int
	label    string
	value    any
	children []*TNode
	cost     float64
	index    int
	edge     string // Label of the generating edge, empty for leaves.
	values   map[string][]any
}

func newLeaf(id int, label string, value any, index int) *TNode {
	return &TNode{
		id:     id,
		label:  label,
		value:  value,
		index:  index,
		values: map[string][]any{label: {value}},
	}
}

// newParent builds the TNode of label obtained by traversing edge e from children.
func newParent(id int, label string, value any, e *Edge, children []*TNode) *TNode {
	t := &TNode{
		id:       id,
		label:    label,
		value:    value,
		children: append([]*TNode(nil), children...),
		edge:     e.label,
		cost:     e.weight,
	}
	maxIdx := -1
	for _, c := range children {
		t.cost += c.cost
		if c.index > maxIdx {
			maxIdx = c.index
		}
	}
	t.index = 1 + maxIdx + e.indexOffset
	t.values = mergeValues(label, value, children)
	return t
}

// mergeValues keeps, for each label, the longest history found among children,
// then appends value to the history of label.
func mergeValues(label string, value any, children []*TNode) map[string][]any {
	res := make(map[string][]any)
	for _, c := range children {
		for l, vals := range c.values {
			if len(vals) > len(res[l]) {
				res[l] = vals
			}
		}
	}
	hist := make([]any, len(res[label]), len(res[label])+1)
	copy(hist, res[label])
	res[label] = append(hist, value)
	return res
}

// ID identifies the TNode within the search that produced it.
func (t *TNode) ID() int { return t.id }

// Label is the label of the hypergraph node this TNode gives a value to.
func (t *TNode) Label() string { return t.label }

// Value is the value found.
func (t *TNode) Value() any { return t.value }

// Children returns the derivations of the sources used to compute the value.
func (t *TNode) Children() []*TNode { return append([]*TNode(nil), t.children...) }

// Cost is the cumulated weight of the edges traversed to build the tree.
func (t *TNode) Cost() float64 { return t.cost }

// Index is the iteration depth of the derivation: 1 + the max index of the children,
// plus the generating edge's offset. Leaves have their node's index offset, 0 by default.
func (t *TNode) Index() int { return t.index }

// EdgeLabel is the label of the edge that produced the TNode, or "" for leaves.
func (t *TNode) EdgeLabel() string { return t.edge }

// IsLeaf is true iff the TNode is a known value rather than a derived one.
func (t *TNode) IsLeaf() bool { return len(t.children) == 0 }

// Values returns, for each node label met along the derivation, the history of its values,
// from the lowest to the highest index.
func (t *TNode) Values() map[string][]any {
	res := make(map[string][]any, len(t.values))
	for l, vals := range t.values {
		res[l] = append([]any(nil), vals...)
	}
	return res
}

// Descendants returns the TNode and all the TNodes below it, depth first.
func (t *TNode) Descendants() []*TNode {
	res := []*TNode{t}
	for _, c := range t.children {
		res = append(res, c.Descendants()...)
	}
	return res
}

func (t *TNode) String() string {
	res := t.label
	if t.value != nil {
		if f, ok := t.value.(float64); ok {
			res += fmt.Sprintf("=%.4g", f)
		} else {
			res += fmt.Sprintf("=%v", t.value)
		}
	}
	return res + fmt.Sprintf(", cost=%.4g", t.cost)
}
