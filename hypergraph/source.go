package hypergraph

import "fmt"

// SourceKind tells how a Source is bound to an argument of an edge.
type SourceKind byte

const (
	// Positional sources get their argument name from their position: s1, s2, ...
	// unless the edge declares explicit names with WithArgNames.
	Positional = SourceKind(iota)
	// Named sources are bound to an explicit argument name.
	Named
	// PseudoIndex sources are not bound to a node value but to the iteration index
	// of another argument of the same edge.
	PseudoIndex
)

func (k SourceKind) String() string {
	switch k {
	case Positional:
		return "positional"
	case Named:
		return "named"
	case PseudoIndex:
		return "index"
	default:
		panic("invalid source kind")
	}
}

// A Source is one input of an edge.
type Source struct {
	Kind SourceKind
	Name string // Argument name. Empty for positional sources.
	Node string // Label of the source node. Empty for pseudo-index sources.
	Of   string // For pseudo-index sources, the argument whose index is used.
}

// S is a positional source reading the value of the given node.
func S(node string) Source {
	return Source{Kind: Positional, Node: node}
}

// Arg is a named source reading the value of the given node.
func Arg(name, node string) Source {
	return Source{Kind: Named, Name: name, Node: node}
}

// IndexOf is a named source reading the iteration index of the argument arg.
func IndexOf(name, arg string) Source {
	return Source{Kind: PseudoIndex, Name: name, Of: arg}
}

// Sources returns a positional source for each given node label.
func Sources(nodes ...string) []Source {
	res := make([]Source, len(nodes))
	for i, n := range nodes {
		res[i] = S(n)
	}
	return res
}

func (s Source) String() string {
	switch s.Kind {
	case PseudoIndex:
		return fmt.Sprintf("%s=index(%s)", s.Name, s.Of)
	case Named:
		return fmt.Sprintf("%s=%s", s.Name, s.Node)
	default:
		return s.Node
	}
}

// A param is a resolved source: every param has a name.
type param struct {
	name   string
	node   string // Source node, for value params.
	of     string // Referenced argument, for index params.
	index  bool
	hidden bool // Injected by the Level property; never shown to rel or via.
}
