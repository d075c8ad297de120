package hypergraph

// Status is the outcome of a search.
type Status byte

const (
	// Indet means the search stopped before proving anything, e.g because its budget was exceeded.
	Indet = Status(iota)
	// Solved means a derivation of the target was found.
	Solved
	// Unreachable means every derivation was explored without reaching the target.
	Unreachable
)

func (s Status) String() string {
	switch s {
	case Indet:
		return "INDETERMINATE"
	case Solved:
		return "SOLVED"
	case Unreachable:
		return "UNREACHABLE"
	default:
		panic("invalid status")
	}
}

// Stats are statistics about a search.
// They are provided for information purpose only.
type Stats struct {
	NbExpansions   int // How many TNodes were popped from the frontier
	NbTNodes       int // How many TNodes were built, leaves excluded
	NbRejected     int // How many combinations were discarded by a guard, the Level property or an undefined relation
	NbDuplicates   int // How many combinations had already been built
	FrontierMaxLen int
}

// A Result is the outcome of a solve.
// If the status is Solved, Tree is the derivation of the target and Values the
// history of the values found along it, as in Tree.Values().
type Result struct {
	Status   Status
	Tree     *TNode
	Values   map[string][]any
	Stats    Stats
	SearchID string
}

// Value returns the value of the target, or nil if it was not solved.
func (r Result) Value() any {
	if r.Tree == nil {
		return nil
	}
	return r.Tree.Value()
}
