package explain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/gopherhg/hypergraph"
	"github.com/crillab/gopherhg/rel"
)

// basicGraph is C = A + B, or C = -(-A + -B).
func basicGraph(t *testing.T) *hypergraph.Hypergraph {
	t.Helper()
	g := hypergraph.New()
	for _, e := range []struct {
		sources []string
		target  string
		rel     hypergraph.Relation
	}{
		{[]string{"A", "B"}, "C", rel.Sum},
		{[]string{"A"}, "D", rel.Negate},
		{[]string{"B"}, "E", rel.Negate},
		{[]string{"D", "E"}, "F", rel.Sum},
		{[]string{"F"}, "C", rel.Negate},
	} {
		_, err := g.AddEdge(hypergraph.Sources(e.sources...), e.target, e.rel)
		require.NoError(t, err)
	}
	return g
}

func TestTree(t *testing.T) {
	g := basicGraph(t)
	res, err := g.Solve(context.Background(), "C", map[string]any{"A": 3.0, "B": 7.0})
	require.NoError(t, err)
	require.Equal(t, hypergraph.Solved, res.Status)
	expected := "└──C=10, cost=1\n" +
		"   ├──A=3, cost=0\n" +
		"   └──B=7, cost=0\n"
	assert.Equal(t, expected, Tree(res.Tree))
	assert.Empty(t, Tree(nil))
}

func TestTreeDerivative(t *testing.T) {
	g := hypergraph.New()
	_, err := g.AddEdge(hypergraph.Sources("A"), "A", rel.Increment, hypergraph.WithLabel("inc"))
	require.NoError(t, err)
	res, err := g.Solve(context.Background(), "A", map[string]any{"A": 1.0}, hypergraph.WithMinIndex(2))
	require.NoError(t, err)
	require.Equal(t, hypergraph.Solved, res.Status)
	expected := "└──A=3, cost=2\n" +
		"   └──A=2, cost=1 (derivative)\n"
	assert.Equal(t, expected, Tree(res.Tree))
}

func TestPaths(t *testing.T) {
	g := basicGraph(t)
	out, err := Paths(g, "C")
	require.NoError(t, err)
	expected := "└──C, cost=1\n" +
		"   ├◯─A, cost=0\n" +
		"   ├●─B, cost=0\n" +
		"   └──F, cost=3\n" +
		"      ├◯─D, cost=1\n" +
		"      │  └──A, cost=0\n" +
		"      └●─E, cost=1\n" +
		"         └──B, cost=0\n"
	assert.Equal(t, expected, out)

	_, err = Paths(g, "Z")
	assert.ErrorIs(t, err, hypergraph.ErrUnknownNode)
}

func TestPathsCycle(t *testing.T) {
	g := hypergraph.New()
	_, err := g.AddEdge(hypergraph.Sources("A"), "B", rel.First)
	require.NoError(t, err)
	_, err = g.AddEdge(hypergraph.Sources("B"), "A", rel.First)
	require.NoError(t, err)
	out, err := Paths(g, "A")
	require.NoError(t, err)
	expected := "└──A, cost=2\n" +
		"   └──B, cost=1\n" +
		"      └──A[CYCLE]\n"
	assert.Equal(t, expected, out)
}

func TestMissingInputs(t *testing.T) {
	g := basicGraph(t)
	tests := []struct {
		name     string
		known    map[string]any
		expected []string
	}{
		{"nothing known", nil, []string{"A", "B"}},
		{"one input", map[string]any{"A": 3.0}, []string{"B"}},
		{"intermediate known", map[string]any{"A": 3.0, "E": -7.0}, []string{"B"}},
		{"all inputs", map[string]any{"A": 3.0, "B": 7.0}, nil},
		{"target known", map[string]any{"C": 1.0}, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			missing, err := MissingInputs(g, "C", test.known)
			require.NoError(t, err)
			assert.Equal(t, test.expected, missing)
		})
	}
	_, err := MissingInputs(g, "Z", nil)
	assert.ErrorIs(t, err, hypergraph.ErrUnknownNode)
}
