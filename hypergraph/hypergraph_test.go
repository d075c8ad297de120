package hypergraph_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hg "github.com/crillab/gopherhg/hypergraph"
	"github.com/crillab/gopherhg/rel"
)

func mustEdge(t *testing.T, g *hg.Hypergraph, sources []hg.Source, target string, r hg.Relation, opts ...hg.EdgeOption) *hg.Edge {
	t.Helper()
	e, err := g.AddEdge(sources, target, r, opts...)
	require.NoError(t, err)
	return e
}

func floatGuard(name string, pred func(float64) bool) hg.Guard {
	return func(args hg.Args) (bool, error) {
		f, err := args.Float(name)
		if err != nil {
			return false, err
		}
		return pred(f), nil
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		guard    hg.Guard
		rel      hg.Relation
		known    map[string]any
		status   hg.Status
		expected float64
	}{
		{"sum", nil, rel.Sum, map[string]any{"A": 100, "B": 12.9}, hg.Solved, 112.9},
		{"multiply", nil, rel.Multiply, map[string]any{"A": 3, "B": 1.5}, hg.Solved, 4.5},
		{
			"guarded sum",
			func(args hg.Args) (bool, error) {
				fs, err := args.Floats()
				if err != nil {
					return false, err
				}
				return fs[0] < 10 && fs[1] < 10, nil
			},
			rel.Sum,
			map[string]any{"A": 100, "B": 51},
			hg.Unreachable,
			0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := hg.New()
			mustEdge(t, g, hg.Sources("A", "B"), "C", test.rel, hg.WithGuard(test.guard))
			res, err := g.Solve(context.Background(), "C", test.known)
			require.NoError(t, err)
			require.Equal(t, test.status, res.Status)
			if test.status == hg.Solved {
				assert.InDelta(t, test.expected, res.Value(), 1e-9)
			} else {
				assert.Nil(t, res.Tree)
				assert.Nil(t, res.Value())
			}
		})
	}
}

// cycleGraph is A->B (mean), S->B (mean), B->C (increment), C->A (mean), A->T (mean, a > 5).
func cycleGraph(t *testing.T) *hg.Hypergraph {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A"), "B", rel.Mean)
	mustEdge(t, g, hg.Sources("S"), "B", rel.Mean)
	mustEdge(t, g, hg.Sources("B"), "C", rel.Increment)
	mustEdge(t, g, hg.Sources("C"), "A", rel.Mean)
	mustEdge(t, g, []hg.Source{hg.Arg("a", "A")}, "T", rel.Mean, hg.WithGuard(floatGuard("a", func(a float64) bool { return a > 5 })))
	return g
}

func TestCycle(t *testing.T) {
	g := cycleGraph(t)
	res, err := g.Solve(context.Background(), "T", map[string]any{"S": 0})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 6.0, res.Value())
	assert.Len(t, res.Values["C"], 6)
	assert.NotEmpty(t, res.SearchID)
}

func TestDeterminism(t *testing.T) {
	g := cycleGraph(t)
	ctx := context.Background()
	first, err := g.Solve(ctx, "T", map[string]any{"S": 0})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		res, err := g.Solve(ctx, "T", map[string]any{"S": 0})
		require.NoError(t, err)
		assert.Equal(t, first.Value(), res.Value())
		assert.Equal(t, first.Tree.Cost(), res.Tree.Cost())
		assert.Equal(t, first.Stats, res.Stats)
	}
}

// linearMotion models x_{i+1} = x_i + v*dt, stopping once x has been stepped n times.
func linearMotion(t *testing.T) *hg.Hypergraph {
	g := hg.New()
	step := func(args hg.Args) (any, error) {
		fs, err := args.Floats()
		if err != nil {
			return nil, err
		}
		return fs[0] + fs[1]*fs[2], nil
	}
	mustEdge(t, g, []hg.Source{hg.Arg("x", "x"), hg.Arg("v", "v"), hg.Arg("dt", "dt")}, "x", step, hg.WithLabel("step"))
	mustEdge(t, g, []hg.Source{hg.Arg("x", "x"), hg.IndexOf("i", "x"), hg.Arg("n", "n")}, "x_n", rel.Equal("x"),
		hg.WithLabel("exit"),
		hg.WithGuard(func(args hg.Args) (bool, error) {
			i, err := args.Float("i")
			if err != nil {
				return false, err
			}
			n, err := args.Float("n")
			return i >= n, err
		}),
	)
	return g
}

func TestLinearMotion(t *testing.T) {
	g := linearMotion(t)
	res, err := g.Solve(context.Background(), "x_n", map[string]any{"x": 0.0, "v": 1.5, "dt": 1.0, "n": 4})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 6.0, res.Value())
	assert.Equal(t, "exit", res.Tree.EdgeLabel())
	expected := map[string][]any{
		"x":   {0.0, 1.5, 3.0, 4.5, 6.0},
		"v":   {1.5},
		"dt":  {1.0},
		"n":   {4},
		"x_n": {6.0},
	}
	if diff := cmp.Diff(expected, res.Values); diff != "" {
		t.Errorf("unexpected values (-want +got):\n%s", diff)
	}
}

func TestIndexMonotonicity(t *testing.T) {
	g := linearMotion(t)
	res, err := g.Solve(context.Background(), "x_n", map[string]any{"x": 0.0, "v": 1.5, "dt": 1.0, "n": 6})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	for _, tn := range res.Tree.Descendants() {
		if tn.IsLeaf() {
			assert.Equal(t, 0, tn.Index())
			continue
		}
		maxIdx := -1
		for _, c := range tn.Children() {
			maxIdx = max(maxIdx, c.Index())
			assert.LessOrEqual(t, c.Cost(), tn.Cost())
		}
		assert.GreaterOrEqual(t, tn.Index(), 1+maxIdx)
	}
}

func TestMinIndex(t *testing.T) {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A"), "A", rel.Increment)
	res, err := g.Solve(context.Background(), "A", map[string]any{"A": 0}, hg.WithMinIndex(3))
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 3.0, res.Value())
	assert.Equal(t, 3, res.Tree.Index())

	res, err = g.Solve(context.Background(), "A", map[string]any{"A": 0})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Value())
}

func TestEdgeIndexOffset(t *testing.T) {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A"), "A", rel.Increment, hg.WithEdgeIndexOffset(1))
	res, err := g.Solve(context.Background(), "A", map[string]any{"A": 0}, hg.WithMinIndex(4))
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 2.0, res.Value())
	assert.Equal(t, 4, res.Tree.Index())
}

func TestAcyclicMinimality(t *testing.T) {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A"), "A", rel.Increment, hg.WithLabel("loop"))
	mustEdge(t, g, hg.Sources("A"), "T", rel.First, hg.WithLabel("exit"))
	res, err := g.Solve(context.Background(), "T", map[string]any{"A": 1})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 1.0, res.Value())
	assert.Equal(t, 1, res.Tree.Index())
	assert.Equal(t, 1.0, res.Tree.Cost())
	assert.True(t, res.Tree.Children()[0].IsLeaf())
}

func TestGuardEnforcement(t *testing.T) {
	var calls atomic.Int32
	count := func(args hg.Args) (any, error) {
		calls.Add(1)
		return rel.Sum(args)
	}
	g := hg.New()
	mustEdge(t, g, hg.Sources("A", "B"), "C", count, hg.WithGuard(func(hg.Args) (bool, error) { return false, nil }))
	mustEdge(t, g, hg.Sources("A"), "B", rel.Negate)
	res, err := g.Solve(context.Background(), "C", map[string]any{"A": 1, "B": 2})
	require.NoError(t, err)
	assert.Equal(t, hg.Unreachable, res.Status)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 2, res.Stats.NbRejected)
}

func TestBudgetEnforcement(t *testing.T) {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A"), "A", rel.Increment)
	mustEdge(t, g, hg.Sources("A"), "T", rel.First, hg.WithGuard(func(hg.Args) (bool, error) { return false, nil }))
	res, err := g.Solve(context.Background(), "T", map[string]any{"A": 0}, hg.WithMaxExpansions(50))
	require.ErrorIs(t, err, hg.ErrSearchLimit)
	assert.Equal(t, hg.Indet, res.Status)
	assert.Nil(t, res.Tree)
	assert.LessOrEqual(t, res.Stats.NbTNodes, 51)
}

func TestContextCancelled(t *testing.T) {
	g := cycleGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := g.Solve(ctx, "T", map[string]any{"S": 0})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, hg.Indet, res.Status)
}

func TestLevel(t *testing.T) {
	build := func(opts ...hg.EdgeOption) *hg.Hypergraph {
		g := hg.New()
		_, err := g.AddNode("y", hg.WithIndexOffset(1))
		require.NoError(t, err)
		mustEdge(t, g, hg.Sources("x"), "x", rel.Increment)
		e := mustEdge(t, g, hg.Sources("x", "y"), "z", rel.Sum, opts...)
		assert.Equal(t, []string{"s1", "s2"}, e.ArgNames())
		return g
	}
	known := map[string]any{"x": 0, "y": 10}

	res, err := build().Solve(context.Background(), "z", known)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Value())

	res, err = build(hg.WithProps(hg.Level)).Solve(context.Background(), "z", known)
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 11.0, res.Value())
	assert.Equal(t, 2, res.Stats.NbRejected)
}

func TestLevelWithExplicitIndex(t *testing.T) {
	g := hg.New()
	_, err := g.AddNode("y", hg.WithIndexOffset(1))
	require.NoError(t, err)
	mustEdge(t, g, hg.Sources("x"), "x", rel.Increment)
	e := mustEdge(t, g, []hg.Source{hg.Arg("a", "x"), hg.Arg("b", "y"), hg.IndexOf("i", "a")}, "z", rel.Equal("i"), hg.WithProps(hg.Level))
	assert.Equal(t, []string{"a", "b", "i"}, e.ArgNames())
	res, err := g.Solve(context.Background(), "z", map[string]any{"x": 0, "y": 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Value())
}

func TestSuperNodes(t *testing.T) {
	g := hg.New()
	_, err := g.AddNode("dog", hg.WithSuperNodes("animal"))
	require.NoError(t, err)
	mustEdge(t, g, hg.Sources("animal"), "sound", rel.First)
	res, err := g.Solve(context.Background(), "sound", map[string]any{"dog": 3})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 3.0, res.Value())

	_, err = g.AddNode("animal", hg.WithSuperNodes("dog"))
	assert.ErrorIs(t, err, hg.ErrConfig)
	_, err = g.AddNode("cat", hg.WithSuperNodes("cat"))
	assert.ErrorIs(t, err, hg.ErrConfig)
}

func TestDuplicateCombinations(t *testing.T) {
	g := hg.New()
	_, err := g.AddNode("dog", hg.WithSuperNodes("animal"))
	require.NoError(t, err)
	mustEdge(t, g, hg.Sources("animal", "dog"), "pair", rel.Sum)
	res, err := g.Solve(context.Background(), "pair", map[string]any{"dog": 2})
	require.NoError(t, err)
	require.Equal(t, hg.Solved, res.Status)
	assert.Equal(t, 4.0, res.Value())
	assert.Equal(t, 1, res.Stats.NbDuplicates)
	assert.Equal(t, 1, res.Stats.NbTNodes)
}

func TestKnownValues(t *testing.T) {
	g := hg.New()
	_, err := g.AddNode("A", hg.WithValue(1))
	require.NoError(t, err)
	mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Sum)
	ctx := context.Background()

	res, err := g.Solve(ctx, "C", map[string]any{"B": 1})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Value())

	res, err = g.Solve(ctx, "C", map[string]any{"A": 5, "B": 1})
	require.NoError(t, err)
	assert.Equal(t, 6.0, res.Value())

	res, err = g.Solve(ctx, "C", map[string]any{"B": nil})
	require.NoError(t, err)
	assert.Equal(t, hg.Unreachable, res.Status)

	_, err = g.Solve(ctx, "C", map[string]any{"Z": 1})
	assert.ErrorIs(t, err, hg.ErrUnknownNode)
	_, err = g.Solve(ctx, "Z", nil)
	assert.ErrorIs(t, err, hg.ErrUnknownNode)
}

func TestRelationErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		rel   hg.Relation
		guard hg.Guard
		stage string
		cause error
	}{
		{"rel error", func(hg.Args) (any, error) { return nil, boom }, nil, "rel", boom},
		{"rel panic", func(hg.Args) (any, error) { panic("oops") }, nil, "rel", nil},
		{"via error", rel.Sum, func(hg.Args) (bool, error) { return false, boom }, "via", boom},
		{"via panic", rel.Sum, func(args hg.Args) (bool, error) { return args.Values()[5] == nil, nil }, "via", nil},
		{"non numeric", rel.Sum, nil, "rel", nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := hg.New()
			mustEdge(t, g, hg.Sources("A", "B"), "C", test.rel, hg.WithGuard(test.guard))
			res, err := g.Solve(context.Background(), "C", map[string]any{"A": 1, "B": "two"})
			require.Error(t, err)
			assert.ErrorIs(t, err, hg.ErrRelation)
			var relErr *hg.RelationError
			require.ErrorAs(t, err, &relErr)
			assert.Equal(t, "abc", relErr.Edge)
			assert.Equal(t, test.stage, relErr.Stage)
			if test.cause != nil {
				assert.ErrorIs(t, err, test.cause)
			}
			assert.Equal(t, hg.Indet, res.Status)
		})
	}
}

func TestUndefinedRelation(t *testing.T) {
	g := hg.New()
	mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Divide)
	res, err := g.Solve(context.Background(), "C", map[string]any{"A": 1, "B": 0})
	require.NoError(t, err)
	assert.Equal(t, hg.Unreachable, res.Status)
	assert.Equal(t, 1, res.Stats.NbRejected)

	mustEdge(t, g, hg.Sources("A"), "D", func(hg.Args) (any, error) { return nil, nil })
	res, err = g.Solve(context.Background(), "D", map[string]any{"A": 1})
	require.NoError(t, err)
	assert.Equal(t, hg.Unreachable, res.Status)
}

func TestEdgeLabels(t *testing.T) {
	g := hg.New()
	assert.Equal(t, "abc", mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Sum).Label())
	assert.Equal(t, "abc1", mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Multiply).Label())
	assert.Equal(t, "abc2", mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Max, hg.WithLabel("abc")).Label())
	assert.Equal(t, "sum", mustEdge(t, g, hg.Sources("A", "B"), "C", rel.Max, hg.WithLabel("sum")).Label())
	assert.Equal(t, "abcd", mustEdge(t, g, hg.Sources("A", "B", "C", "D"), "E", rel.Sum).Label())
	assert.Equal(t, "xy", mustEdge(t, g, []hg.Source{hg.Arg("x", "x"), hg.IndexOf("i", "x")}, "y", rel.First).Label())

	a, ok := g.Node("A")
	require.True(t, ok)
	assert.Equal(t, []string{"abc", "abc1", "abc2", "abcd", "sum"}, a.LeadingEdges())
	c, _ := g.Node("C")
	assert.Equal(t, []string{"abc", "abc1", "abc2", "sum"}, c.GeneratingEdges())
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "x", "y"}, g.Nodes())
	assert.Len(t, g.Edges(), 6)
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		sources []hg.Source
		target  string
		rel     hg.Relation
		opts    []hg.EdgeOption
	}{
		{"no source", nil, "C", rel.Sum, nil},
		{"no target", hg.Sources("A"), "", rel.Sum, nil},
		{"no relation", hg.Sources("A"), "C", nil, nil},
		{"negative weight", hg.Sources("A"), "C", rel.Sum, []hg.EdgeOption{hg.WithWeight(-1)}},
		{"negative offset", hg.Sources("A"), "C", rel.Sum, []hg.EdgeOption{hg.WithEdgeIndexOffset(-1)}},
		{"duplicate names", []hg.Source{hg.Arg("a", "A"), hg.Arg("a", "B")}, "C", rel.Sum, nil},
		{"positional name clash", []hg.Source{hg.S("A"), hg.Arg("s1", "B")}, "C", rel.Sum, nil},
		{"dangling index", []hg.Source{hg.Arg("a", "A"), hg.IndexOf("i", "b")}, "C", rel.Sum, nil},
		{"index of index", []hg.Source{hg.Arg("a", "A"), hg.IndexOf("i", "a"), hg.IndexOf("j", "i")}, "C", rel.Sum, nil},
		{"only index", []hg.Source{hg.IndexOf("i", "i")}, "C", rel.Sum, nil},
		{"unnamed index", []hg.Source{hg.Arg("a", "A"), hg.IndexOf("", "a")}, "C", rel.Sum, nil},
		{"too many names", hg.Sources("A"), "C", rel.Sum, []hg.EdgeOption{hg.WithArgNames("a", "b")}},
		{"unknown property", hg.Sources("A"), "C", rel.Sum, []hg.EdgeOption{hg.WithProps(hg.Property(7))}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := hg.New()
			_, err := g.AddEdge(test.sources, test.target, test.rel, test.opts...)
			require.ErrorIs(t, err, hg.ErrConfig)
			var cfgErr *hg.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
			assert.Empty(t, g.Edges())
		})
	}
	_, err := hg.New().AddNode("")
	assert.ErrorIs(t, err, hg.ErrConfig)
}

func TestArgNames(t *testing.T) {
	g := hg.New()
	e := mustEdge(t, g, []hg.Source{hg.S("A"), hg.Arg("b", "B"), hg.S("C")}, "D", rel.Subtract, hg.WithArgNames("a"))
	assert.Equal(t, []string{"a", "b", "s3"}, e.ArgNames())
	assert.Equal(t, []string{"A", "B", "C"}, e.Slots())
	res, err := g.Solve(context.Background(), "D", map[string]any{"A": 10, "B": 3, "C": 2})
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.Value())
}

func TestParseProperty(t *testing.T) {
	for _, s := range []string{"LEVEL", "level", " 1 "} {
		p, err := hg.ParseProperty(s)
		require.NoError(t, err)
		assert.Equal(t, hg.Level, p)
	}
	_, err := hg.ParseProperty("sync")
	assert.ErrorIs(t, err, hg.ErrConfig)
}

func TestNodeUnion(t *testing.T) {
	g := hg.New()
	_, err := g.AddNode("x", hg.WithDescription("position"), hg.WithUnits("m"))
	require.NoError(t, err)
	n, err := g.AddNode("x", hg.WithValue(2.5), hg.WithSuperNodes("q"))
	require.NoError(t, err)
	assert.Equal(t, "position", n.Description())
	assert.Equal(t, "m", n.Units())
	v, ok := n.Value()
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)
	assert.Equal(t, []string{"q"}, n.SuperNodes())
	assert.Equal(t, "x: position [m]", n.String())
	assert.Contains(t, g.String(), "2 nodes, 0 edges")
}

func TestSolveAll(t *testing.T) {
	g := cycleGraph(t)
	mustEdge(t, g, hg.Sources("S"), "U", rel.Negate)
	results, err := g.SolveAll(context.Background(), []string{"T", "U", "B"}, map[string]any{"S": 1}, hg.WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, -1.0, results["U"].Value())
	assert.Equal(t, 1.0, results["B"].Value())
	assert.Equal(t, hg.Solved, results["T"].Status)

	_, err = g.SolveAll(context.Background(), []string{"T", "nope"}, map[string]any{"S": 1})
	assert.ErrorIs(t, err, hg.ErrUnknownNode)
}
