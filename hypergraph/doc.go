/*
Package hypergraph gives access to a constraint-propagation engine over a hypergraph of relations.

Nodes are variables. Edges are relations from several source nodes to a single target node:
if values are known for every source of an edge and the edge's guard accepts them,
the edge's relation computes a value for the target.
Given some known values, the engine finds the cheapest derivation of a requested target.

Describing a hypergraph

Nodes are created either explicitly or implicitly, when an edge refers to them:

    g := hypergraph.New()
    g.AddNode("n", hypergraph.WithDescription("number of steps"))
    g.AddEdge(hypergraph.Sources("A", "B"), "C", rel.Sum)

Sources are positional by default: the relation sees them as s1, s2, ...
They can also be given a name, or refer to the iteration index of another source of the same edge:

    g.AddEdge([]hypergraph.Source{
        hypergraph.Arg("x", "x"),
        hypergraph.IndexOf("i", "x"),
        hypergraph.Arg("n", "n"),
    }, "x_n", rel.Equal("x"), hypergraph.WithGuard(func(args hypergraph.Args) (bool, error) {
        i, _ := args.Float("i")
        n, err := args.Float("n")
        return i >= n, err
    }))

Cycles

A node can be a source of an edge producing that same node. Each traversal of such an edge
builds a new value for the node at a higher iteration index: the index of a derivation is
1 + the highest index of its sources, plus the edge's index offset. Guards reading pseudo-index
sources are the usual way to stop a cycle. Edges with the Level property only fire when all their
sources are at the same index.

Solving

    res, err := g.Solve(ctx, "C", map[string]any{"A": 3.0, "B": 7.0})
    if err != nil {
        return err
    }
    if res.Status == hypergraph.Solved {
        fmt.Println(res.Value())
    }

The search is a uniform-cost search over derivation trees (TNodes): the cheapest derivation found
so far is expanded first, and ties are broken by creation order, so a given hypergraph and
input always yield the same result. If the target cannot be derived, the status is Unreachable.
The number of derivations a search may build is bounded (see WithMaxExpansions); when the bound is
exceeded, the status is Indet and the error wraps ErrSearchLimit.
*/
package hypergraph
