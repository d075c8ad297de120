package hypergraph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// A Hypergraph is a set of nodes and of the edges between them.
//
// Building methods (AddNode, AddEdge) and solving methods can be called concurrently:
// building waits for in-flight solves to finish, and solves see a consistent hypergraph.
type Hypergraph struct {
	mu     sync.RWMutex
	nodes  map[string]*Node
	edges  map[string]*Edge
	logger *slog.Logger
}

// New returns an empty hypergraph.
func New(opts ...Option) *Hypergraph {
	g := &Hypergraph{
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddNode adds a node to the hypergraph.
// If a node with the same label already exists, both are merged and the existing node is returned.
func (g *Hypergraph) AddNode(label string, opts ...NodeOption) (*Node, error) {
	if label == "" {
		return nil, &ConfigError{Msg: "node has no label"}
	}
	n := newNode(label)
	for _, opt := range opts {
		opt(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for sup := range n.superNodes {
		if sup == label || g.isSuperNode(label, sup) {
			return nil, nodeConfigErr(label, "super node %q would create a cycle", sup)
		}
	}
	for sup := range n.superNodes {
		g.getOrCreateNode(sup)
	}
	res := g.getOrCreateNode(label)
	res.union(n)
	return res, nil
}

// isSuperNode is true iff sup is a (transitive) super node of label.
func (g *Hypergraph) isSuperNode(sup, label string) bool {
	n := g.nodes[label]
	if n == nil {
		return false
	}
	for l := range n.superNodes {
		if l == sup || g.isSuperNode(sup, l) {
			return true
		}
	}
	return false
}

func (g *Hypergraph) getOrCreateNode(label string) *Node {
	n, ok := g.nodes[label]
	if !ok {
		n = newNode(label)
		g.nodes[label] = n
	}
	return n
}

// AddEdge adds an edge from sources to target, computing the target's value with rel.
// Nodes that do not exist yet are created.
// If the requested label is empty or already used, a unique label is generated:
// the initials of the participating nodes (or the requested label), followed by a number if needed.
func (g *Hypergraph) AddEdge(sources []Source, target string, rel Relation, opts ...EdgeOption) (*Edge, error) {
	cfg := edgeConfig{weight: 1.0}
	for _, opt := range opts {
		opt(&cfg)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	label := g.requestEdgeLabel(cfg.label, sources, target)
	e, err := newEdge(label, sources, target, rel, cfg)
	if err != nil {
		return nil, err
	}
	g.edges[label] = e
	for _, slot := range e.slots {
		g.getOrCreateNode(slot).leading[label] = struct{}{}
	}
	g.getOrCreateNode(target).generating[label] = struct{}{}
	return e, nil
}

func (g *Hypergraph) requestEdgeLabel(requested string, sources []Source, target string) string {
	label := requested
	if label == "" {
		var sb strings.Builder
		nb := 0
		for _, n := range append(nodeLabels(sources), target) {
			if nb == 4 {
				break
			}
			if r, _ := utf8.DecodeRuneInString(n); r != utf8.RuneError {
				sb.WriteRune(unicode.ToLower(r))
				nb++
			}
		}
		label = sb.String()
		if label == "" {
			label = "e"
		}
	}
	check := label
	for i := 1; g.edges[check] != nil; i++ {
		check = label + strconv.Itoa(i)
	}
	return check
}

func nodeLabels(sources []Source) []string {
	var res []string
	for _, s := range sources {
		if s.Kind != PseudoIndex {
			res = append(res, s.Node)
		}
	}
	return res
}

// Node returns the node with the given label.
func (g *Hypergraph) Node(label string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[label]
	return n, ok
}

// Edge returns the edge with the given label.
func (g *Hypergraph) Edge(label string) (*Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.edges[label]
	return e, ok
}

// Nodes returns the sorted labels of all nodes.
func (g *Hypergraph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := make([]string, 0, len(g.nodes))
	for l := range g.nodes {
		res = append(res, l)
	}
	sort.Strings(res)
	return res
}

// Edges returns the sorted labels of all edges.
func (g *Hypergraph) Edges() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res := make([]string, 0, len(g.edges))
	for l := range g.edges {
		res = append(res, l)
	}
	sort.Strings(res)
	return res
}

func (g *Hypergraph) String() string {
	nodes, edges := g.Nodes(), g.Edges()
	g.mu.RLock()
	defer g.mu.RUnlock()
	lines := []string{fmt.Sprintf("Hypergraph: %d nodes, %d edges", len(nodes), len(edges))}
	for _, l := range nodes {
		lines = append(lines, "  node "+g.nodes[l].String())
	}
	for _, l := range edges {
		lines = append(lines, "  edge "+g.edges[l].String())
	}
	return strings.Join(lines, "\n")
}

// Solve searches for the cheapest derivation of target.
// known gives a value to some nodes for this call only; it takes precedence over static values.
//
// If no derivation exists, the result status is Unreachable and the error is nil.
// If the search budget is exceeded, the status is Indet and the error wraps ErrSearchLimit.
// If a relation fails, the status is Indet and the error is a *RelationError.
func (g *Hypergraph) Solve(ctx context.Context, target string, known map[string]any, opts ...SolveOption) (Result, error) {
	cfg := defaultSolveConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.nodes[target]; !ok {
		return Result{}, fmt.Errorf("%w: target %q", ErrUnknownNode, target)
	}
	seeds, err := g.seeds(known)
	if err != nil {
		return Result{}, err
	}

	searchID := uuid.NewString()[:12]
	logger := g.logger.With(slog.String("search_id", searchID), slog.String("target", target))
	ctx, span := tracer.Start(ctx, "hypergraph.Solve",
		trace.WithAttributes(
			attribute.String("hypergraph.target", target),
			attribute.String("hypergraph.search_id", searchID),
			attribute.Int("hypergraph.sources", len(seeds)),
			attribute.Int("hypergraph.max_expansions", cfg.maxExpansions),
		),
	)
	defer span.End()

	logger.Info("search started", slog.Int("sources", len(seeds)), slog.Int("nodes", len(g.nodes)), slog.Int("edges", len(g.edges)))
	start := time.Now()
	pf := newPathfinder(g, target, seeds, cfg, logger)
	res, err := pf.search(ctx)
	res.SearchID = searchID
	elapsed := time.Since(start)

	initInstruments(g.logger).record(ctx, target, res.Status, res.Stats, elapsed)
	span.SetAttributes(
		attribute.String("hypergraph.status", res.Status.String()),
		attribute.Int("hypergraph.expansions", res.Stats.NbExpansions),
		attribute.Int("hypergraph.tnodes", res.Stats.NbTNodes),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("search failed", slog.String("error", err.Error()), slog.Int("expansions", res.Stats.NbExpansions), slog.Int("tnodes", res.Stats.NbTNodes))
		return res, err
	}
	span.SetStatus(codes.Ok, "")
	attrs := []any{
		slog.String("status", res.Status.String()),
		slog.Int("expansions", res.Stats.NbExpansions),
		slog.Int("tnodes", res.Stats.NbTNodes),
		slog.Duration("duration", elapsed),
	}
	if res.Status == Solved {
		attrs = append(attrs, slog.Any("value", res.Value()), slog.Float64("cost", res.Tree.Cost()))
	}
	logger.Info("search finished", attrs...)
	return res, nil
}

// seeds lists the known values: first those given for this call, then the static ones, both sorted by label.
// The lock must be held.
func (g *Hypergraph) seeds(known map[string]any) ([]seed, error) {
	labels := make([]string, 0, len(known))
	for l := range known {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	var res []seed
	for _, l := range labels {
		n, ok := g.nodes[l]
		if !ok {
			return nil, fmt.Errorf("%w: known value for %q", ErrUnknownNode, l)
		}
		if known[l] == nil {
			continue
		}
		res = append(res, seed{label: l, value: known[l], offset: n.indexOffset})
	}
	for _, l := range sortedNodeLabels(g.nodes) {
		n := g.nodes[l]
		if _, ok := known[l]; ok || !n.hasValue {
			continue
		}
		res = append(res, seed{label: l, value: n.value, offset: n.indexOffset})
	}
	return res, nil
}

func sortedNodeLabels(nodes map[string]*Node) []string {
	res := make([]string, 0, len(nodes))
	for l := range nodes {
		res = append(res, l)
	}
	sort.Strings(res)
	return res
}

// SolveAll solves each target independently, running up to WithWorkers searches at once.
// It returns the results found so far and the first error met, if any; an error cancels the remaining searches.
func (g *Hypergraph) SolveAll(ctx context.Context, targets []string, known map[string]any, opts ...SolveOption) (map[string]Result, error) {
	cfg := defaultSolveConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	var mu sync.Mutex
	results := make(map[string]Result, len(targets))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.workers)
	for _, target := range targets {
		target := target
		eg.Go(func() error {
			res, err := g.Solve(ctx, target, known, opts...)
			if err != nil {
				return fmt.Errorf("solving %q: %w", target, err)
			}
			mu.Lock()
			results[target] = res
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()
	return results, err
}
