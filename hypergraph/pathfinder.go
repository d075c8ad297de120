package hypergraph

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// A seed is a known value the search starts from.
type seed struct {
	label  string
	value  any
	offset int
}

// A pathfinder searches one derivation of a target.
// All of its state is local to a single solve: the hypergraph is only read.
type pathfinder struct {
	g        *Hypergraph
	target   string
	seeds    []seed
	cfg      solveConfig
	logger   *slog.Logger
	frontier frontier
	found    map[string]map[string][]*TNode // For each edge, for each of its slots, the TNodes found so far.
	seen     map[string]struct{}            // Combinations already processed, see comboKey.
	visible  map[string][]*Edge             // Edges followed from each node, super nodes included.
	general  map[string]map[string]bool     // Each node and all its super nodes, transitively.
	nextID   int
	stats    Stats
}

func newPathfinder(g *Hypergraph, target string, seeds []seed, cfg solveConfig, logger *slog.Logger) *pathfinder {
	return &pathfinder{
		g:       g,
		target:  target,
		seeds:   seeds,
		cfg:     cfg,
		logger:  logger,
		found:   make(map[string]map[string][]*TNode),
		seen:    make(map[string]struct{}),
		visible: make(map[string][]*Edge),
		general: make(map[string]map[string]bool),
	}
}

// search runs the search until the target is popped from the frontier,
// the frontier is empty or the budget is exceeded.
func (p *pathfinder) search(ctx context.Context) (Result, error) {
	for _, s := range p.seeds {
		p.push(newLeaf(p.nextID, s.label, s.value, s.offset))
		p.nextID++
	}
	for {
		if err := ctx.Err(); err != nil {
			return p.result(Indet, nil), err
		}
		if p.frontier.empty() {
			return p.result(Unreachable, nil), nil
		}
		if p.stats.NbTNodes > p.cfg.maxExpansions {
			return p.result(Indet, nil), p.limitErr()
		}
		t := p.frontier.removeMin()
		p.stats.NbExpansions++
		if t.label == p.target && t.index >= p.cfg.minIndex {
			return p.result(Solved, t), nil
		}
		if err := p.explore(ctx, t); err != nil {
			return p.result(Indet, nil), err
		}
	}
}

func (p *pathfinder) result(status Status, t *TNode) Result {
	res := Result{Status: status, Tree: t, Stats: p.stats}
	if t != nil {
		res.Values = t.Values()
	}
	return res
}

func (p *pathfinder) limitErr() error {
	return fmt.Errorf("%w: %d search nodes built while solving %q (budget %d)", ErrSearchLimit, p.stats.NbTNodes, p.target, p.cfg.maxExpansions)
}

func (p *pathfinder) push(t *TNode) {
	p.frontier.push(t)
	if n := p.frontier.len(); n > p.stats.FrontierMaxLen {
		p.stats.FrontierMaxLen = n
	}
}

// explore follows every edge leading from t's node, or from one of its super nodes.
func (p *pathfinder) explore(ctx context.Context, t *TNode) error {
	gens := p.generalizations(t.label)
	edges := p.visibleEdges(t.label)
	if p.logger.Enabled(ctx, slog.LevelDebug) {
		attrs := []any{
			slog.String("node", t.label),
			slog.Any("value", t.value),
			slog.Int("index", t.index),
			slog.Float64("cost", t.cost),
			slog.Int("leading_edges", len(edges)),
		}
		if p.cfg.debugNodes[t.label] {
			attrs = append(attrs, slog.String("tree", treeString(t)))
		}
		p.logger.Debug("exploring", attrs...)
	}
	for _, e := range edges {
		table := p.found[e.label]
		if table == nil {
			table = make(map[string][]*TNode)
			p.found[e.label] = table
		}
		for _, slot := range e.slots {
			if gens[slot] {
				table[slot] = append(table[slot], t)
			}
		}
		if p.cfg.debugEdges[e.label] {
			p.logFound(ctx, e, table)
		}
		for i, slot := range e.slots {
			if !gens[slot] {
				continue
			}
			if err := p.combine(ctx, e, table, i, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// combine tries every combination of found TNodes for the slots of e, with slot fixed bound to t.
// The edge cannot fire until every one of its slots has at least one TNode.
func (p *pathfinder) combine(ctx context.Context, e *Edge, table map[string][]*TNode, fixed int, t *TNode) error {
	lists := make([][]*TNode, len(e.slots))
	for i, slot := range e.slots {
		if i == fixed {
			lists[i] = []*TNode{t}
			continue
		}
		lists[i] = table[slot]
		if len(lists[i]) == 0 {
			return nil
		}
	}
	idx := make([]int, len(lists))
	combo := make([]*TNode, len(lists))
	for {
		for i := range lists {
			combo[i] = lists[i][idx[i]]
		}
		if err := p.makeParent(ctx, e, combo); err != nil {
			return err
		}
		k := len(lists) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < len(lists[k]) {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return nil
		}
	}
}

// makeParent processes a combination of source TNodes and pushes the resulting TNode, if any.
func (p *pathfinder) makeParent(ctx context.Context, e *Edge, combo []*TNode) error {
	key := comboKey(e, combo)
	if _, ok := p.seen[key]; ok {
		p.stats.NbDuplicates++
		return nil
	}
	p.seen[key] = struct{}{}
	value, ok, err := e.Process(combo)
	if err != nil {
		return err
	}
	if !ok {
		p.stats.NbRejected++
		if p.cfg.debugEdges[e.label] {
			p.logger.DebugContext(ctx, "combination rejected", slog.String("edge", e.label), slog.String("combo", comboString(combo)))
		}
		return nil
	}
	t := newParent(p.nextID, e.target, value, e, combo)
	p.nextID++
	p.push(t)
	p.stats.NbTNodes++
	if p.cfg.debugEdges[e.label] {
		p.logger.DebugContext(ctx, "combination accepted",
			slog.String("edge", e.label),
			slog.String("combo", comboString(combo)),
			slog.Any("value", value),
		)
	}
	if p.stats.NbTNodes > p.cfg.maxExpansions {
		return p.limitErr()
	}
	return nil
}

// visibleEdges returns the leading edges of the node and of all its super nodes, without duplicates.
func (p *pathfinder) visibleEdges(label string) []*Edge {
	if edges, ok := p.visible[label]; ok {
		return edges
	}
	n := p.g.nodes[label]
	if n == nil {
		return nil
	}
	var edges []*Edge
	done := make(map[string]bool)
	for _, el := range n.LeadingEdges() {
		done[el] = true
		edges = append(edges, p.g.edges[el])
	}
	for _, sup := range n.SuperNodes() {
		for _, e := range p.visibleEdges(sup) {
			if !done[e.label] {
				done[e.label] = true
				edges = append(edges, e)
			}
		}
	}
	p.visible[label] = edges
	return edges
}

// generalizations returns the node's label and the labels of all its super nodes.
func (p *pathfinder) generalizations(label string) map[string]bool {
	if gens, ok := p.general[label]; ok {
		return gens
	}
	gens := map[string]bool{label: true}
	if n := p.g.nodes[label]; n != nil {
		for sup := range n.superNodes {
			for l := range p.generalizations(sup) {
				gens[l] = true
			}
		}
	}
	p.general[label] = gens
	return gens
}

func (p *pathfinder) logFound(ctx context.Context, e *Edge, table map[string][]*TNode) {
	for _, slot := range e.slots {
		ts := table[slot]
		strs := make([]string, len(ts))
		for i, t := range ts {
			strs[i] = fmt.Sprintf("%v(%d)", t.value, t.index)
		}
		p.logger.DebugContext(ctx, "found tnodes",
			slog.String("edge", e.label),
			slog.String("slot", slot),
			slog.String("tnodes", strings.Join(strs, ", ")),
		)
	}
}

// comboKey identifies the application of e to the given TNodes.
func comboKey(e *Edge, combo []*TNode) string {
	var sb strings.Builder
	sb.WriteString(e.label)
	for _, t := range combo {
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(t.id))
	}
	return sb.String()
}

func comboString(combo []*TNode) string {
	strs := make([]string, len(combo))
	for i, t := range combo {
		strs[i] = fmt.Sprintf("%s(%d)", t.label, t.index)
	}
	return strings.Join(strs, ", ")
}

// treeString is a compact, single-line representation of a derivation, used in debug logs.
func treeString(t *TNode) string {
	if t.IsLeaf() {
		return t.String()
	}
	strs := make([]string, len(t.children))
	for i, c := range t.children {
		strs[i] = treeString(c)
	}
	return fmt.Sprintf("%s <-%s- [%s]", t.String(), t.edge, strings.Join(strs, "; "))
}
