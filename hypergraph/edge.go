package hypergraph

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// A Relation computes the value of an edge's target from the values of its sources.
// It must be a pure function of its arguments: the search may call it several times with the same arguments.
// A relation with no value for its arguments returns nil or ErrUndefined.
// Any other error aborts the search.
type Relation func(args Args) (any, error)

// A Guard tells whether an edge can be traversed with the given arguments.
// A false result is an expected outcome and simply discards the combination.
type Guard func(args Args) (bool, error)

// Property is a shorthand for a common edge configuration.
type Property byte

const (
	// Level requires every source of the edge to have the same iteration index.
	Level = Property(iota + 1)
)

func (p Property) String() string {
	switch p {
	case Level:
		return "LEVEL"
	default:
		return "Property(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseProperty returns the property with the given name ("LEVEL", case insensitive) or number.
func ParseProperty(s string) (Property, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LEVEL", "1":
		return Level, nil
	}
	return 0, fmt.Errorf("%w: unrecognized edge property %q", ErrConfig, s)
}

// An Edge is a relation between a set of source nodes and a single target node.
type Edge struct {
	label       string
	sources     []Source // As declared.
	params      []param
	slots       []string // Distinct source node labels, in declaration order.
	target      string
	rel         Relation
	via         Guard
	weight      float64
	indexOffset int
	props       []Property
}

// An EdgeOption configures an edge when it is added to a hypergraph.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	label       string
	via         Guard
	weight      float64
	indexOffset int
	props       []Property
	argNames    []string
}

// WithGuard sets the guard of the edge. By default, edges are always viable.
func WithGuard(via Guard) EdgeOption {
	return func(c *edgeConfig) { c.via = via }
}

// WithWeight sets the cost of traversing the edge. It must be non-negative. Default is 1.
func WithWeight(w float64) EdgeOption {
	return func(c *edgeConfig) { c.weight = w }
}

// WithLabel sets the label of the edge. A unique label is generated if it is empty or omitted.
func WithLabel(label string) EdgeOption {
	return func(c *edgeConfig) { c.label = label }
}

// WithEdgeIndexOffset sets how much the target's index advances when the edge is traversed,
// on top of the default increment of 1.
func WithEdgeIndexOffset(offset int) EdgeOption {
	return func(c *edgeConfig) { c.indexOffset = offset }
}

// WithProps sets the properties of the edge.
func WithProps(props ...Property) EdgeOption {
	return func(c *edgeConfig) { c.props = append(c.props, props...) }
}

// WithArgNames names the positional sources of the edge, in order.
// Positional sources beyond the given names are named s1, s2, ... after their position.
func WithArgNames(names ...string) EdgeOption {
	return func(c *edgeConfig) { c.argNames = append(c.argNames, names...) }
}

func newEdge(label string, sources []Source, target string, rel Relation, cfg edgeConfig) (*Edge, error) {
	if len(sources) == 0 {
		return nil, edgeConfigErr(label, "edge has no source")
	}
	if target == "" {
		return nil, edgeConfigErr(label, "edge has no target")
	}
	if rel == nil {
		return nil, edgeConfigErr(label, "edge has no relation")
	}
	if cfg.weight < 0 || math.IsNaN(cfg.weight) || math.IsInf(cfg.weight, 0) {
		return nil, edgeConfigErr(label, "invalid weight %v", cfg.weight)
	}
	if cfg.indexOffset < 0 {
		return nil, edgeConfigErr(label, "negative index offset %d", cfg.indexOffset)
	}
	e := &Edge{
		label:       label,
		sources:     append([]Source(nil), sources...),
		target:      target,
		rel:         rel,
		via:         cfg.via,
		weight:      cfg.weight,
		indexOffset: cfg.indexOffset,
		props:       append([]Property(nil), cfg.props...),
	}
	if err := e.resolveParams(cfg.argNames); err != nil {
		return nil, err
	}
	for _, p := range e.props {
		if p != Level {
			return nil, edgeConfigErr(label, "unsupported property %v", p)
		}
		e.injectLevelParams()
	}
	return e, nil
}

// resolveParams gives a name to every source and checks pseudo-index references.
func (e *Edge) resolveParams(argNames []string) error {
	names := make(map[string]int)
	nextName := 0
	for i, src := range e.sources {
		p := param{}
		switch src.Kind {
		case Positional:
			if nextName < len(argNames) {
				p.name = argNames[nextName]
				nextName++
			} else {
				p.name = "s" + strconv.Itoa(i+1)
			}
			p.node = src.Node
		case Named:
			p.name = src.Name
			p.node = src.Node
		case PseudoIndex:
			p.name = src.Name
			p.of = src.Of
			p.index = true
		default:
			return edgeConfigErr(e.label, "invalid kind for source #%d", i+1)
		}
		if p.name == "" {
			return edgeConfigErr(e.label, "source #%d has no argument name", i+1)
		}
		if !p.index && p.node == "" {
			return edgeConfigErr(e.label, "source %q has no node", p.name)
		}
		if _, ok := names[p.name]; ok {
			return edgeConfigErr(e.label, "duplicate argument name %q", p.name)
		}
		names[p.name] = len(e.params)
		e.params = append(e.params, p)
	}
	if nextName < len(argNames) {
		return edgeConfigErr(e.label, "%d argument names given for %d positional sources", len(argNames), nextName)
	}
	nbValues := 0
	for _, p := range e.params {
		if !p.index {
			nbValues++
			if !contains(e.slots, p.node) {
				e.slots = append(e.slots, p.node)
			}
			continue
		}
		j, ok := names[p.of]
		if !ok {
			return edgeConfigErr(e.label, "pseudo-index %q references %q, which is not a source of the edge", p.name, p.of)
		}
		if e.params[j].index {
			return edgeConfigErr(e.label, "pseudo-index %q references %q, which is itself a pseudo-index", p.name, p.of)
		}
	}
	if nbValues == 0 {
		return edgeConfigErr(e.label, "edge only has pseudo-index sources")
	}
	return nil
}

// injectLevelParams adds a hidden index param for every value param not indexed yet.
func (e *Edge) injectLevelParams() {
	indexed := make(map[string]bool)
	for _, p := range e.params {
		if p.index {
			indexed[p.of] = true
		}
	}
	n := len(e.params)
	for _, p := range e.params[:n] {
		if p.index || indexed[p.name] {
			continue
		}
		e.params = append(e.params, param{name: "#" + p.name, of: p.name, index: true, hidden: true})
		indexed[p.name] = true
	}
}

// Label is the unique identifier of the edge.
func (e *Edge) Label() string { return e.label }

// Target is the label of the node the edge produces.
func (e *Edge) Target() string { return e.target }

// Sources returns the sources as they were declared.
func (e *Edge) Sources() []Source { return append([]Source(nil), e.sources...) }

// Slots returns the distinct labels of the source nodes, in declaration order.
// Process expects one TNode per slot, in this order.
func (e *Edge) Slots() []string { return append([]string(nil), e.slots...) }

// ArgNames returns the names of the arguments given to the edge's relation and guard.
func (e *Edge) ArgNames() []string {
	var res []string
	for _, p := range e.params {
		if !p.hidden {
			res = append(res, p.name)
		}
	}
	return res
}

// Weight is the cost of traversing the edge.
func (e *Edge) Weight() float64 { return e.weight }

// IndexOffset is the extra index increment applied to the target.
func (e *Edge) IndexOffset() int { return e.indexOffset }

// Props returns the properties of the edge.
func (e *Edge) Props() []Property { return append([]Property(nil), e.props...) }

// HasProp is true iff the edge was configured with the given property.
func (e *Edge) HasProp(p Property) bool {
	for _, p2 := range e.props {
		if p2 == p {
			return true
		}
	}
	return false
}

func (e *Edge) String() string {
	srcs := make([]string, len(e.sources))
	for i, s := range e.sources {
		srcs[i] = s.String()
	}
	return fmt.Sprintf("%s: (%s) -> %s", e.label, strings.Join(srcs, ", "), e.target)
}

func (e *Edge) slotIndex(label string) int {
	for i, s := range e.slots {
		if s == label {
			return i
		}
	}
	return -1
}

// paramSlot returns the slot index a param reads from.
func (e *Edge) paramSlot(p param) int {
	if !p.index {
		return e.slotIndex(p.node)
	}
	for _, p2 := range e.params {
		if p2.name == p.of {
			return e.slotIndex(p2.node)
		}
	}
	return -1
}

// args builds the arguments for the given children, one per slot.
// level is false iff the Level property is set and the children's indices differ.
func (e *Edge) args(children []*TNode) (args Args, level bool) {
	level = true
	checkLevel := e.HasProp(Level)
	lvl := 0
	first := true
	for _, p := range e.params {
		t := children[e.paramSlot(p)]
		if p.index {
			if checkLevel {
				if first {
					lvl, first = t.Index(), false
				} else if t.Index() != lvl {
					level = false
				}
			}
			if !p.hidden {
				args.add(p.name, t.Index())
			}
			continue
		}
		args.add(p.name, t.Value())
	}
	return args, level
}

// Process computes the target value for the given source derivations, one per slot (see Slots).
// ok is false if the combination is rejected, either because the guard or the Level
// property discarded it, or because the relation had no value.
// A non-nil error means the relation or the guard failed: the search must stop.
func (e *Edge) Process(children []*TNode) (value any, ok bool, err error) {
	if len(children) != len(e.slots) {
		return nil, false, fmt.Errorf("edge %q: got %d source derivations, expected %d", e.label, len(children), len(e.slots))
	}
	args, level := e.args(children)
	if !level {
		return nil, false, nil
	}
	if e.via != nil {
		viable, err := e.callGuard(args)
		if err != nil || !viable {
			return nil, false, err
		}
	}
	value, err = e.callRel(args)
	if errors.Is(err, ErrUndefined) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (e *Edge) callGuard(args Args) (viable bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RelationError{Edge: e.label, Stage: "via", Args: args, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	viable, err = e.via(args)
	if err != nil {
		return false, &RelationError{Edge: e.label, Stage: "via", Args: args, Err: err}
	}
	return viable, nil
}

func (e *Edge) callRel(args Args) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RelationError{Edge: e.label, Stage: "rel", Args: args, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	value, err = e.rel(args)
	if err != nil && !errors.Is(err, ErrUndefined) {
		return nil, &RelationError{Edge: e.label, Stage: "rel", Args: args, Err: err}
	}
	return value, err
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
