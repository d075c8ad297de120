// Package model reads hypergraphs described in YAML files.
//
// A model file looks like this:
//
//	target: x_n
//	nodes:
//	  - label: x
//	    description: current position
//	    units: m
//	  - label: n
//	    value: 4
//	inputs:
//	  x: 0
//	  dx: 1.5
//	edges:
//	  - label: step
//	    sources: [x, dx]
//	    target: x
//	    rel: sum
//	  - sources:
//	      - x
//	      - {name: i, index_of: s1}
//	      - n
//	    target: x_n
//	    expr: s1
//	    via: i >= s3
//
// Relations are either the name of a builtin relation (rel) or an HCL expression (expr).
// Guards (via) are HCL expressions returning a boolean.
// Expressions can only refer to the arguments of their edge: positional sources are named s1, s2, ...
// after their position.
package model

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/crillab/gopherhg/hypergraph"
	"github.com/crillab/gopherhg/rel"
)

// A Model is the description of a hypergraph, along with default inputs and target.
type Model struct {
	Target string         `yaml:"target"`
	Inputs map[string]any `yaml:"inputs"`
	Nodes  []NodeSpec     `yaml:"nodes"`
	Edges  []EdgeSpec     `yaml:"edges"`
}

// NodeSpec describes a node.
type NodeSpec struct {
	Label       string   `yaml:"label"`
	Value       any      `yaml:"value"`
	Description string   `yaml:"description"`
	Units       string   `yaml:"units"`
	IndexOffset int      `yaml:"index_offset"`
	Super       []string `yaml:"super"`
}

// EdgeSpec describes an edge.
type EdgeSpec struct {
	Label       string       `yaml:"label"`
	Sources     []SourceSpec `yaml:"sources"`
	Target      string       `yaml:"target"`
	Rel         string       `yaml:"rel"`
	Expr        string       `yaml:"expr"`
	Via         string       `yaml:"via"`
	Weight      *float64     `yaml:"weight"`
	IndexOffset int          `yaml:"index_offset"`
	Props       []string     `yaml:"props"`

	rel hypergraph.Relation
	via hypergraph.Guard
}

// SourceSpec describes a source of an edge.
// In YAML, it is either the label of a node (positional source)
// or a mapping with a name and either a node or an index_of field.
type SourceSpec struct {
	Name    string `yaml:"name"`
	Node    string `yaml:"node"`
	IndexOf string `yaml:"index_of"`
}

// UnmarshalYAML accepts both the scalar and the mapping forms of a source.
func (s *SourceSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Node = value.Value
		return nil
	}
	type plain SourceSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = SourceSpec(p)
	return nil
}

func (s SourceSpec) source() (hypergraph.Source, error) {
	switch {
	case s.IndexOf != "" && s.Node != "":
		return hypergraph.Source{}, fmt.Errorf("source %q has both a node and an index_of field", s.Name)
	case s.IndexOf != "":
		if s.Name == "" {
			return hypergraph.Source{}, fmt.Errorf("index source of %q has no name", s.IndexOf)
		}
		return hypergraph.IndexOf(s.Name, s.IndexOf), nil
	case s.Node == "":
		return hypergraph.Source{}, errors.New("source has no node")
	case s.Name != "":
		return hypergraph.Arg(s.Name, s.Node), nil
	default:
		return hypergraph.S(s.Node), nil
	}
}

// argNames returns the names the edge will give to its arguments.
func (e *EdgeSpec) argNames() []string {
	res := make([]string, len(e.Sources))
	for i, s := range e.Sources {
		if s.Name != "" {
			res[i] = s.Name
		} else {
			res[i] = "s" + strconv.Itoa(i+1)
		}
	}
	return res
}

// compile resolves the relation and the guard of the edge.
func (e *EdgeSpec) compile(name string) error {
	switch {
	case e.Rel != "" && e.Expr != "":
		return fmt.Errorf("%s: rel and expr are mutually exclusive", name)
	case e.Rel != "":
		r, ok := rel.Builtin(e.Rel)
		if !ok {
			return fmt.Errorf("%s: unknown relation %q, expected one of %s", name, e.Rel, strings.Join(rel.Names(), ", "))
		}
		e.rel = r
	case e.Expr != "":
		expr, err := compileExpression(name+".expr", e.Expr, e.argNames())
		if err != nil {
			return err
		}
		e.rel = expr.relation()
	default:
		return fmt.Errorf("%s: edge has neither rel nor expr", name)
	}
	if e.Via != "" {
		expr, err := compileExpression(name+".via", e.Via, e.argNames())
		if err != nil {
			return err
		}
		e.via = expr.guard()
	}
	return nil
}

func (e *EdgeSpec) options() ([]hypergraph.EdgeOption, error) {
	opts := []hypergraph.EdgeOption{
		hypergraph.WithLabel(e.Label),
		hypergraph.WithEdgeIndexOffset(e.IndexOffset),
	}
	if e.Weight != nil {
		opts = append(opts, hypergraph.WithWeight(*e.Weight))
	}
	if e.via != nil {
		opts = append(opts, hypergraph.WithGuard(e.via))
	}
	for _, p := range e.Props {
		prop, err := hypergraph.ParseProperty(p)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hypergraph.WithProps(prop))
	}
	return opts, nil
}

func edgeName(i int, e EdgeSpec) string {
	if e.Label != "" {
		return fmt.Sprintf("edges[%d] (%s)", i, e.Label)
	}
	return fmt.Sprintf("edges[%d]", i)
}

// Parse reads a model from r, and compiles its relations and guards.
func Parse(r io.Reader) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty model")
		}
		return nil, fmt.Errorf("could not parse model: %w", err)
	}
	for i := range m.Edges {
		if err := m.Edges[i].compile(edgeName(i, m.Edges[i])); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Load reads the model file at path on fs.
func Load(fs afero.Fs, path string) (*Model, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open model: %w", err)
	}
	defer func() { _ = f.Close() }()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Build creates the hypergraph described by the model.
// Nodes are added first, in order, then edges.
func (m *Model) Build(logger *slog.Logger) (*hypergraph.Hypergraph, error) {
	g := hypergraph.New(hypergraph.WithLogger(logger))
	for i, n := range m.Nodes {
		opts := []hypergraph.NodeOption{
			hypergraph.WithDescription(n.Description),
			hypergraph.WithUnits(n.Units),
			hypergraph.WithIndexOffset(n.IndexOffset),
			hypergraph.WithSuperNodes(n.Super...),
		}
		if n.Value != nil {
			opts = append(opts, hypergraph.WithValue(n.Value))
		}
		if _, err := g.AddNode(n.Label, opts...); err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	for i := range m.Edges {
		e := &m.Edges[i]
		name := edgeName(i, *e)
		if e.rel == nil {
			if err := e.compile(name); err != nil {
				return nil, err
			}
		}
		srcs := make([]hypergraph.Source, len(e.Sources))
		for j, s := range e.Sources {
			src, err := s.source()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			srcs[j] = src
		}
		opts, err := e.options()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if _, err := g.AddEdge(srcs, e.Target, e.rel, opts...); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return g, nil
}

// InputLabels returns the sorted labels of the model's default inputs.
func (m *Model) InputLabels() []string {
	res := make([]string, 0, len(m.Inputs))
	for l := range m.Inputs {
		res = append(res, l)
	}
	sort.Strings(res)
	return res
}

// ParseInput parses a "label=value" assignment, as given on a command line.
// Values are read as numbers or booleans when possible, as strings otherwise.
func ParseInput(s string) (label string, value any, err error) {
	label, raw, ok := strings.Cut(s, "=")
	label = strings.TrimSpace(label)
	if !ok || label == "" {
		return "", nil, fmt.Errorf("invalid input %q, expected label=value", s)
	}
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return label, f, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return label, b, nil
	}
	return label, raw, nil
}
