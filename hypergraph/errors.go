package hypergraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfig is wrapped by every error returned while building a hypergraph.
	ErrConfig = errors.New("invalid hypergraph configuration")
	// ErrUnknownNode is returned when a solve references a label that is not in the hypergraph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrSearchLimit is returned when a search explores more nodes than its budget allows.
	// It usually means a cycle has no viable exit guard.
	ErrSearchLimit = errors.New("maximum search limit exceeded")
	// ErrRelation is wrapped by RelationError.
	ErrRelation = errors.New("relation failed")
	// ErrUndefined can be returned by a relation to signal that it has no value
	// for the given arguments. The combination is then silently discarded.
	ErrUndefined = errors.New("undefined value")
)

// A ConfigError describes an invalid node or edge declaration.
type ConfigError struct {
	Edge string // Label of the offending edge, if any.
	Node string // Label of the offending node, if any.
	Msg  string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Edge != "":
		return fmt.Sprintf("%v: edge %q: %s", ErrConfig, e.Edge, e.Msg)
	case e.Node != "":
		return fmt.Sprintf("%v: node %q: %s", ErrConfig, e.Node, e.Msg)
	default:
		return fmt.Sprintf("%v: %s", ErrConfig, e.Msg)
	}
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func edgeConfigErr(edge, format string, args ...any) error {
	return &ConfigError{Edge: edge, Msg: fmt.Sprintf(format, args...)}
}

func nodeConfigErr(node, format string, args ...any) error {
	return &ConfigError{Node: node, Msg: fmt.Sprintf(format, args...)}
}

// A RelationError is returned when a relation or a guard fails on a combination of source values.
// It aborts the whole search.
type RelationError struct {
	Edge  string // Label of the edge being processed.
	Stage string // "rel" or "via".
	Args  Args   // Arguments given to the failing callable.
	Err   error
}

func (e *RelationError) Error() string {
	parts := make([]string, 0, e.Args.Len())
	for i, name := range e.Args.Names() {
		parts = append(parts, fmt.Sprintf("%s=%v", name, e.Args.values[i]))
	}
	return fmt.Sprintf("%v: edge %q (%s) with {%s}: %v", ErrRelation, e.Edge, e.Stage, strings.Join(parts, ", "), e.Err)
}

func (e *RelationError) Unwrap() []error { return []error{ErrRelation, e.Err} }
